package utils

// Label is a first-class citizen of the recommendation chain: explainable,
// traceable, carried through every stage. Value and Source semantics are
// owned by the stage that writes them; this package only standardizes merge.
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank / explain ...
}

// MergeLabel merges two labels with the same key, keeping history:
//   - Value accumulates with '|'
//   - Source accumulates with ','
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
