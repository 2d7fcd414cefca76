package core

// MatchedEntry is one resolved profile match shown to the user: a tag,
// creator or trait shared between the profile and the recommended item,
// with its preference strength normalized to 0-100.
type MatchedEntry struct {
	ID       string
	Name     string
	Strength int // 0-100
}

// ContributingItem is one of the user's favorites that pulled this
// recommendation in, with the item-to-item tag similarity that linked them.
type ContributingItem struct {
	ID         string
	Title      string
	Similarity float64
}

// Recommendation is a scored candidate plus its lazily computed
// explanation. The explanation fields are populated only for the final
// returned page, never for the full candidate pool.
type Recommendation struct {
	Item  *Item
	Title string

	MatchedTags       []MatchedEntry
	MatchedDevelopers []MatchedEntry
	MatchedStaff      []MatchedEntry
	MatchedSeiyuu     []MatchedEntry
	MatchedTraits     []MatchedEntry
	ContributingItems []ContributingItem
}
