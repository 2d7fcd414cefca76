package core

import "github.com/drinosaret/vn-club-resources-sub000/pkg/utils"

// Item is the unit that flows through the recommendation pipeline:
// a candidate visual novel with its signal sub-scores, combined score,
// and explain/observability labels.
//
// Signals and Score are written exactly once by the rank stage; the
// rerank stage only reorders items and never rewrites scores.
type Item struct {
	ID      string // VNDB-style id, e.g. "v17"
	Score   float64
	Display int // 0-100 normalized score for presentation
	Signals Signals
	Labels  map[string]utils.Label
	Meta    map[string]any
}

// Signals holds the eight per-candidate affinity sub-scores.
// Every field is clamped to [0,1] by the rank stage.
type Signals struct {
	Tag       float64
	Similar   float64 // precomputed item-item similarity to favorites
	CoOccur   float64 // collaborative "users also read"
	Developer float64
	Staff     float64
	Seiyuu    float64
	Trait     float64
	Quality   float64
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
		Meta:   make(map[string]any),
	}
}

// PutLabel writes a label; an existing key is merged by the default
// accumulate rule so recall provenance survives dedup.
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel returns a label value, or "" when absent.
func (it *Item) GetLabel(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}
