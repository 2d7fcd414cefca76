package rerank

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
)

// TopN truncates a sorted pool to its first N items. Used between rank
// and MMR to bound the rerank cost, or on its own when diversity is off.
type TopN struct {
	// N is how many items to keep; N <= 0 keeps everything.
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
