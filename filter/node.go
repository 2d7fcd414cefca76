package filter

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// Node applies a chain of filters over the candidate pool. Any filter
// voting to drop removes the item; a filter error keeps the item (hard
// constraints fail open rather than emptying the pool on a flaky lookup).
type Node struct {
	Filters []Filter
}

func (n *Node) Name() string {
	return "filter.node"
}

func (n *Node) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		drop := false
		for _, f := range n.Filters {
			shouldDrop, err := f.ShouldFilter(ctx, rctx, it)
			if err != nil {
				continue
			}
			if shouldDrop {
				it.PutLabel("filtered_by", utils.Label{Value: f.Name(), Source: "filter"})
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, it)
		}
	}
	return out, nil
}
