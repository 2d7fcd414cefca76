package filter

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Exclude drops items in the request's exclusion set (the user's own
// list). Recall already honors the set; this filter is the guarantee.
type Exclude struct{}

func (f *Exclude) Name() string {
	return "filter.exclude"
}

func (f *Exclude) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	if rctx.Excluded(item.ID) {
		return true, nil
	}
	if rctx.Profile != nil {
		if _, rated := rctx.Profile.Rated[item.ID]; rated {
			return true, nil
		}
	}
	return false, nil
}
