package filter

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Filter decides whether a single candidate should be removed.
// true means drop, false means keep.
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
