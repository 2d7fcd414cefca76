package recall

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Source is a reusable candidate source (similarity-seeded, exploration,
// elite-tag bypass, co-occurrence, quality fallback). Sources run
// concurrently under the Generator; limit is the source's budgeted share
// of the candidate pool.
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error)
}
