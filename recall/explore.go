package recall

import (
	"context"
	"math/rand"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// ExploreSource injects uniformly sampled items above a minimal quality
// threshold, keeping the pool from collapsing into pure exploitation.
// Sampling uses the request's injectable random source so that tests and
// replayed requests are reproducible.
type ExploreSource struct {
	Catalog core.Catalog

	// MinRating is the quality floor on the 0-10 scale (default 6.0).
	MinRating float64
}

func (s *ExploreSource) Name() string { return "recall.explore" }

func (s *ExploreSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	minRating := s.MinRating
	if minRating <= 0 {
		minRating = 6.0
	}

	r := rctx.Rand
	if r == nil {
		// No source injected: non-deterministic exploration is the
		// product default.
		r = rand.New(rand.NewSource(rand.Int63()))
	}

	ids, err := s.Catalog.RandomItems(ctx, limit, minRating, r)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		if rctx.Profile != nil {
			if _, rated := rctx.Profile.Rated[id]; rated {
				continue
			}
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "explore", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
