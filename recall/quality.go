package recall

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// QualitySource is the cold-start fallback: top items by raw catalog
// rating, unfiltered by preference. The Generator consults it only when
// every personalized source came back empty (e.g. a brand-new user whose
// ratings produced no favorites).
type QualitySource struct {
	Catalog core.Catalog

	// MinVotes drops items whose rating rests on too few votes
	// (default 50).
	MinVotes int
}

func (s *QualitySource) Name() string { return "recall.quality" }

func (s *QualitySource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	minVotes := s.MinVotes
	if minVotes <= 0 {
		minVotes = 50
	}

	// Over-fetch so the vote floor still fills the budget.
	ids, err := s.Catalog.TopRated(ctx, limit*2)
	if err != nil {
		return nil, err
	}

	metas, err := s.Catalog.ItemMetadata(ctx, ids)
	if err != nil {
		// Vote floor degrades; raw top-rated order still serves.
		metas = nil
	}

	out := make([]*core.Item, 0, limit)
	for _, id := range ids {
		if rctx.Profile != nil {
			if _, rated := rctx.Profile.Rated[id]; rated {
				continue
			}
		}
		if metas != nil {
			if meta, ok := metas[id]; ok && meta.VoteCount < minVotes {
				continue
			}
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "quality", Source: "recall"})
		out = append(out, it)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
