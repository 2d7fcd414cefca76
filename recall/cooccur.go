package recall

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// CoOccurSource surfaces items highly co-rated with the user's favorites,
// regardless of tag profile. Collaborative rows carry the number of
// distinct corroborating users; rows below MinUsers are noise and dropped.
type CoOccurSource struct {
	Catalog core.Catalog

	// MinUsers is the confidence floor on corroborating users (default 20).
	MinUsers int

	// MaxSeeds bounds how many favorites seed the lookup (default 20).
	MaxSeeds int
}

func (s *CoOccurSource) Name() string { return "recall.cooccur" }

func (s *CoOccurSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	p := rctx.Profile
	if p == nil || len(p.HighRated) == 0 || limit <= 0 {
		return nil, nil
	}

	minUsers := s.MinUsers
	if minUsers <= 0 {
		minUsers = 20
	}
	maxSeeds := s.MaxSeeds
	if maxSeeds <= 0 {
		maxSeeds = 20
	}

	favorites := p.TopFavorites(maxSeeds)
	seeds := make([]string, len(favorites))
	for i, f := range favorites {
		seeds[i] = f.ID
	}

	rows, err := s.Catalog.CoOccurringItems(ctx, seeds)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	for _, row := range rows {
		if row.Users < minUsers {
			continue
		}
		if _, rated := p.Rated[row.Item]; rated {
			continue
		}
		if row.Score > scores[row.Item] {
			scores[row.Item] = row.Score
		}
	}

	items := rankedItems(scores, limit, "cooccur")
	for _, it := range items {
		it.PutLabel("recall_bypass", utils.Label{Value: "cooccur", Source: "recall"})
	}
	return items, nil
}
