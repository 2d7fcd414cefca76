package recall

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// EliteTagSource surfaces items matching any of the user's elite tags at
// high relevance, with no minimum shared-tag requirement. A user's
// strongest niche preference can produce a recommendation even when the
// broad tag profile barely overlaps.
type EliteTagSource struct {
	Catalog core.Catalog

	// MinRelevance is the item-side tag strength floor (default 2.0).
	MinRelevance float64
}

func (s *EliteTagSource) Name() string { return "recall.elitetag" }

func (s *EliteTagSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	p := rctx.Profile
	if p == nil || len(p.EliteTags) == 0 || limit <= 0 {
		return nil, nil
	}

	minRelevance := s.MinRelevance
	if minRelevance <= 0 {
		minRelevance = 2.0
	}

	// Iterate elite tags in weight order so the strongest preference
	// claims budget first.
	scores := make(map[string]float64)
	for _, tagID := range p.TopTags(0) {
		if _, elite := p.EliteTags[tagID]; !elite {
			continue
		}
		ids, err := s.Catalog.ItemsWithTag(ctx, tagID, minRelevance, limit)
		if err != nil {
			return nil, err
		}
		weight := p.TagWeights[tagID]
		for _, id := range ids {
			if _, rated := p.Rated[id]; rated {
				continue
			}
			if weight > scores[id] {
				scores[id] = weight
			}
		}
	}

	items := rankedItems(scores, limit, "elite_tag")
	for _, it := range items {
		it.PutLabel("recall_bypass", utils.Label{Value: "elite", Source: "recall"})
	}
	return items, nil
}
