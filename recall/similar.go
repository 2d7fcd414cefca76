package recall

import (
	"context"
	"sort"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// SimilarSource is the primary candidate source: precomputed item-item
// similarity rows seeded by the user's high-rated items, ranked by
// similarity. When the precomputed table yields fewer than half the
// budget, it falls back to live tag-overlap matching.
type SimilarSource struct {
	Catalog core.Catalog

	// MaxSeeds bounds how many favorites seed the lookup (default 20).
	MaxSeeds int

	// FallbackMinShared is the minimum shared-tag count for the live
	// tag-overlap fallback (default 3).
	FallbackMinShared int

	// FallbackTags is how many of the user's top tags drive the live
	// fallback candidate gather (default 10).
	FallbackTags int
}

func (s *SimilarSource) Name() string { return "recall.similar" }

func (s *SimilarSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	p := rctx.Profile
	if p == nil || len(p.HighRated) == 0 || limit <= 0 {
		return nil, nil
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

	rows, err := s.Catalog.SimilarItems(ctx, seeds)
	if err != nil {
		return nil, err
	}

	// Per candidate keep the strongest similarity to any seed.
	best := make(map[string]float64)
	for _, row := range rows {
		if _, rated := p.Rated[row.Item]; rated {
			continue
		}
		if row.Score > best[row.Item] {
			best[row.Item] = row.Score
		}
	}

	out := rankedItems(best, limit, "similar")

	// The precomputed table can be sparse for niche favorites; below half
	// the budget, top up with live tag-overlap matches.
	if len(out) < limit/2 {
		extra, err := s.tagOverlap(ctx, rctx, limit-len(out), best)
		if err == nil {
			out = append(out, extra...)
		}
	}
	return out, nil
}

// tagOverlap is the live fallback: gather items carrying the user's top
// tags, then score them by IDF-scaled weighted tag intersection with the
// profile, requiring a minimum number of shared tags.
func (s *SimilarSource) tagOverlap(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
	already map[string]float64,
) ([]*core.Item, error) {
	p := rctx.Profile

	fallbackTags := s.FallbackTags
	if fallbackTags <= 0 {
		fallbackTags = 10
	}
	minShared := s.FallbackMinShared
	if minShared <= 0 {
		minShared = 3
	}

	candidateSet := make(map[string]struct{})
	for _, tagID := range p.TopTags(fallbackTags) {
		ids, err := s.Catalog.ItemsWithTag(ctx, tagID, 1.0, limit*4)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, rated := p.Rated[id]; rated {
				continue
			}
			if _, ok := already[id]; ok {
				continue
			}
			candidateSet[id] = struct{}{}
		}
	}
	if len(candidateSet) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidateSet))
	for id := range candidateSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tagsByItem, err := s.Catalog.TagsForItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(tagsByItem))
	for id, tags := range tagsByItem {
		shared := 0
		var overlap float64
		for tagID, relevance := range tags {
			weight, ok := p.TagWeights[tagID]
			if !ok {
				continue
			}
			shared++
			overlap += weight * relevance * p.TagIDF[tagID]
		}
		if shared >= minShared && overlap > 0 {
			scores[id] = overlap
		}
	}

	items := rankedItems(scores, limit, "similar")
	for _, it := range items {
		it.PutLabel("recall_fallback", utils.Label{Value: "tag_overlap", Source: "recall"})
	}
	return items, nil
}

// rankedItems turns a score map into labeled items sorted by descending
// score, ties broken by id.
func rankedItems(scores map[string]float64, limit int, source string) []*core.Item {
	type scored struct {
		id    string
		score float64
	}
	all := make([]scored, 0, len(scores))
	for id, sc := range scores {
		all = append(all, scored{id, sc})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]*core.Item, 0, len(all))
	for _, s := range all {
		it := core.NewItem(s.id)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		out = append(out, it)
	}
	return out
}
