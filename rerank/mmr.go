package rerank

import (
	"context"
	"math"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// MMR is the diversity rerank node (Maximal Marginal Relevance). It
// greedily reorders the top-scored candidates, trading relevance against
// redundancy with what was already picked:
//
//	mmr = (1-λ)·relevance + λ·(1 - max tag-cosine to the last window picks)
//
// Only the most recent window picks are compared (not everything selected
// so far), bounding each step to O(remaining × window). A pool already at
// or under Limit passes through untouched — reordering nothing is cheaper
// than proving it harmless.
type MMR struct {
	// Limit is the number of items to select (required).
	Limit int

	// Lambda is the diversity weight (default 0.3).
	Lambda float64

	// Window is how many recent picks to compare against (default 10).
	Window int

	// MaxRedundancy skips candidates whose tag similarity to a recent
	// pick exceeds this, unless nothing else remains (default 0.8).
	MaxRedundancy float64

	// PoolFactor caps the considered pool at PoolFactor×Limit
	// (default 2).
	PoolFactor int
}

func (n *MMR) Name() string        { return "rerank.mmr" }
func (n *MMR) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *MMR) lambda() float64 {
	if n.Lambda > 0 {
		return n.Lambda
	}
	return 0.3
}

func (n *MMR) window() int {
	if n.Window > 0 {
		return n.Window
	}
	return 10
}

func (n *MMR) maxRedundancy() float64 {
	if n.MaxRedundancy > 0 {
		return n.MaxRedundancy
	}
	return 0.8
}

func (n *MMR) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.Limit
	if limit <= 0 || len(items) <= limit {
		return truncate(items, limit), nil
	}

	poolFactor := n.PoolFactor
	if poolFactor <= 0 {
		poolFactor = 2
	}
	pool := items
	if maxPool := limit * poolFactor; len(pool) > maxPool {
		pool = pool[:maxPool]
	}

	topScore := pool[0].Score
	relevance := func(it *core.Item) float64 {
		if topScore <= 0 {
			return 0
		}
		return it.Score / topScore
	}

	vectors := make([]map[string]float64, len(pool))
	for i, it := range pool {
		vectors[i] = tagVector(it)
	}

	selected := make([]*core.Item, 0, limit)
	selectedVectors := make([]map[string]float64, 0, limit)
	used := make([]bool, len(pool))

	// The first pick is always the single highest-scored candidate.
	selected = append(selected, pool[0])
	selectedVectors = append(selectedVectors, vectors[0])
	used[0] = true

	lambda := n.lambda()
	window := n.window()
	maxRedundancy := n.maxRedundancy()

	for len(selected) < limit {
		bestIdx, fallbackIdx := -1, -1
		bestMMR, fallbackMMR := math.Inf(-1), math.Inf(-1)

		for i, it := range pool {
			if used[i] {
				continue
			}

			redundancy := maxSimilarityToRecent(vectors[i], selectedVectors, window)
			mmr := (1-lambda)*relevance(it) + lambda*(1-redundancy)

			if redundancy <= maxRedundancy {
				if mmr > bestMMR {
					bestMMR, bestIdx = mmr, i
				}
			} else if mmr > fallbackMMR {
				fallbackMMR, fallbackIdx = mmr, i
			}
		}

		idx := bestIdx
		if idx < 0 {
			// Everything left is redundant; take the best of it rather
			// than returning short.
			idx = fallbackIdx
		}
		if idx < 0 {
			break
		}

		pool[idx].PutLabel("rerank", utils.Label{Value: "mmr", Source: "rerank"})
		selected = append(selected, pool[idx])
		selectedVectors = append(selectedVectors, vectors[idx])
		used[idx] = true
	}

	return selected, nil
}

// maxSimilarityToRecent compares a candidate against only the most recent
// window picks.
func maxSimilarityToRecent(v map[string]float64, selected []map[string]float64, window int) float64 {
	start := 0
	if len(selected) > window {
		start = len(selected) - window
	}
	var max float64
	for _, sv := range selected[start:] {
		if sim := cosine(v, sv); sim > max {
			max = sim
		}
	}
	return max
}

// cosine computes tag-vector cosine similarity; empty vectors similarity 0.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tagVector(it *core.Item) map[string]float64 {
	if it == nil || it.Meta == nil {
		return nil
	}
	if tags, ok := it.Meta["tags"].(map[string]float64); ok {
		return tags
	}
	return nil
}

func truncate(items []*core.Item, limit int) []*core.Item {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}
