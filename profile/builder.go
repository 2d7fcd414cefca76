// Package profile derives a weighted user-preference profile from a raw
// rating history: Bayesian-damped tag/creator/trait affinities, IDF-boosted
// and elite-tier-scaled tag weights, and the high-rated seed list used by
// the similarity and co-occurrence recall sources.
package profile

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Defaults for the damping constants. They are fields on Builder so tests
// and operators can tune them, but the zero Builder uses these.
const (
	DefaultPriorWeight        = 3.0
	DefaultMinConfidenceCount = 5.0
	DefaultHighRatedThreshold = 8.5
	DefaultIDFFloor           = 0.1
)

// eliteTiers are the multiplicative boosts applied to the user's strongest
// tags after IDF weighting: ranks 0-4, 5-9 and 10-19.
var eliteTiers = []struct {
	upto int
	mult float64
}{
	{5, 4.0},
	{10, 2.5},
	{20, 1.6},
}

// eliteTagCount is how many top-ranked tags gain bypass privileges in
// recall and the best-match bonus in scoring.
const eliteTagCount = 10

// Builder turns a rating history into a core.UserProfile. The profile is
// derived once per request and never mutated afterwards.
type Builder struct {
	Catalog core.Catalog

	// PriorWeight is the Bayesian shrinkage prior weight (default 3).
	PriorWeight float64

	// MinConfidenceCount is the count at which an affinity reaches full
	// confidence (default 5).
	MinConfidenceCount float64

	// HighRatedThreshold is the 0-10 score at or above which an item
	// seeds similarity lookups (default 8.5).
	HighRatedThreshold float64

	Logger *zap.Logger
}

func (b *Builder) priorWeight() float64 {
	if b.PriorWeight > 0 {
		return b.PriorWeight
	}
	return DefaultPriorWeight
}

func (b *Builder) minConfidence() float64 {
	if b.MinConfidenceCount > 0 {
		return b.MinConfidenceCount
	}
	return DefaultMinConfidenceCount
}

func (b *Builder) highRatedThreshold() float64 {
	if b.HighRatedThreshold > 0 {
		return b.HighRatedThreshold
	}
	return DefaultHighRatedThreshold
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}

// Build derives the profile. An empty rating list yields (nil, nil): "no
// profile" is a normal outcome, not an error.
func (b *Builder) Build(ctx context.Context, ratings []core.Rating) (*core.UserProfile, error) {
	if len(ratings) == 0 {
		return nil, nil
	}

	p := &core.UserProfile{
		TagWeights:    make(map[string]float64),
		TagDisplay:    make(map[string]float64),
		TagCounts:     make(map[string]int),
		TagIDF:        make(map[string]float64),
		CreatorDeltas: make(map[core.CreatorKind]map[string]float64),
		Rated:         make(map[string]float64, len(ratings)),
	}

	ids := make([]string, 0, len(ratings))
	var sum float64
	for _, r := range ratings {
		score := float64(r.Score) / 10.0 // 0-100 vote scale to 0-10
		p.Rated[r.ItemID] = score
		ids = append(ids, r.ItemID)
		sum += score
		if score >= b.highRatedThreshold() {
			p.HighRated = append(p.HighRated, core.RatedItem{ID: r.ItemID, Score: score})
		}
	}
	p.OverallAverage = sum / float64(len(ratings))
	sort.Slice(p.HighRated, func(i, j int) bool {
		if p.HighRated[i].Score != p.HighRated[j].Score {
			return p.HighRated[i].Score > p.HighRated[j].Score
		}
		return p.HighRated[i].ID < p.HighRated[j].ID
	})

	if err := b.buildTagWeights(ctx, p, ids); err != nil {
		return nil, err
	}
	b.buildCreatorDeltas(ctx, p, ids)

	return p, nil
}

// buildTagWeights computes the ranking-math tag map: Bayesian-damped,
// confidence-weighted, IDF-boosted, elite-tier-scaled. Tag lookups are
// essential; their failure fails the profile.
func (b *Builder) buildTagWeights(ctx context.Context, p *core.UserProfile, ids []string) error {
	tagsByItem, err := b.Catalog.TagsForItems(ctx, ids)
	if err != nil {
		return core.NewDomainError(core.ModuleProfile, core.ErrorCodeUnavailable,
			"profile: tag lookup failed: "+err.Error())
	}

	counts := make(map[string]int)
	sums := make(map[string]float64)
	for itemID, tags := range tagsByItem {
		score, ok := p.Rated[itemID]
		if !ok {
			continue
		}
		for tagID := range tags {
			counts[tagID]++
			sums[tagID] += score
		}
	}

	stats, err := b.Catalog.Stats(ctx)
	if err != nil {
		// IDF degrades to neutral; the profile still works.
		b.logger().Warn("catalog stats unavailable, idf disabled", zap.Error(err))
		stats = core.CatalogStats{}
	}

	for tagID, count := range counts {
		mean := sums[tagID] / float64(count)
		weighted := b.damp(count, mean, p.OverallAverage)

		p.TagCounts[tagID] = count
		p.TagDisplay[tagID] = weighted

		idf := 1.0
		if stats.TotalItems > 0 {
			idf = math.Log(float64(stats.TotalItems) / float64(stats.TagItemCounts[tagID]+1))
			if idf < DefaultIDFFloor {
				idf = DefaultIDFFloor
			}
		}
		p.TagIDF[tagID] = idf
		p.TagWeights[tagID] = weighted * idf
	}

	b.applyEliteTiers(p)
	return nil
}

// applyEliteTiers boosts the user's strongest tags multiplicatively and
// records the elite set used for threshold bypasses downstream.
func (b *Builder) applyEliteTiers(p *core.UserProfile) {
	ranked := p.TopTags(0)
	p.EliteTags = make(map[string]struct{}, eliteTagCount)

	for rank, tagID := range ranked {
		for _, tier := range eliteTiers {
			if rank < tier.upto {
				p.TagWeights[tagID] *= tier.mult
				break
			}
		}
		if rank < eliteTagCount {
			p.EliteTags[tagID] = struct{}{}
		}
	}
}

// buildCreatorDeltas computes the per-kind creator and trait affinity
// deltas. These lookups are optional enrichment: a failing kind degrades
// to an empty map and its signal contributes zero.
func (b *Builder) buildCreatorDeltas(ctx context.Context, p *core.UserProfile, ids []string) {
	for _, kind := range []core.CreatorKind{core.KindDeveloper, core.KindStaff, core.KindSeiyuu} {
		byItem, err := b.Catalog.CreatorsForItems(ctx, ids, kind)
		if err != nil {
			b.logger().Warn("creator lookup degraded",
				zap.String("kind", string(kind)), zap.Error(err))
			p.CreatorDeltas[kind] = map[string]float64{}
			continue
		}

		counts := make(map[string]int)
		sums := make(map[string]float64)
		for itemID, creators := range byItem {
			score, ok := p.Rated[itemID]
			if !ok {
				continue
			}
			for _, creatorID := range creators {
				counts[creatorID]++
				sums[creatorID] += score
			}
		}
		p.CreatorDeltas[kind] = b.deltasFrom(counts, sums, p.OverallAverage)
	}

	traitsByItem, err := b.Catalog.TraitsForItems(ctx, ids)
	if err != nil {
		b.logger().Warn("trait lookup degraded", zap.Error(err))
		p.CreatorDeltas[core.KindTrait] = map[string]float64{}
		return
	}
	counts := make(map[string]int)
	sums := make(map[string]float64)
	for itemID, traits := range traitsByItem {
		score, ok := p.Rated[itemID]
		if !ok {
			continue
		}
		for traitID := range traits {
			counts[traitID]++
			sums[traitID] += score
		}
	}
	p.CreatorDeltas[core.KindTrait] = b.deltasFrom(counts, sums, p.OverallAverage)
}

func (b *Builder) deltasFrom(counts map[string]int, sums map[string]float64, overall float64) map[string]float64 {
	deltas := make(map[string]float64, len(counts))
	for id, count := range counts {
		mean := sums[id] / float64(count)
		deltas[id] = b.damp(count, mean, overall) - overall
	}
	return deltas
}

// damp applies Bayesian shrinkage toward the user's overall average, then
// confidence weighting: low-count affinities are both pulled toward the
// prior and scaled down.
func (b *Builder) damp(count int, mean, overall float64) float64 {
	prior := b.priorWeight()
	n := float64(count)
	bayesian := (n*mean + prior*overall) / (n + prior)

	confidence := n / b.minConfidence()
	if confidence > 1 {
		confidence = 1
	}
	return bayesian * confidence
}
