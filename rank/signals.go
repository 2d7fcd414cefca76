package rank

import "github.com/drinosaret/vn-club-resources-sub000/core"

// The eight signal functions. Each is pure over (profile, candidate id,
// snapshot), returns a value in [0,1], and resolves every zero denominator
// to "contributes 0" — never NaN, never Inf.

const (
	tagSumBlend     = 0.7
	tagBestBlend    = 0.3
	tagMatchBonus   = 0.02 // per matched tag
	tagBonusCap     = 0.1
	maxRelevance    = 3.0
	topTagsForNorm  = 15
	blendMaxWeight  = 0.6
	blendMeanWeight = 0.4
	multiMatchStep  = 0.1
	multiMatchCap   = 1.3
	coUsersForFull  = 50.0
	traitStackStep  = 0.3
	traitStackCap   = 2.0
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// tagSignal blends a normalized weighted-sum component with a best-elite-
// match component, plus a small match-count bonus.
func tagSignal(p *core.UserProfile, id string, snap *Snapshot) float64 {
	tags := snap.Tags[id]
	if len(tags) == 0 || len(p.TagWeights) == 0 {
		return 0
	}

	var maxPossible float64
	for _, tagID := range p.TopTags(topTagsForNorm) {
		maxPossible += p.TagWeights[tagID] * maxRelevance
	}
	if maxPossible <= 0 {
		return 0
	}

	topWeight := p.TagWeights[p.TopTags(1)[0]]

	var sum, best float64
	matches := 0
	for tagID, relevance := range tags {
		weight, ok := p.TagWeights[tagID]
		if !ok {
			continue
		}
		matches++
		contribution := weight * relevance
		sum += contribution

		if _, elite := p.EliteTags[tagID]; elite && topWeight > 0 {
			if b := contribution / (topWeight * maxRelevance); b > best {
				best = b
			}
		}
	}
	if matches == 0 {
		return 0
	}

	sumComponent := clamp01(sum / maxPossible)
	bestComponent := clamp01(best)

	bonus := tagMatchBonus * float64(matches)
	if bonus > tagBonusCap {
		bonus = tagBonusCap
	}

	return clamp01(tagSumBlend*sumComponent + tagBestBlend*bestComponent + bonus)
}

// blendWeighted combines per-favorite weighted scores: 0.6·max + 0.4·mean,
// times a multi-match bonus capped at 1.3.
func blendWeighted(weighted []float64) float64 {
	if len(weighted) == 0 {
		return 0
	}
	var max, sum float64
	for _, w := range weighted {
		if w > max {
			max = w
		}
		sum += w
	}
	mean := sum / float64(len(weighted))

	bonus := 1.0 + multiMatchStep*float64(len(weighted)-1)
	if bonus > multiMatchCap {
		bonus = multiMatchCap
	}
	return clamp01((blendMaxWeight*max + blendMeanWeight*mean) * bonus)
}

// similarSignal: "similar to your favorites" — precomputed similarity rows
// weighted by each favorite's own rating.
func similarSignal(p *core.UserProfile, id string, snap *Snapshot) float64 {
	rows := snap.simRows[id]
	if len(rows) == 0 {
		return 0
	}

	weighted := make([]float64, 0, len(rows))
	for _, fav := range p.TopFavorites(20) {
		sim, ok := rows[fav.ID]
		if !ok {
			continue
		}
		weighted = append(weighted, sim*(fav.Score/10.0))
	}
	return blendWeighted(weighted)
}

// coOccurSignal: "users also read" — raw co-rating scores normalized by 10,
// scaled by a corroborating-user confidence factor.
func coOccurSignal(p *core.UserProfile, id string, snap *Snapshot) float64 {
	rows := snap.coRows[id]
	if len(rows) == 0 {
		return 0
	}

	weighted := make([]float64, 0, len(rows))
	totalUsers := 0
	for _, fav := range p.TopFavorites(20) {
		entry, ok := rows[fav.ID]
		if !ok {
			continue
		}
		weighted = append(weighted, (entry.score/10.0)*(fav.Score/10.0))
		totalUsers += entry.users
	}
	if len(weighted) == 0 {
		return 0
	}

	confidence := float64(totalUsers) / coUsersForFull
	if confidence > 1 {
		confidence = 1
	}
	return clamp01(blendWeighted(weighted) * confidence)
}

// creatorSignal sums normalized affinities over creators shared between
// the profile and the candidate, for one kind.
func creatorSignal(p *core.UserProfile, id string, snap *Snapshot, kind core.CreatorKind) float64 {
	deltas := p.CreatorDeltas[kind]
	creators := snap.Creators[kind][id]
	if len(deltas) == 0 || len(creators) == 0 {
		return 0
	}

	maxObserved := maxWeightedScore(deltas, p.OverallAverage)
	if maxObserved <= 0 {
		return 0
	}

	var sum float64
	for _, creatorID := range creators {
		delta, ok := deltas[creatorID]
		if !ok {
			continue
		}
		sum += (delta + p.OverallAverage) / maxObserved
	}
	return clamp01(sum)
}

// traitSignal is the creator shape with a stacking bonus for items where
// multiple characters carry a favored trait.
func traitSignal(p *core.UserProfile, id string, snap *Snapshot) float64 {
	deltas := p.CreatorDeltas[core.KindTrait]
	traits := snap.Traits[id]
	if len(deltas) == 0 || len(traits) == 0 {
		return 0
	}

	maxObserved := maxWeightedScore(deltas, p.OverallAverage)
	if maxObserved <= 0 {
		return 0
	}

	var sum float64
	for traitID, charCount := range traits {
		delta, ok := deltas[traitID]
		if !ok {
			continue
		}
		stack := 1.0 + traitStackStep*float64(charCount-1)
		if stack > traitStackCap {
			stack = traitStackCap
		}
		sum += (delta + p.OverallAverage) / maxObserved * stack
	}
	return clamp01(sum)
}

// qualitySignal maps the 5-10 catalog rating range linearly to [0,1];
// missing or sub-5 ratings contribute zero.
func qualitySignal(_ *core.UserProfile, id string, snap *Snapshot) float64 {
	meta := snap.Metas[id]
	if meta == nil || meta.Rating <= 0 {
		return 0
	}
	return clamp01((meta.Rating - 5.0) / 5.0)
}

// maxWeightedScore is the largest weighted affinity (delta restored to
// score space) in a delta map; the creator/trait normalizer.
func maxWeightedScore(deltas map[string]float64, overall float64) float64 {
	var max float64
	for _, delta := range deltas {
		if w := delta + overall; w > max {
			max = w
		}
	}
	return max
}
