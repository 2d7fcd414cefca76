package core

import "sort"

// CreatorKind distinguishes the per-kind creator affinity maps.
type CreatorKind string

const (
	KindDeveloper CreatorKind = "developer"
	KindStaff     CreatorKind = "staff"
	KindSeiyuu    CreatorKind = "seiyuu"
	KindTrait     CreatorKind = "trait"
)

// CreatorKinds lists the kinds in their scoring order.
var CreatorKinds = []CreatorKind{KindDeveloper, KindStaff, KindSeiyuu, KindTrait}

// RatedItem is one of the user's rated items on the internal 0-10 scale.
type RatedItem struct {
	ID    string
	Score float64 // 0-10
}

// UserProfile is the weighted preference profile derived from a user's
// rating history. It is built once per request and read-only afterwards;
// every stage downstream of the profile builder treats it as immutable.
type UserProfile struct {
	// TagWeights is the ranking-math map: IDF- and elite-tier-boosted
	// absolute preference strength per tag, in score space.
	TagWeights map[string]float64

	// TagDisplay, TagCounts and TagIDF parallel TagWeights but are used
	// only for explanation and normalization, never for ranking math.
	TagDisplay map[string]float64
	TagCounts  map[string]int
	TagIDF     map[string]float64

	// CreatorDeltas holds, per kind, the Bayesian-weighted score minus
	// OverallAverage. Positive means liked more than the user's average.
	CreatorDeltas map[CreatorKind]map[string]float64

	// HighRated are items scored >= 8.5/10, sorted descending by score.
	// They seed the similarity and co-occurrence lookups.
	HighRated []RatedItem

	// Rated maps every rated item id to its 0-10 score.
	Rated map[string]float64

	// OverallAverage is the arithmetic mean of all scores on the 0-10
	// scale; it is the prior for Bayesian shrinkage.
	OverallAverage float64

	// EliteTags are the user's top tags by weighted score. They bypass
	// minimum-match thresholds in recall and feed the best-match bonus
	// in scoring.
	EliteTags map[string]struct{}
}

// TopTags returns up to n tag ids ordered by descending weight.
func (p *UserProfile) TopTags(n int) []string {
	return topKeysByWeight(p.TagWeights, n)
}

// TopFavorites returns up to n high-rated items (already sorted descending).
func (p *UserProfile) TopFavorites(n int) []RatedItem {
	if n <= 0 || n >= len(p.HighRated) {
		return p.HighRated
	}
	return p.HighRated[:n]
}

func topKeysByWeight(m map[string]float64, n int) []string {
	type kw struct {
		k string
		w float64
	}
	all := make([]kw, 0, len(m))
	for k, w := range m {
		all = append(all, kw{k, w})
	}
	// ties broken by key so map iteration order never leaks into results
	sort.Slice(all, func(i, j int) bool {
		if all[i].w != all[j].w {
			return all[i].w > all[j].w
		}
		return all[i].k < all[j].k
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.k
	}
	return out
}
