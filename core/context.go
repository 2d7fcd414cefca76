package core

import "math/rand"

// RecommendContext carries the request-scoped state threaded through every
// pipeline node. It is built once per request by the engine; nodes read
// from it but never mutate the profile.
type RecommendContext struct {
	// Profile is the user's derived preference profile. Nil means the
	// user has no ratings; recall then yields nothing and the pipeline
	// returns an empty result.
	Profile *UserProfile

	// Exclude holds item ids that must never appear in the output
	// (typically the user's own list).
	Exclude map[string]struct{}

	// Limit is the number of results the caller wants.
	Limit int

	// PoolSize is the recall target N; sources take budgeted shares of it.
	PoolSize int

	// Filters are the caller's hard constraints, applied as a final
	// intersection over the candidate pool.
	Filters *HardFilters

	// Rand is the random source for the exploration recall source.
	// Injectable so identical requests with a fixed seed are reproducible.
	Rand *rand.Rand

	// Params carries request-level extras for custom nodes (expression
	// filters and the like).
	Params map[string]any
}

// Excluded reports whether an item id is in the exclusion set.
func (rctx *RecommendContext) Excluded(id string) bool {
	if rctx.Exclude == nil {
		return false
	}
	_, ok := rctx.Exclude[id]
	return ok
}
