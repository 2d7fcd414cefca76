package core

import (
	"context"
	"math/rand"
)

// SimilarRow is one precomputed item-item similarity entry.
type SimilarRow struct {
	Seed  string
	Item  string
	Score float64 // 0-1
}

// CoOccurRow is one precomputed co-rating entry: Score is the raw co-rating
// strength on a 0-10 scale, Users the number of distinct corroborating users.
type CoOccurRow struct {
	Seed  string
	Item  string
	Score float64
	Users int
}

// CatalogStats carries the corpus-level counts needed for IDF.
type CatalogStats struct {
	TotalItems    int
	TagItemCounts map[string]int // tag id -> number of items carrying it
}

// Catalog is the read-only accessor for catalog data. Every method takes a
// batch of ids and answers in one round trip; the pipeline never issues
// per-item lookups. Implementations live in the store package; the
// precomputed similarity and co-occurrence tables are refreshed
// out-of-band by the import pipeline.
type Catalog interface {
	// TagsForItems returns item id -> (tag id -> relevance in [0,3]).
	TagsForItems(ctx context.Context, ids []string) (map[string]map[string]float64, error)

	// CreatorsForItems returns item id -> creator ids for one kind
	// (developer, staff or seiyuu).
	CreatorsForItems(ctx context.Context, ids []string, kind CreatorKind) (map[string][]string, error)

	// TraitsForItems returns item id -> (trait id -> character count).
	TraitsForItems(ctx context.Context, ids []string) (map[string]map[string]int, error)

	// SimilarItems returns precomputed similarity rows for all seeds.
	SimilarItems(ctx context.Context, seeds []string) ([]SimilarRow, error)

	// CoOccurringItems returns precomputed co-rating rows for all seeds.
	CoOccurringItems(ctx context.Context, seeds []string) ([]CoOccurRow, error)

	// ItemMetadata returns item id -> metadata. Missing ids are simply
	// absent from the map, never an error.
	ItemMetadata(ctx context.Context, ids []string) (map[string]*VN, error)

	// Stats returns corpus-level counts for IDF normalization.
	Stats(ctx context.Context) (CatalogStats, error)

	// ItemsWithTag returns up to limit item ids carrying the tag at or
	// above minRelevance.
	ItemsWithTag(ctx context.Context, tagID string, minRelevance float64, limit int) ([]string, error)

	// RandomItems samples up to n item ids with catalog rating >= minRating,
	// using the supplied random source.
	RandomItems(ctx context.Context, n int, minRating float64, r *rand.Rand) ([]string, error)

	// TopRated returns up to limit item ids by descending catalog rating.
	TopRated(ctx context.Context, limit int) ([]string, error)

	// Names resolves display names for tag/trait/producer/staff ids.
	// Unknown ids are absent from the result.
	Names(ctx context.Context, ids []string) (map[string]string, error)
}
