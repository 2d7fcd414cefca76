package rank

import (
	"context"

	"go.uber.org/zap"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// coEntry is one co-rating edge from a favorite seed to a candidate.
type coEntry struct {
	score float64 // raw co-rating on the 0-10 scale
	users int
}

// Snapshot is the request-scoped, read-only view of everything the signal
// functions need for one candidate batch. It is filled by a fixed number
// of batched catalog calls (never per-item) and not touched afterwards.
type Snapshot struct {
	Tags     map[string]map[string]float64
	Creators map[core.CreatorKind]map[string][]string
	Traits   map[string]map[string]int
	Metas    map[string]*core.VN

	// simRows and coRows are keyed candidate -> favorite seed.
	simRows map[string]map[string]float64
	coRows  map[string]map[string]coEntry
}

// loadSnapshot batch-fetches candidate data. Optional enrichment failures
// (creators, traits, similarity, co-occurrence) degrade the affected
// signal to zero contribution; tag and metadata failures do too — the
// scorer never aborts the request over a flaky lookup.
func loadSnapshot(
	ctx context.Context,
	catalog core.Catalog,
	logger *zap.Logger,
	ids []string,
	seeds []string,
) *Snapshot {
	snap := &Snapshot{
		Creators: make(map[core.CreatorKind]map[string][]string),
		simRows:  make(map[string]map[string]float64),
		coRows:   make(map[string]map[string]coEntry),
	}

	var err error
	if snap.Tags, err = catalog.TagsForItems(ctx, ids); err != nil {
		logger.Warn("tag lookup degraded", zap.Error(err))
		snap.Tags = map[string]map[string]float64{}
	}
	for _, kind := range []core.CreatorKind{core.KindDeveloper, core.KindStaff, core.KindSeiyuu} {
		byItem, err := catalog.CreatorsForItems(ctx, ids, kind)
		if err != nil {
			logger.Warn("creator lookup degraded",
				zap.String("kind", string(kind)), zap.Error(err))
			byItem = map[string][]string{}
		}
		snap.Creators[kind] = byItem
	}
	if snap.Traits, err = catalog.TraitsForItems(ctx, ids); err != nil {
		logger.Warn("trait lookup degraded", zap.Error(err))
		snap.Traits = map[string]map[string]int{}
	}
	if snap.Metas, err = catalog.ItemMetadata(ctx, ids); err != nil {
		logger.Warn("metadata lookup degraded", zap.Error(err))
		snap.Metas = map[string]*core.VN{}
	}

	if len(seeds) > 0 {
		inPool := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			inPool[id] = struct{}{}
		}

		simRows, err := catalog.SimilarItems(ctx, seeds)
		if err != nil {
			logger.Warn("similarity lookup degraded", zap.Error(err))
		}
		for _, row := range simRows {
			if _, ok := inPool[row.Item]; !ok {
				continue
			}
			if snap.simRows[row.Item] == nil {
				snap.simRows[row.Item] = make(map[string]float64)
			}
			snap.simRows[row.Item][row.Seed] = row.Score
		}

		coRows, err := catalog.CoOccurringItems(ctx, seeds)
		if err != nil {
			logger.Warn("co-occurrence lookup degraded", zap.Error(err))
		}
		for _, row := range coRows {
			if _, ok := inPool[row.Item]; !ok {
				continue
			}
			if snap.coRows[row.Item] == nil {
				snap.coRows[row.Item] = make(map[string]coEntry)
			}
			snap.coRows[row.Item][row.Seed] = coEntry{score: row.Score, users: row.Users}
		}
	}

	return snap
}
