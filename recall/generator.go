package recall

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
)

// Budgeted pairs a source with its share of the candidate pool.
type Budgeted struct {
	Source Source

	// Share is a fraction of the pool size (similarity 0.8, explore 0.2).
	// Ignored when Extra is set.
	Share float64

	// Extra is an absolute cap on top of the pool (elite bypass 50,
	// co-occurrence bypass 100).
	Extra int
}

func (b Budgeted) limit(poolSize int) int {
	if b.Extra > 0 {
		return b.Extra
	}
	return int(float64(poolSize) * b.Share)
}

// Generator is the candidate-generation node. Sources run concurrently,
// then merge in declared order under their budgets with a running
// exclusion set: an item claimed by an earlier source never recurs, and
// the caller's exclusion set is honored from the start.
//
// A failing source degrades to an empty contribution; the request
// continues on the remaining sources.
type Generator struct {
	Sources []Budgeted

	// Fallback is consulted only when every source yields nothing.
	Fallback Source

	// Timeout bounds each source's catalog I/O (0 means none).
	Timeout time.Duration

	Logger *zap.Logger
}

// DefaultGenerator wires the five standard sources against a catalog.
func DefaultGenerator(catalog core.Catalog) *Generator {
	return &Generator{
		Sources: []Budgeted{
			{Source: &SimilarSource{Catalog: catalog}, Share: 0.8},
			{Source: &ExploreSource{Catalog: catalog}, Share: 0.2},
			{Source: &EliteTagSource{Catalog: catalog}, Extra: 50},
			{Source: &CoOccurSource{Catalog: catalog}, Extra: 100},
		},
		Fallback: &QualitySource{Catalog: catalog},
	}
}

func (n *Generator) Name() string        { return "recall.generator" }
func (n *Generator) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Generator) logger() *zap.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return zap.NewNop()
}

func (n *Generator) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 || rctx == nil {
		return nil, nil
	}

	poolSize := rctx.PoolSize
	if poolSize <= 0 {
		poolSize = 200
	}

	results := make([][]*core.Item, len(n.Sources))
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range n.Sources {
		idx, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := s.Source.Recall(recallCtx, rctx, s.limit(poolSize))
			if err != nil {
				// Degrade this source, keep the request alive.
				n.logger().Warn("recall source degraded",
					zap.String("source", s.Source.Name()), zap.Error(err))
				return nil
			}

			mu.Lock()
			results[idx] = items
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := n.merge(rctx, results, poolSize)

	if len(out) == 0 && n.Fallback != nil {
		items, err := n.Fallback.Recall(ctx, rctx, poolSize)
		if err != nil {
			return nil, err
		}
		out = n.merge(rctx, [][]*core.Item{items}, poolSize)
	}
	return out, nil
}

// merge consumes source results in declared order under a growing
// exclusion set. Budgets apply per source, after exclusion.
func (n *Generator) merge(rctx *core.RecommendContext, results [][]*core.Item, poolSize int) []*core.Item {
	taken := make(map[string]struct{}, poolSize)
	out := make([]*core.Item, 0, poolSize)

	for i, items := range results {
		budget := poolSize
		if i < len(n.Sources) && len(results) == len(n.Sources) {
			budget = n.Sources[i].limit(poolSize)
		}
		kept := 0
		for _, it := range items {
			if kept >= budget {
				break
			}
			if it == nil {
				continue
			}
			if rctx.Excluded(it.ID) {
				continue
			}
			if _, ok := taken[it.ID]; ok {
				continue
			}
			taken[it.ID] = struct{}{}
			out = append(out, it)
			kept++
		}
	}
	return out
}
