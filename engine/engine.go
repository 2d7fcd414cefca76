// Package engine is the exposed surface of the recommendation core:
// Recommend assembles and runs the full pipeline for one user, ExplainOne
// scores and explains a single already-surfaced item. The engine owns the
// cross-request concerns — the admission gate bounding concurrent heavy
// pipelines, the per-request wall-clock timeout, logging and metrics.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/explain"
	"github.com/drinosaret/vn-club-resources-sub000/filter"
	"github.com/drinosaret/vn-club-resources-sub000/metrics"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
	"github.com/drinosaret/vn-club-resources-sub000/profile"
	"github.com/drinosaret/vn-club-resources-sub000/rank"
	"github.com/drinosaret/vn-club-resources-sub000/recall"
	"github.com/drinosaret/vn-club-resources-sub000/rerank"
)

const (
	// DefaultLimit is the result count when the caller passes none.
	DefaultLimit = 10

	// DefaultPoolSize is the recall target N.
	DefaultPoolSize = 200

	// DefaultTimeout is the wall-clock bound for one request.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxConcurrent is the admission-gate width.
	DefaultMaxConcurrent = 8
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger (default no-op).
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics sets the metrics sink (default none).
func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithTimeout overrides the per-request wall-clock timeout.
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }

// WithMaxConcurrent overrides the admission-gate width.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.gate = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithPoolSize overrides the recall target.
func WithPoolSize(n int) Option { return func(e *Engine) { e.poolSize = n } }

// WithWeights overrides the signal combination weights.
func WithWeights(w rank.Weights) Option { return func(e *Engine) { e.weights = w } }

// WithSeed pins the exploration random source for reproducible output.
// Without it every request gets a fresh time-derived seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = func() int64 { return seed }
	}
}

// WithExtraFilters appends caller filters (e.g. a CEL expression filter)
// to the per-request filter chain.
func WithExtraFilters(filters ...filter.Filter) Option {
	return func(e *Engine) { e.extraFilters = append(e.extraFilters, filters...) }
}

// Engine runs recommendation requests against one catalog.
type Engine struct {
	catalog  core.Catalog
	builder  *profile.Builder
	weights  rank.Weights
	poolSize int
	timeout  time.Duration

	// gate bounds concurrent heavy pipelines system-wide. Waiters queue
	// FIFO; there is no priority.
	gate *semaphore.Weighted

	seed         func() int64
	extraFilters []filter.Filter

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an engine over a catalog.
func New(catalog core.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		weights:  rank.DefaultWeights(),
		poolSize: DefaultPoolSize,
		timeout:  DefaultTimeout,
		gate:     semaphore.NewWeighted(DefaultMaxConcurrent),
		seed:     func() int64 { return time.Now().UnixNano() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.builder = &profile.Builder{Catalog: catalog, Logger: e.logger}
	return e
}

// Recommend returns up to limit ranked, diversified recommendations with
// explanations. An empty rating history yields an empty slice, not an
// error. Exceeding the wall-clock timeout yields a retryable TIMEOUT
// domain error.
func (e *Engine) Recommend(
	ctx context.Context,
	ratings []core.Rating,
	exclude []string,
	limit int,
	filters *core.HardFilters,
) ([]*core.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ratings) == 0 {
		e.metrics.CountRequest("empty")
		return []*core.Recommendation{}, nil
	}

	release, err := e.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	recs, err := e.recommend(ctx, ratings, exclude, limit, filters)
	if err != nil {
		if wrapped := e.mapTimeout(ctx, err); wrapped != nil {
			return nil, wrapped
		}
		e.metrics.CountRequest("error")
		return nil, err
	}
	e.metrics.CountRequest("ok")
	return recs, nil
}

func (e *Engine) recommend(
	ctx context.Context,
	ratings []core.Rating,
	exclude []string,
	limit int,
	filters *core.HardFilters,
) ([]*core.Recommendation, error) {
	start := time.Now()
	p, err := e.builder.Build(ctx, ratings)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveStage("profile", time.Since(start))
	if p == nil {
		return []*core.Recommendation{}, nil
	}

	rctx := e.requestContext(p, exclude, limit, filters)

	pipe := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			recall.DefaultGenerator(e.catalog),
			&filter.Node{Filters: append([]filter.Filter{&filter.Exclude{}}, e.extraFilters...)},
			&filter.Hard{Catalog: e.catalog},
			&rank.Scorer{Catalog: e.catalog, Weights: e.weights, Logger: e.logger},
			&rerank.MMR{Limit: limit},
		},
	}

	items, err := e.runPipeline(ctx, pipe, rctx)
	if err != nil {
		return nil, err
	}

	// Explanations run strictly on the final slice: this boundary is the
	// load-bearing performance property of the whole request.
	explainStart := time.Now()
	builder := &explain.Builder{Catalog: e.catalog, Logger: e.logger}
	recs, err := builder.Build(ctx, p, items)
	e.metrics.ObserveStage("explain", time.Since(explainStart))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("recommendation served",
		zap.Int("ratings", len(ratings)),
		zap.Int("results", len(recs)),
		zap.Duration("took", time.Since(start)))
	return recs, nil
}

// ExplainOne scores and explains a single already-surfaced item, reusing
// the profile and scoring stages but skipping candidate generation and
// diversity reranking.
func (e *Engine) ExplainOne(
	ctx context.Context,
	ratings []core.Rating,
	itemID string,
) (*core.Recommendation, error) {
	if itemID == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: item id required")
	}
	if len(ratings) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: rating history required")
	}

	release, err := e.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	p, err := e.builder.Build(ctx, ratings)
	if err != nil {
		return nil, e.orTimeout(ctx, err)
	}

	metas, err := e.catalog.ItemMetadata(ctx, []string{itemID})
	if err != nil {
		return nil, e.orTimeout(ctx, err)
	}
	if metas[itemID] == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound,
			"engine: unknown item "+itemID)
	}

	rctx := e.requestContext(p, nil, 1, nil)
	scorer := &rank.Scorer{Catalog: e.catalog, Weights: e.weights, Logger: e.logger}
	items, err := scorer.Process(ctx, rctx, []*core.Item{core.NewItem(itemID)})
	if err != nil {
		return nil, e.orTimeout(ctx, err)
	}

	builder := &explain.Builder{Catalog: e.catalog, Logger: e.logger}
	recs, err := builder.Build(ctx, p, items)
	if err != nil {
		return nil, e.orTimeout(ctx, err)
	}
	if len(recs) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound,
			"engine: unknown item "+itemID)
	}
	return recs[0], nil
}

func (e *Engine) requestContext(p *core.UserProfile, exclude []string, limit int, filters *core.HardFilters) *core.RecommendContext {
	excludeSet := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excludeSet[id] = struct{}{}
	}
	return &core.RecommendContext{
		Profile:  p,
		Exclude:  excludeSet,
		Limit:    limit,
		PoolSize: e.poolSize,
		Filters:  filters,
		Rand:     rand.New(rand.NewSource(e.seed())),
	}
}

func (e *Engine) runPipeline(ctx context.Context, pipe *pipeline.Pipeline, rctx *core.RecommendContext) ([]*core.Item, error) {
	var items []*core.Item
	var err error
	for _, node := range pipe.Nodes {
		stageStart := time.Now()
		items, err = node.Process(ctx, rctx, items)
		e.metrics.ObserveStage(string(node.Kind()), time.Since(stageStart))
		if err != nil {
			return nil, err
		}
		if node.Kind() == pipeline.KindFilter {
			e.metrics.ObservePool(len(items))
		}
	}
	return items, nil
}

// admit acquires the admission gate, attributing the wait to metrics.
// Cancellation while queued surfaces as the caller's context error.
func (e *Engine) admit(ctx context.Context) (func(), error) {
	waitStart := time.Now()
	if err := e.gate.Acquire(ctx, 1); err != nil {
		e.metrics.CountRequest("error")
		return nil, err
	}
	e.metrics.ObserveGateWait(time.Since(waitStart))
	return func() { e.gate.Release(1) }, nil
}

// mapTimeout converts a deadline abort into the retryable TIMEOUT domain
// error; returns nil when the error was not a timeout.
func (e *Engine) mapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.metrics.CountTimeout()
		e.metrics.CountRequest("timeout")
		e.logger.Warn("recommendation timed out", zap.Duration("timeout", e.timeout))
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeTimeout,
			"engine: computation timed out")
	}
	return nil
}

func (e *Engine) orTimeout(ctx context.Context, err error) error {
	if wrapped := e.mapTimeout(ctx, err); wrapped != nil {
		return wrapped
	}
	return err
}
