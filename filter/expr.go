package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

var (
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// celEnvironment builds the shared CEL environment once; it is thread-safe
// and reused by every Expr filter.
func celEnvironment() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("signals", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Expr is a CEL-backed expression filter: the item is DROPPED when the
// expression evaluates to false. It is the extension point for ad-hoc
// caller constraints the typed HardFilters do not cover.
//
// Expression syntax (standard CEL):
//   - label.recall_source.contains("similar")
//   - item.score > 0.5
//   - signals.quality >= 0.4 && label.recall_bypass != "elite"
type Expr struct {
	// Expression is compiled lazily on first use and cached.
	Expression string

	once sync.Once
	prg  cel.Program
	err  error
}

// NewExpr creates an expression filter, compiling eagerly so config errors
// surface at build time instead of mid-request.
func NewExpr(expression string) (*Expr, error) {
	e := &Expr{Expression: expression}
	if err := e.compile(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Expr) Name() string {
	return "filter.expr"
}

func (e *Expr) compile() error {
	e.once.Do(func() {
		if e.Expression == "" {
			return
		}
		env, err := celEnvironment()
		if err != nil {
			e.err = err
			return
		}
		ast, issues := env.Compile(e.Expression)
		if issues != nil && issues.Err() != nil {
			e.err = fmt.Errorf("compile error: %w", issues.Err())
			return
		}
		e.prg, e.err = env.Program(ast)
	})
	return e.err
}

func (e *Expr) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if e.Expression == "" || item == nil {
		return false, nil
	}
	if err := e.compile(); err != nil {
		return false, err
	}

	out, _, err := e.prg.Eval(e.buildInput(item))
	if err != nil {
		// Missing keys surface as eval errors; treat as "keep" so a
		// sloppy expression cannot empty the pool.
		return false, fmt.Errorf("eval error: %w", err)
	}

	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return !keep, nil
}

func (e *Expr) buildInput(item *core.Item) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	return map[string]any{
		"item": map[string]any{
			"id":    item.ID,
			"score": item.Score,
			"meta":  item.Meta,
		},
		"label": labels,
		"signals": map[string]any{
			"tag":       item.Signals.Tag,
			"similar":   item.Signals.Similar,
			"cooccur":   item.Signals.CoOccur,
			"developer": item.Signals.Developer,
			"staff":     item.Signals.Staff,
			"seiyuu":    item.Signals.Seiyuu,
			"trait":     item.Signals.Trait,
			"quality":   item.Signals.Quality,
		},
	}
}
