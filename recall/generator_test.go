package recall

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// stubSource returns a fixed slice, or an error.
type stubSource struct {
	name  string
	items []*core.Item
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(_ context.Context, _ *core.RecommendContext, _ int) ([]*core.Item, error) {
	return s.items, s.err
}

func ids(prefix string, n int) []*core.Item {
	out := make([]*core.Item, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, core.NewItem(fmt.Sprintf("%s%d", prefix, i+1)))
	}
	return out
}

func recommendCtx(poolSize int, exclude ...string) *core.RecommendContext {
	rctx := &core.RecommendContext{
		Profile:  &core.UserProfile{},
		Exclude:  map[string]struct{}{},
		PoolSize: poolSize,
	}
	for _, id := range exclude {
		rctx.Exclude[id] = struct{}{}
	}
	return rctx
}

func TestGenerator_BudgetsPerSource(t *testing.T) {
	gen := &Generator{
		Sources: []Budgeted{
			{Source: &stubSource{name: "a", items: ids("a", 20)}, Share: 0.8},
			{Source: &stubSource{name: "b", items: ids("b", 20)}, Share: 0.2},
		},
	}

	out, err := gen.Process(context.Background(), recommendCtx(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	// 80% of 10 from a, 20% from b.
	if len(out) != 10 {
		t.Fatalf("len = %d, want 10", len(out))
	}
	counts := map[byte]int{}
	for _, it := range out {
		counts[it.ID[0]]++
	}
	if counts['a'] != 8 || counts['b'] != 2 {
		t.Errorf("source counts = a:%d b:%d, want a:8 b:2", counts['a'], counts['b'])
	}
}

func TestGenerator_ExtraBudgetIgnoresShare(t *testing.T) {
	gen := &Generator{
		Sources: []Budgeted{
			{Source: &stubSource{name: "bypass", items: ids("e", 10)}, Share: 0.1, Extra: 3},
		},
	}

	out, err := gen.Process(context.Background(), recommendCtx(100), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Errorf("len = %d, want 3 (the Extra cap)", len(out))
	}
}

func TestGenerator_DedupAcrossSources(t *testing.T) {
	shared := []*core.Item{core.NewItem("v1"), core.NewItem("v2")}
	gen := &Generator{
		Sources: []Budgeted{
			{Source: &stubSource{name: "a", items: shared}, Share: 0.5},
			{Source: &stubSource{name: "b", items: []*core.Item{
				core.NewItem("v1"), core.NewItem("v3"),
			}}, Share: 0.5},
		},
	}

	out, err := gen.Process(context.Background(), recommendCtx(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, it := range out {
		if seen[it.ID] {
			t.Fatalf("duplicate id %s in merged pool", it.ID)
		}
		seen[it.ID] = true
	}
	if len(out) != 3 {
		t.Errorf("len = %d, want 3 (v1 v2 v3)", len(out))
	}
}

func TestGenerator_HonorsExclusionSet(t *testing.T) {
	gen := &Generator{
		Sources: []Budgeted{
			{Source: &stubSource{name: "a", items: ids("v", 5)}, Share: 1.0},
		},
	}

	out, err := gen.Process(context.Background(), recommendCtx(10, "v2", "v4"), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range out {
		if it.ID == "v2" || it.ID == "v4" {
			t.Errorf("excluded id %s leaked into pool", it.ID)
		}
	}
	if len(out) != 3 {
		t.Errorf("len = %d, want 3", len(out))
	}
}

func TestGenerator_FailingSourceDegrades(t *testing.T) {
	gen := &Generator{
		Sources: []Budgeted{
			{Source: &stubSource{name: "broken", err: errors.New("catalog down")}, Share: 0.8},
			{Source: &stubSource{name: "ok", items: ids("v", 4)}, Share: 0.2},
		},
	}

	out, err := gen.Process(context.Background(), recommendCtx(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2 from the surviving source", len(out))
	}
}

func TestGenerator_FallbackOnlyWhenEmpty(t *testing.T) {
	fallback := &stubSource{name: "quality", items: ids("q", 5)}

	t.Run("sources empty", func(t *testing.T) {
		gen := &Generator{
			Sources: []Budgeted{
				{Source: &stubSource{name: "a"}, Share: 1.0},
			},
			Fallback: fallback,
		}
		out, err := gen.Process(context.Background(), recommendCtx(10), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 5 {
			t.Errorf("len = %d, want 5 from fallback", len(out))
		}
	})

	t.Run("sources nonempty", func(t *testing.T) {
		gen := &Generator{
			Sources: []Budgeted{
				{Source: &stubSource{name: "a", items: ids("v", 2)}, Share: 1.0},
			},
			Fallback: fallback,
		}
		out, err := gen.Process(context.Background(), recommendCtx(10), nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, it := range out {
			if it.ID[0] == 'q' {
				t.Errorf("fallback item %s present despite nonempty pool", it.ID)
			}
		}
	})
}
