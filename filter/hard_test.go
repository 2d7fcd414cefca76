package filter

import (
	"context"
	"testing"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/store"
)

func testCatalog() *store.Memory {
	cat := store.NewMemory()
	cat.AddItem(&core.VN{
		ID:            "v1",
		Tags:          map[string]float64{"g1": 2.5},
		Rating:        8.0,
		LengthMinutes: 1200,
		Language:      "ja",
	})
	cat.AddItem(&core.VN{
		ID:            "v2",
		Tags:          map[string]float64{"g2": 2.0},
		Traits:        map[string]int{"i1": 1},
		Rating:        6.0,
		LengthMinutes: 300,
		Language:      "en",
	})
	cat.AddItem(&core.VN{
		ID:            "v3",
		Tags:          map[string]float64{"g1": 1.0, "g2": 3.0},
		Rating:        7.5,
		LengthMinutes: 3000,
		Language:      "ja",
	})
	return cat
}

func pool(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

func idSet(items []*core.Item) map[string]bool {
	set := map[string]bool{}
	for _, it := range items {
		set[it.ID] = true
	}
	return set
}

func TestHard_NoConstraintsPassesThrough(t *testing.T) {
	node := &Hard{Catalog: testCatalog()}
	rctx := &core.RecommendContext{}

	items := pool("v1", "v2", "v3")
	got, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestHard_Constraints(t *testing.T) {
	tests := []struct {
		name    string
		filters *core.HardFilters
		want    []string
	}{
		{
			"min rating",
			&core.HardFilters{MinRating: 7.0},
			[]string{"v1", "v3"},
		},
		{
			"length range",
			&core.HardFilters{MinLength: 600, MaxLength: 2000},
			[]string{"v1"},
		},
		{
			"language",
			&core.HardFilters{Language: "en"},
			[]string{"v2"},
		},
		{
			"required tag",
			&core.HardFilters{RequiredTags: []string{"g1"}},
			[]string{"v1", "v3"},
		},
		{
			"excluded tag",
			&core.HardFilters{ExcludedTags: []string{"g2"}},
			[]string{"v1"},
		},
		{
			"required trait",
			&core.HardFilters{RequiredTraits: []string{"i1"}},
			[]string{"v2"},
		},
		{
			"excluded trait",
			&core.HardFilters{ExcludedTraits: []string{"i1"}},
			[]string{"v1", "v3"},
		},
		{
			"intersection",
			&core.HardFilters{MinRating: 7.0, RequiredTags: []string{"g2"}},
			[]string{"v3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &Hard{Catalog: testCatalog()}
			rctx := &core.RecommendContext{Filters: tt.filters}

			got, err := node.Process(context.Background(), rctx, pool("v1", "v2", "v3"))
			if err != nil {
				t.Fatal(err)
			}
			gotSet := idSet(got)
			if len(got) != len(tt.want) {
				t.Fatalf("kept %v, want %v", gotSet, tt.want)
			}
			for _, id := range tt.want {
				if !gotSet[id] {
					t.Errorf("missing %s", id)
				}
			}
		})
	}
}

func TestHard_UnknownItemDroppedUnderConstraints(t *testing.T) {
	node := &Hard{Catalog: testCatalog()}
	rctx := &core.RecommendContext{Filters: &core.HardFilters{MinRating: 1.0}}

	got, err := node.Process(context.Background(), rctx, pool("v1", "v999"))
	if err != nil {
		t.Fatal(err)
	}
	if set := idSet(got); set["v999"] {
		t.Error("item without metadata passed a constrained request")
	}
}

func TestExclude(t *testing.T) {
	f := &Exclude{}
	rctx := &core.RecommendContext{
		Exclude: map[string]struct{}{"v1": {}},
		Profile: &core.UserProfile{Rated: map[string]float64{"v2": 8.0}},
	}

	tests := []struct {
		id   string
		drop bool
	}{
		{"v1", true},  // explicit exclusion
		{"v2", true},  // already rated
		{"v3", false}, // clean
	}
	for _, tt := range tests {
		drop, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.id))
		if err != nil {
			t.Fatal(err)
		}
		if drop != tt.drop {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, drop, tt.drop)
		}
	}
}

func TestNode_DropLabelsAndFailOpen(t *testing.T) {
	node := &Node{Filters: []Filter{&Exclude{}}}
	rctx := &core.RecommendContext{Exclude: map[string]struct{}{"v2": {}}}

	items := pool("v1", "v2")
	got, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "v1" {
		t.Fatalf("kept %v, want [v1]", idSet(got))
	}
	if items[1].GetLabel("filtered_by") != "filter.exclude" {
		t.Errorf("filtered_by label = %q, want filter.exclude", items[1].GetLabel("filtered_by"))
	}
}
