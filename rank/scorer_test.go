package rank

import (
	"context"
	"testing"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/store"
)

func scorerCatalog() *store.Memory {
	cat := store.NewMemory()
	cat.AddItem(&core.VN{
		ID:         "vStrong",
		Title:      "Strong Match",
		Tags:       map[string]float64{"g1": 3.0},
		Developers: []string{"p1"},
		Rating:     8.0,
	})
	cat.AddItem(&core.VN{
		ID:     "vWeak",
		Title:  "Weak Match",
		Tags:   map[string]float64{"g9": 3.0},
		Rating: 6.0,
	})
	cat.AddItem(&core.VN{ID: "vFav", Tags: map[string]float64{"g1": 3.0}, Rating: 9.0})
	cat.AddSimilar("vFav", "vStrong", 0.9)
	return cat
}

func scorerProfile() *core.UserProfile {
	return &core.UserProfile{
		TagWeights: map[string]float64{"g1": 6.0},
		TagDisplay: map[string]float64{"g1": 2.0},
		TagIDF:     map[string]float64{"g1": 1.0},
		CreatorDeltas: map[core.CreatorKind]map[string]float64{
			core.KindDeveloper: {"p1": 1.0},
		},
		EliteTags:      map[string]struct{}{"g1": {}},
		HighRated:      []core.RatedItem{{ID: "vFav", Score: 9.5}},
		Rated:          map[string]float64{"vFav": 9.5},
		OverallAverage: 7.5,
	}
}

func TestScorer_OrdersByCombinedScore(t *testing.T) {
	scorer := &Scorer{Catalog: scorerCatalog(), Weights: DefaultWeights()}
	rctx := &core.RecommendContext{Profile: scorerProfile()}

	items := []*core.Item{core.NewItem("vWeak"), core.NewItem("vStrong")}
	out, err := scorer.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ID != "vStrong" {
		t.Errorf("top item = %s, want vStrong", out[0].ID)
	}
	if out[0].Score <= out[1].Score {
		t.Errorf("scores not descending: %v then %v", out[0].Score, out[1].Score)
	}
}

func TestScorer_SignalsInRangeAndDisplay(t *testing.T) {
	scorer := &Scorer{Catalog: scorerCatalog(), Weights: DefaultWeights()}
	rctx := &core.RecommendContext{Profile: scorerProfile()}

	out, err := scorer.Process(context.Background(), rctx, []*core.Item{core.NewItem("vStrong")})
	if err != nil {
		t.Fatal(err)
	}
	it := out[0]

	s := it.Signals
	for name, v := range map[string]float64{
		"tag": s.Tag, "similar": s.Similar, "cooccur": s.CoOccur,
		"developer": s.Developer, "staff": s.Staff, "seiyuu": s.Seiyuu,
		"trait": s.Trait, "quality": s.Quality,
	} {
		if v < 0 || v > 1 {
			t.Errorf("signal %s = %v, want [0,1]", name, v)
		}
	}
	if s.Tag == 0 {
		t.Error("shared elite tag produced zero tag signal")
	}
	if s.Similar == 0 {
		t.Error("precomputed similarity row produced zero similar signal")
	}
	if s.Developer == 0 {
		t.Error("shared developer produced zero developer signal")
	}
	if it.Display < 0 || it.Display > 100 {
		t.Errorf("display = %d, want 0..100", it.Display)
	}
}

func TestScorer_StashesTagsAndTitle(t *testing.T) {
	scorer := &Scorer{Catalog: scorerCatalog()}
	rctx := &core.RecommendContext{Profile: scorerProfile()}

	out, err := scorer.Process(context.Background(), rctx, []*core.Item{core.NewItem("vStrong")})
	if err != nil {
		t.Fatal(err)
	}
	it := out[0]
	tags, ok := it.Meta["tags"].(map[string]float64)
	if !ok || tags["g1"] != 3.0 {
		t.Errorf("stashed tags = %v", it.Meta["tags"])
	}
	if it.Meta["title"] != "Strong Match" {
		t.Errorf("stashed title = %v", it.Meta["title"])
	}
}

func TestScorer_EmptyPoolPassesThrough(t *testing.T) {
	scorer := &Scorer{Catalog: scorerCatalog()}
	out, err := scorer.Process(context.Background(), &core.RecommendContext{Profile: scorerProfile()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestScorer_ZeroWeightsFallToDefaults(t *testing.T) {
	scorer := &Scorer{Catalog: scorerCatalog()}
	if got := scorer.weights(); got != DefaultWeights() {
		t.Errorf("weights = %+v, want defaults", got)
	}
}
