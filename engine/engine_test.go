package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/store"
)

// testCatalog builds a small but fully connected catalog: a cluster of
// romance titles around the user's favorites plus unrelated filler.
func testCatalog() *store.Memory {
	cat := store.NewMemory()

	cat.AddItem(&core.VN{
		ID:         "vFav1",
		Title:      "Favorite One",
		Tags:       map[string]float64{"g1": 3.0, "g2": 2.0},
		Developers: []string{"p1"},
		Rating:     8.5,
		VoteCount:  2000,
	})
	cat.AddItem(&core.VN{
		ID:         "vFav2",
		Title:      "Favorite Two",
		Tags:       map[string]float64{"g1": 2.5, "g3": 2.0},
		Developers: []string{"p1"},
		Rating:     8.0,
		VoteCount:  1500,
	})
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("v%d", i)
		tags := map[string]float64{"g1": 2.0}
		if i%2 == 0 {
			tags = map[string]float64{fmt.Sprintf("g%d", i): 2.5}
		}
		cat.AddItem(&core.VN{
			ID:        id,
			Title:     fmt.Sprintf("Candidate %d", i),
			Tags:      tags,
			Rating:    6.0 + float64(i%4),
			VoteCount: 500,
		})
		cat.AddSimilar("vFav1", id, 0.9-float64(i)*0.05)
		cat.AddCoOccur("vFav2", id, 7.5, 40)
	}
	cat.SetName("g1", "Romance")
	cat.SetName("g2", "Drama")
	cat.SetName("g3", "Comedy")
	cat.SetName("p1", "Key")
	return cat
}

func testRatings() []core.Rating {
	return []core.Rating{
		{ItemID: "vFav1", Score: 95},
		{ItemID: "vFav2", Score: 90},
	}
}

func TestRecommend_BasicProperties(t *testing.T) {
	eng := New(testCatalog(), WithSeed(7))

	recs, err := eng.Recommend(context.Background(), testRatings(), nil, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) == 0 || len(recs) > 5 {
		t.Fatalf("len = %d, want 1..5", len(recs))
	}

	seen := map[string]bool{}
	for _, rec := range recs {
		it := rec.Item
		if it.ID == "vFav1" || it.ID == "vFav2" {
			t.Errorf("rated item %s in results", it.ID)
		}
		if seen[it.ID] {
			t.Errorf("duplicate %s", it.ID)
		}
		seen[it.ID] = true

		if it.Display < 0 || it.Display > 100 {
			t.Errorf("%s display = %d, want 0..100", it.ID, it.Display)
		}
		for name, s := range map[string]float64{
			"tag":     it.Signals.Tag,
			"similar": it.Signals.Similar,
			"cooccur": it.Signals.CoOccur,
			"dev":     it.Signals.Developer,
			"staff":   it.Signals.Staff,
			"seiyuu":  it.Signals.Seiyuu,
			"trait":   it.Signals.Trait,
			"quality": it.Signals.Quality,
		} {
			if s < 0 || s > 1 {
				t.Errorf("%s signal %s = %v, want [0,1]", it.ID, name, s)
			}
		}
	}
}

func TestRecommend_EmptyRatings(t *testing.T) {
	eng := New(testCatalog())

	recs, err := eng.Recommend(context.Background(), nil, nil, 10, nil)
	if err != nil {
		t.Fatalf("empty ratings must not error, got %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %v, want empty non-nil slice", recs)
	}
}

func TestRecommend_HonorsExclusion(t *testing.T) {
	eng := New(testCatalog(), WithSeed(7))

	recs, err := eng.Recommend(context.Background(), testRatings(), []string{"v1", "v2"}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range recs {
		if rec.Item.ID == "v1" || rec.Item.ID == "v2" {
			t.Errorf("excluded item %s in results", rec.Item.ID)
		}
	}
}

func TestRecommend_DeterministicWithSeed(t *testing.T) {
	run := func() []string {
		eng := New(testCatalog(), WithSeed(42))
		recs, err := eng.Recommend(context.Background(), testRatings(), nil, 5, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids := make([]string, len(recs))
		for i, rec := range recs {
			ids[i] = rec.Item.ID
		}
		return ids
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("results differ at %d: %v vs %v", i, first, second)
		}
	}
}

func TestRecommend_HardFilters(t *testing.T) {
	eng := New(testCatalog(), WithSeed(7))

	recs, err := eng.Recommend(context.Background(), testRatings(), nil, 10, &core.HardFilters{
		MinRating: 8.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	metas, _ := testCatalog().ItemMetadata(context.Background(), idsOf(recs))
	for _, rec := range recs {
		if meta := metas[rec.Item.ID]; meta != nil && meta.Rating < 8.0 {
			t.Errorf("%s rating %v below floor", rec.Item.ID, meta.Rating)
		}
	}
}

func idsOf(recs []*core.Recommendation) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.Item.ID
	}
	return out
}

// slowCatalog blocks every tag lookup until the context dies.
type slowCatalog struct {
	core.Catalog
}

func (s *slowCatalog) TagsForItems(ctx context.Context, ids []string) (map[string]map[string]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRecommend_TimeoutIsRetryable(t *testing.T) {
	eng := New(&slowCatalog{Catalog: testCatalog()},
		WithTimeout(20*time.Millisecond))

	_, err := eng.Recommend(context.Background(), testRatings(), nil, 5, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !core.IsTimeout(err) {
		t.Errorf("IsTimeout = false for %v", err)
	}
	if !core.IsRetryable(err) {
		t.Errorf("IsRetryable = false for %v", err)
	}
}

func TestExplainOne(t *testing.T) {
	eng := New(testCatalog(), WithSeed(7))

	rec, err := eng.ExplainOne(context.Background(), testRatings(), "v1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Item.ID != "v1" {
		t.Errorf("item = %s, want v1", rec.Item.ID)
	}
	if rec.Item.Display < 0 || rec.Item.Display > 100 {
		t.Errorf("display = %d, want 0..100", rec.Item.Display)
	}
	if len(rec.MatchedTags) == 0 {
		t.Error("expected at least one matched tag for a shared-tag item")
	}
}

func TestExplainOne_Validation(t *testing.T) {
	eng := New(testCatalog())

	if _, err := eng.ExplainOne(context.Background(), testRatings(), ""); !core.IsInvalidInput(err) {
		t.Errorf("empty id: IsInvalidInput = false for %v", err)
	}
	if _, err := eng.ExplainOne(context.Background(), nil, "v1"); !core.IsInvalidInput(err) {
		t.Errorf("no ratings: IsInvalidInput = false for %v", err)
	}
	if _, err := eng.ExplainOne(context.Background(), testRatings(), "v999"); !core.IsNotFound(err) {
		t.Errorf("unknown item: IsNotFound = false for %v", err)
	}
}
