package core

import "testing"

func TestTopTags_OrderedAndTieBroken(t *testing.T) {
	p := &UserProfile{TagWeights: map[string]float64{
		"g3": 2.0,
		"g1": 5.0,
		"g2": 2.0,
		"g4": 1.0,
	}}

	got := p.TopTags(3)
	want := []string{"g1", "g2", "g3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTopTags_ZeroMeansAll(t *testing.T) {
	p := &UserProfile{TagWeights: map[string]float64{"g1": 1, "g2": 2}}
	if got := p.TopTags(0); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestTopFavorites(t *testing.T) {
	p := &UserProfile{HighRated: []RatedItem{
		{ID: "v1", Score: 9.5},
		{ID: "v2", Score: 9.0},
		{ID: "v3", Score: 8.5},
	}}

	if got := p.TopFavorites(2); len(got) != 2 || got[0].ID != "v1" {
		t.Errorf("TopFavorites(2) = %v", got)
	}
	if got := p.TopFavorites(10); len(got) != 3 {
		t.Errorf("TopFavorites(10) len = %d, want all 3", len(got))
	}
}

func TestHardFiltersEmpty(t *testing.T) {
	tests := []struct {
		name    string
		filters *HardFilters
		want    bool
	}{
		{"nil", nil, true},
		{"zero value", &HardFilters{}, true},
		{"min rating", &HardFilters{MinRating: 7}, false},
		{"language", &HardFilters{Language: "ja"}, false},
		{"required tag", &HardFilters{RequiredTags: []string{"g1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemLabels(t *testing.T) {
	it := NewItem("v1")
	if it.GetLabel("missing") != "" {
		t.Error("missing label not empty")
	}
}
