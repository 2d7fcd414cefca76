package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			"both set accumulate",
			Label{Value: "similar", Source: "recall"},
			Label{Value: "elite", Source: "recall"},
			Label{Value: "similar|elite", Source: "recall,recall"},
		},
		{
			"empty existing yields incoming",
			Label{},
			Label{Value: "explore", Source: "recall"},
			Label{Value: "explore", Source: "recall"},
		},
		{
			"empty incoming yields existing",
			Label{Value: "quality", Source: "recall"},
			Label{},
			Label{Value: "quality", Source: "recall"},
		},
		{
			"missing existing source",
			Label{Value: "a"},
			Label{Value: "b", Source: "rank"},
			Label{Value: "a|b", Source: "rank"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel = %+v, want %+v", got, tt.want)
			}
		})
	}
}
