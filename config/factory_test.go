package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
	"github.com/drinosaret/vn-club-resources-sub000/rank"
	"github.com/drinosaret/vn-club-resources-sub000/rerank"
	"github.com/drinosaret/vn-club-resources-sub000/store"
)

const pipelineYAML = `
pipeline:
  name: default
  nodes:
    - type: recall.generator
      config:
        timeout: 5
    - type: filter
      config:
        filters:
          - type: exclude
          - type: expr
            expression: 'item.score >= 0.0'
    - type: filter.hard
    - type: rank.signals
      config:
        weights:
          tag: 3.0
          quality: 1.0
    - type: rerank.mmr
      config:
        limit: 10
        lambda: 0.3
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeTemp(t, pipelineYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.Name != "default" {
		t.Errorf("name = %q, want default", cfg.Pipeline.Name)
	}

	pipe, err := cfg.BuildPipeline(DefaultFactory(store.NewMemory()))
	if err != nil {
		t.Fatal(err)
	}
	if len(pipe.Nodes) != 5 {
		t.Fatalf("nodes = %d, want 5", len(pipe.Nodes))
	}

	wantKinds := []pipeline.Kind{
		pipeline.KindRecall,
		pipeline.KindFilter,
		pipeline.KindFilter,
		pipeline.KindRank,
		pipeline.KindReRank,
	}
	for i, node := range pipe.Nodes {
		if node.Kind() != wantKinds[i] {
			t.Errorf("node %d kind = %s, want %s", i, node.Kind(), wantKinds[i])
		}
	}

	scorer, ok := pipe.Nodes[3].(*rank.Scorer)
	if !ok {
		t.Fatalf("node 3 is %T, want *rank.Scorer", pipe.Nodes[3])
	}
	if scorer.Weights.Tag != 3.0 {
		t.Errorf("tag weight = %v, want override 3.0", scorer.Weights.Tag)
	}
	if scorer.Weights.Similar != rank.DefaultWeights().Similar {
		t.Errorf("similar weight = %v, want default", scorer.Weights.Similar)
	}

	mmr, ok := pipe.Nodes[4].(*rerank.MMR)
	if !ok {
		t.Fatalf("node 4 is %T, want *rerank.MMR", pipe.Nodes[4])
	}
	if mmr.Limit != 10 {
		t.Errorf("mmr limit = %d, want 10", mmr.Limit)
	}
}

func TestBuildPipeline_UnknownNodeType(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeTemp(t, `
pipeline:
  name: broken
  nodes:
    - type: rank.mystery
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.BuildPipeline(DefaultFactory(store.NewMemory())); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestBuildFilterNode_UnknownFilterType(t *testing.T) {
	_, err := buildFilterNode(map[string]any{
		"filters": []any{map[string]any{"type": "mystery"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown filter type")
	}
}
