// Package config wires pipeline nodes from YAML/JSON configs, for
// operators who reorder or re-tune stages without recompiling.
package config

import (
	"fmt"
	"time"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/filter"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/conv"
	"github.com/drinosaret/vn-club-resources-sub000/rank"
	"github.com/drinosaret/vn-club-resources-sub000/recall"
	"github.com/drinosaret/vn-club-resources-sub000/rerank"
)

// DefaultFactory returns a factory with all built-in nodes registered
// against one catalog.
func DefaultFactory(catalog core.Catalog) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.generator", func(cfg map[string]any) (pipeline.Node, error) {
		return buildGeneratorNode(catalog, cfg)
	})
	factory.Register("filter", buildFilterNode)
	factory.Register("filter.hard", func(cfg map[string]any) (pipeline.Node, error) {
		return &filter.Hard{Catalog: catalog}, nil
	})
	factory.Register("rank.signals", func(cfg map[string]any) (pipeline.Node, error) {
		return buildScorerNode(catalog, cfg)
	})
	factory.Register("rerank.mmr", buildMMRNode)
	factory.Register("rerank.topn", buildTopNNode)

	return factory
}

func buildGeneratorNode(catalog core.Catalog, cfg map[string]any) (pipeline.Node, error) {
	gen := recall.DefaultGenerator(catalog)
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		gen.Timeout = time.Duration(sec) * time.Second
	}
	return gen, nil
}

func buildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return &filter.Node{Filters: []filter.Filter{&filter.Exclude{}}}, nil
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet[string](filterMap, "type", ""); filterType {
		case "exclude":
			filters = append(filters, &filter.Exclude{})
		case "expr":
			expression := conv.ConfigGet[string](filterMap, "expression", "")
			f, err := filter.NewExpr(expression)
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.Node{Filters: filters}, nil
}

func buildScorerNode(catalog core.Catalog, cfg map[string]any) (pipeline.Node, error) {
	weights := rank.DefaultWeights()
	if wm, ok := cfg["weights"].(map[string]any); ok {
		weights = rank.Weights{
			Tag:       conv.ConfigGetFloat(wm, "tag", weights.Tag),
			Similar:   conv.ConfigGetFloat(wm, "similar", weights.Similar),
			CoOccur:   conv.ConfigGetFloat(wm, "cooccur", weights.CoOccur),
			Developer: conv.ConfigGetFloat(wm, "developer", weights.Developer),
			Staff:     conv.ConfigGetFloat(wm, "staff", weights.Staff),
			Seiyuu:    conv.ConfigGetFloat(wm, "seiyuu", weights.Seiyuu),
			Trait:     conv.ConfigGetFloat(wm, "trait", weights.Trait),
			Quality:   conv.ConfigGetFloat(wm, "quality", weights.Quality),
		}
	}
	return &rank.Scorer{Catalog: catalog, Weights: weights}, nil
}

func buildMMRNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.MMR{
		Limit:  int(conv.ConfigGetInt64(cfg, "limit", 0)),
		Lambda: conv.ConfigGetFloat(cfg, "lambda", 0),
		Window: int(conv.ConfigGetInt64(cfg, "window", 0)),
	}, nil
}

func buildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopN{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
