package filter

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
	"github.com/drinosaret/vn-club-resources-sub000/pkg/utils"
)

// Hard applies the caller's hard constraints (rating floor, length range,
// required/excluded tags and traits, original language) as a final
// intersection over the pool. It is a standalone node rather than a
// per-item Filter so the metadata it needs comes from one batched lookup.
type Hard struct {
	Catalog core.Catalog
}

func (n *Hard) Name() string {
	return "filter.hard"
}

func (n *Hard) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *Hard) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil || rctx.Filters.Empty() {
		return items, nil
	}
	f := rctx.Filters

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}

	metas, err := n.Catalog.ItemMetadata(ctx, ids)
	if err != nil {
		return nil, err
	}

	var tagsByItem map[string]map[string]float64
	if len(f.RequiredTags) > 0 || len(f.ExcludedTags) > 0 {
		tagsByItem, err = n.Catalog.TagsForItems(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	var traitsByItem map[string]map[string]int
	if len(f.RequiredTraits) > 0 || len(f.ExcludedTraits) > 0 {
		traitsByItem, err = n.Catalog.TraitsForItems(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		meta := metas[it.ID]
		if !n.passes(f, meta, tagsByItem[it.ID], traitsByItem[it.ID]) {
			it.PutLabel("filtered_by", utils.Label{Value: n.Name(), Source: "filter"})
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (n *Hard) passes(f *core.HardFilters, meta *core.VN, tags map[string]float64, traits map[string]int) bool {
	// No metadata means the constraints cannot be verified; a constrained
	// request drops the item rather than guessing.
	if meta == nil {
		return false
	}

	if f.MinRating > 0 && meta.Rating < f.MinRating {
		return false
	}
	if f.MinLength > 0 && (meta.LengthMinutes == 0 || meta.LengthMinutes < f.MinLength) {
		return false
	}
	if f.MaxLength > 0 && meta.LengthMinutes > f.MaxLength {
		return false
	}
	if f.Language != "" && meta.Language != f.Language {
		return false
	}

	for _, tagID := range f.RequiredTags {
		if tags[tagID] <= 0 {
			return false
		}
	}
	for _, tagID := range f.ExcludedTags {
		if tags[tagID] > 0 {
			return false
		}
	}
	for _, traitID := range f.RequiredTraits {
		if traits[traitID] <= 0 {
			return false
		}
	}
	for _, traitID := range f.ExcludedTraits {
		if traits[traitID] > 0 {
			return false
		}
	}
	return true
}
