// Package explain resolves human-readable match breakdowns for the final
// result page. It runs only on the limit-sized slice the caller will
// actually see, never on the full candidate pool: per-item explanation is
// the most expensive step in the request and must not scale with pool size.
package explain

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

const (
	// contributionThreshold is the minimum tag-cosine similarity for a
	// favorite to count as a contributing item.
	contributionThreshold = 0.3

	maxMatchedTags       = 10
	maxMatchedCreators   = 5
	maxMatchedTraits     = 5
	maxContributing      = 5
	maxFavoritesCompared = 20
)

// Builder computes explanations over a final result slice.
type Builder struct {
	Catalog core.Catalog
	Logger  *zap.Logger
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}

// Build decorates the final items with matched tags/creators/traits and
// contributing favorites. Name or favorite lookups that fail degrade to
// partial explanations; the recommendations themselves always return.
func (b *Builder) Build(
	ctx context.Context,
	p *core.UserProfile,
	items []*core.Item,
) ([]*core.Recommendation, error) {
	out := make([]*core.Recommendation, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}

	tagsByItem := b.itemTags(ctx, items, ids)
	creatorsByKind := make(map[core.CreatorKind]map[string][]string)
	for _, kind := range []core.CreatorKind{core.KindDeveloper, core.KindStaff, core.KindSeiyuu} {
		byItem, err := b.Catalog.CreatorsForItems(ctx, ids, kind)
		if err != nil {
			b.logger().Warn("explain creator lookup degraded",
				zap.String("kind", string(kind)), zap.Error(err))
			byItem = map[string][]string{}
		}
		creatorsByKind[kind] = byItem
	}
	traitsByItem, err := b.Catalog.TraitsForItems(ctx, ids)
	if err != nil {
		b.logger().Warn("explain trait lookup degraded", zap.Error(err))
		traitsByItem = map[string]map[string]int{}
	}
	metas, err := b.Catalog.ItemMetadata(ctx, ids)
	if err != nil {
		metas = map[string]*core.VN{}
	}

	favorites, favoriteTags, favoriteTitles := b.favoriteData(ctx, p)

	for _, it := range items {
		if it == nil {
			continue
		}
		rec := &core.Recommendation{Item: it}
		if meta := metas[it.ID]; meta != nil {
			rec.Title = meta.Title
		} else if title, ok := it.Meta["title"].(string); ok {
			rec.Title = title
		}

		rec.MatchedTags = b.matchedTags(ctx, p, tagsByItem[it.ID])
		rec.MatchedDevelopers = b.matchedCreators(ctx, p, core.KindDeveloper, creatorsByKind[core.KindDeveloper][it.ID])
		rec.MatchedStaff = b.matchedCreators(ctx, p, core.KindStaff, creatorsByKind[core.KindStaff][it.ID])
		rec.MatchedSeiyuu = b.matchedCreators(ctx, p, core.KindSeiyuu, creatorsByKind[core.KindSeiyuu][it.ID])
		rec.MatchedTraits = b.matchedTraits(ctx, p, traitsByItem[it.ID])
		rec.ContributingItems = contributingItems(tagsByItem[it.ID], favorites, favoriteTags, favoriteTitles)

		out = append(out, rec)
	}
	return out, nil
}

// itemTags prefers the tag vectors the scorer stashed on the items,
// falling back to one batched lookup for whatever is missing.
func (b *Builder) itemTags(ctx context.Context, items []*core.Item, ids []string) map[string]map[string]float64 {
	tagsByItem := make(map[string]map[string]float64, len(items))
	var missing []string
	for _, it := range items {
		if it == nil {
			continue
		}
		if tags, ok := it.Meta["tags"].(map[string]float64); ok {
			tagsByItem[it.ID] = tags
		} else {
			missing = append(missing, it.ID)
		}
	}
	if len(missing) > 0 {
		fetched, err := b.Catalog.TagsForItems(ctx, missing)
		if err != nil {
			b.logger().Warn("explain tag lookup degraded", zap.Error(err))
			return tagsByItem
		}
		for id, tags := range fetched {
			tagsByItem[id] = tags
		}
	}
	return tagsByItem
}

func (b *Builder) favoriteData(ctx context.Context, p *core.UserProfile) ([]core.RatedItem, map[string]map[string]float64, map[string]string) {
	favorites := p.TopFavorites(maxFavoritesCompared)
	if len(favorites) == 0 {
		return nil, nil, nil
	}
	ids := make([]string, len(favorites))
	for i, f := range favorites {
		ids[i] = f.ID
	}

	tags, err := b.Catalog.TagsForItems(ctx, ids)
	if err != nil {
		b.logger().Warn("explain favorite tags degraded", zap.Error(err))
		return favorites, nil, nil
	}
	titles := make(map[string]string, len(ids))
	if metas, err := b.Catalog.ItemMetadata(ctx, ids); err == nil {
		for id, meta := range metas {
			titles[id] = meta.Title
		}
	}
	return favorites, tags, titles
}

func (b *Builder) matchedTags(ctx context.Context, p *core.UserProfile, tags map[string]float64) []core.MatchedEntry {
	if len(tags) == 0 {
		return nil
	}

	var maxDisplay float64
	for _, d := range p.TagDisplay {
		if d > maxDisplay {
			maxDisplay = d
		}
	}
	if maxDisplay <= 0 {
		return nil
	}

	entries := make([]core.MatchedEntry, 0, len(tags))
	for tagID := range tags {
		display, ok := p.TagDisplay[tagID]
		if !ok || display <= 0 {
			continue
		}
		entries = append(entries, core.MatchedEntry{
			ID:       tagID,
			Strength: normalizedStrength(display, maxDisplay),
		})
	}
	return b.finishEntries(ctx, entries, maxMatchedTags)
}

func (b *Builder) matchedCreators(ctx context.Context, p *core.UserProfile, kind core.CreatorKind, creators []string) []core.MatchedEntry {
	deltas := p.CreatorDeltas[kind]
	if len(deltas) == 0 || len(creators) == 0 {
		return nil
	}

	var maxWeighted float64
	for _, delta := range deltas {
		if w := delta + p.OverallAverage; w > maxWeighted {
			maxWeighted = w
		}
	}
	if maxWeighted <= 0 {
		return nil
	}

	entries := make([]core.MatchedEntry, 0, len(creators))
	for _, creatorID := range creators {
		delta, ok := deltas[creatorID]
		if !ok || delta <= 0 {
			continue
		}
		entries = append(entries, core.MatchedEntry{
			ID:       creatorID,
			Strength: normalizedStrength(delta+p.OverallAverage, maxWeighted),
		})
	}
	return b.finishEntries(ctx, entries, maxMatchedCreators)
}

func (b *Builder) matchedTraits(ctx context.Context, p *core.UserProfile, traits map[string]int) []core.MatchedEntry {
	deltas := p.CreatorDeltas[core.KindTrait]
	if len(deltas) == 0 || len(traits) == 0 {
		return nil
	}

	var maxWeighted float64
	for _, delta := range deltas {
		if w := delta + p.OverallAverage; w > maxWeighted {
			maxWeighted = w
		}
	}
	if maxWeighted <= 0 {
		return nil
	}

	entries := make([]core.MatchedEntry, 0, len(traits))
	for traitID := range traits {
		delta, ok := deltas[traitID]
		if !ok || delta <= 0 {
			continue
		}
		entries = append(entries, core.MatchedEntry{
			ID:       traitID,
			Strength: normalizedStrength(delta+p.OverallAverage, maxWeighted),
		})
	}
	return b.finishEntries(ctx, entries, maxMatchedTraits)
}

// finishEntries sorts by descending strength, truncates, and resolves
// display names in one batched lookup.
func (b *Builder) finishEntries(ctx context.Context, entries []core.MatchedEntry, limit int) []core.MatchedEntry {
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Strength != entries[j].Strength {
			return entries[i].Strength > entries[j].Strength
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	names, err := b.Catalog.Names(ctx, ids)
	if err != nil {
		b.logger().Warn("explain name lookup degraded", zap.Error(err))
		return entries
	}
	for i := range entries {
		entries[i].Name = names[entries[i].ID]
	}
	return entries
}

func contributingItems(
	tags map[string]float64,
	favorites []core.RatedItem,
	favoriteTags map[string]map[string]float64,
	favoriteTitles map[string]string,
) []core.ContributingItem {
	if len(tags) == 0 || len(favorites) == 0 || favoriteTags == nil {
		return nil
	}

	out := make([]core.ContributingItem, 0, maxContributing)
	for _, fav := range favorites {
		sim := tagCosine(tags, favoriteTags[fav.ID])
		if sim <= contributionThreshold {
			continue
		}
		out = append(out, core.ContributingItem{
			ID:         fav.ID,
			Title:      favoriteTitles[fav.ID],
			Similarity: sim,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > maxContributing {
		out = out[:maxContributing]
	}
	return out
}

func normalizedStrength(value, max float64) int {
	if max <= 0 {
		return 0
	}
	s := math.Round(100 * value / max)
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return int(s)
}

func tagCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
