package rank

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/drinosaret/vn-club-resources-sub000/core"
	"github.com/drinosaret/vn-club-resources-sub000/pipeline"
)

// Scorer is the rank node: it loads one batched snapshot for the whole
// candidate pool, computes the eight signals per candidate, combines them
// under the fixed weights, and returns the pool sorted by descending
// combined score. Sub-scores are written once here and never rewritten.
type Scorer struct {
	Catalog core.Catalog
	Weights Weights

	// MaxFavorites bounds the similarity/co-occurrence seed set
	// (default 20).
	MaxFavorites int

	Logger *zap.Logger
}

func (n *Scorer) Name() string        { return "rank.signals" }
func (n *Scorer) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Scorer) logger() *zap.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return zap.NewNop()
}

func (n *Scorer) weights() Weights {
	if n.Weights.Total() <= 0 {
		return DefaultWeights()
	}
	return n.Weights
}

func (n *Scorer) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil || rctx.Profile == nil {
		return items, nil
	}
	p := rctx.Profile

	maxFavorites := n.MaxFavorites
	if maxFavorites <= 0 {
		maxFavorites = 20
	}
	favorites := p.TopFavorites(maxFavorites)
	seeds := make([]string, len(favorites))
	for i, f := range favorites {
		seeds[i] = f.ID
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}

	snap := loadSnapshot(ctx, n.Catalog, n.logger(), ids, seeds)
	w := n.weights()
	total := w.Total()

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		it.Signals = core.Signals{
			Tag:       tagSignal(p, it.ID, snap),
			Similar:   similarSignal(p, it.ID, snap),
			CoOccur:   coOccurSignal(p, it.ID, snap),
			Developer: creatorSignal(p, it.ID, snap, core.KindDeveloper),
			Staff:     creatorSignal(p, it.ID, snap, core.KindStaff),
			Seiyuu:    creatorSignal(p, it.ID, snap, core.KindSeiyuu),
			Trait:     traitSignal(p, it.ID, snap),
			Quality:   qualitySignal(p, it.ID, snap),
		}
		s := it.Signals
		it.Score = s.Tag*w.Tag + s.Similar*w.Similar + s.CoOccur*w.CoOccur +
			s.Developer*w.Developer + s.Staff*w.Staff + s.Seiyuu*w.Seiyuu +
			s.Trait*w.Trait + s.Quality*w.Quality
		it.Display = displayScore(it.Score, total)

		// The rerank stage needs tag vectors; stash them so it never
		// re-queries the catalog.
		if tags, ok := snap.Tags[it.ID]; ok {
			it.Meta["tags"] = tags
		}
		if meta, ok := snap.Metas[it.ID]; ok {
			it.Meta["title"] = meta.Title
		}

		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// displayScore normalizes a combined score to 0-100 for presentation.
func displayScore(score, totalWeight float64) int {
	if totalWeight <= 0 {
		return 0
	}
	d := math.Round(100 * score / totalWeight)
	if d > 100 {
		d = 100
	}
	if d < 0 {
		d = 0
	}
	return int(d)
}
