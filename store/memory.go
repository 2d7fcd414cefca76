package store

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Memory is the in-memory Catalog used by tests, examples and prototypes.
// Populate it fully before serving requests: the per-tag and by-rating
// indexes are built lazily at most once on first read and treated as
// immutable afterwards.
type Memory struct {
	mu      sync.RWMutex
	items   map[string]*core.VN
	similar map[string][]core.SimilarRow
	cooccur map[string][]core.CoOccurRow
	names   map[string]string

	indexOnce sync.Once
	tagIndex  map[string][]tagRef
	byRating  []string
	allIDs    []string
}

type tagRef struct {
	itemID    string
	relevance float64
}

func NewMemory() *Memory {
	return &Memory{
		items:   make(map[string]*core.VN),
		similar: make(map[string][]core.SimilarRow),
		cooccur: make(map[string][]core.CoOccurRow),
		names:   make(map[string]string),
	}
}

// AddItem registers an item. Call before the first read.
func (m *Memory) AddItem(vn *core.VN) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[vn.ID] = vn
	if vn.Title != "" {
		m.names[vn.ID] = vn.Title
	}
}

// AddSimilar registers a precomputed similarity row.
func (m *Memory) AddSimilar(seed, item string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similar[seed] = append(m.similar[seed], core.SimilarRow{Seed: seed, Item: item, Score: score})
}

// AddCoOccur registers a precomputed co-rating row.
func (m *Memory) AddCoOccur(seed, item string, score float64, users int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooccur[seed] = append(m.cooccur[seed], core.CoOccurRow{Seed: seed, Item: item, Score: score, Users: users})
}

// SetName registers a display name for a tag/trait/producer/staff id.
func (m *Memory) SetName(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = name
}

// buildIndexes runs at most once; repeated population would be idempotent
// anyway, the guard just avoids the wasted work.
func (m *Memory) buildIndexes() {
	m.indexOnce.Do(func() {
		m.mu.RLock()
		defer m.mu.RUnlock()

		m.tagIndex = make(map[string][]tagRef)
		m.allIDs = make([]string, 0, len(m.items))
		for id, vn := range m.items {
			m.allIDs = append(m.allIDs, id)
			for tagID, relevance := range vn.Tags {
				m.tagIndex[tagID] = append(m.tagIndex[tagID], tagRef{itemID: id, relevance: relevance})
			}
		}
		sort.Strings(m.allIDs)
		for tagID := range m.tagIndex {
			refs := m.tagIndex[tagID]
			sort.Slice(refs, func(i, j int) bool {
				if refs[i].relevance != refs[j].relevance {
					return refs[i].relevance > refs[j].relevance
				}
				return refs[i].itemID < refs[j].itemID
			})
		}

		m.byRating = append([]string(nil), m.allIDs...)
		sort.Slice(m.byRating, func(i, j int) bool {
			a, b := m.items[m.byRating[i]], m.items[m.byRating[j]]
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.ID < b.ID
		})
	})
}

func (m *Memory) TagsForItems(_ context.Context, ids []string) (map[string]map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]float64, len(ids))
	for _, id := range ids {
		if vn, ok := m.items[id]; ok && len(vn.Tags) > 0 {
			out[id] = vn.Tags
		}
	}
	return out, nil
}

func (m *Memory) CreatorsForItems(_ context.Context, ids []string, kind core.CreatorKind) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]string, len(ids))
	for _, id := range ids {
		vn, ok := m.items[id]
		if !ok {
			continue
		}
		var creators []string
		switch kind {
		case core.KindDeveloper:
			creators = vn.Developers
		case core.KindStaff:
			creators = vn.Staff
		case core.KindSeiyuu:
			creators = vn.Seiyuu
		}
		if len(creators) > 0 {
			out[id] = creators
		}
	}
	return out, nil
}

func (m *Memory) TraitsForItems(_ context.Context, ids []string) (map[string]map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]int, len(ids))
	for _, id := range ids {
		if vn, ok := m.items[id]; ok && len(vn.Traits) > 0 {
			out[id] = vn.Traits
		}
	}
	return out, nil
}

func (m *Memory) SimilarItems(_ context.Context, seeds []string) ([]core.SimilarRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.SimilarRow
	for _, seed := range seeds {
		out = append(out, m.similar[seed]...)
	}
	return out, nil
}

func (m *Memory) CoOccurringItems(_ context.Context, seeds []string) ([]core.CoOccurRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.CoOccurRow
	for _, seed := range seeds {
		out = append(out, m.cooccur[seed]...)
	}
	return out, nil
}

func (m *Memory) ItemMetadata(_ context.Context, ids []string) (map[string]*core.VN, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*core.VN, len(ids))
	for _, id := range ids {
		if vn, ok := m.items[id]; ok {
			out[id] = vn
		}
	}
	return out, nil
}

func (m *Memory) Stats(_ context.Context) (core.CatalogStats, error) {
	m.buildIndexes()

	counts := make(map[string]int, len(m.tagIndex))
	for tagID, refs := range m.tagIndex {
		counts[tagID] = len(refs)
	}
	return core.CatalogStats{
		TotalItems:    len(m.allIDs),
		TagItemCounts: counts,
	}, nil
}

func (m *Memory) ItemsWithTag(_ context.Context, tagID string, minRelevance float64, limit int) ([]string, error) {
	m.buildIndexes()

	out := make([]string, 0, limit)
	for _, ref := range m.tagIndex[tagID] {
		if ref.relevance < minRelevance {
			break // refs sorted by descending relevance
		}
		out = append(out, ref.itemID)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) RandomItems(_ context.Context, n int, minRating float64, r *rand.Rand) ([]string, error) {
	m.buildIndexes()
	m.mu.RLock()
	defer m.mu.RUnlock()

	eligible := make([]string, 0, len(m.allIDs))
	for _, id := range m.allIDs {
		if m.items[id].Rating >= minRating {
			eligible = append(eligible, id)
		}
	}
	if r != nil {
		r.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})
	}
	if n > 0 && len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible, nil
}

func (m *Memory) TopRated(_ context.Context, limit int) ([]string, error) {
	m.buildIndexes()

	out := m.byRating
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]string(nil), out...), nil
}

func (m *Memory) Names(_ context.Context, ids []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := m.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

var _ core.Catalog = (*Memory)(nil)
