package store

import (
	"context"
	"database/sql"
	"math/rand"

	"github.com/lib/pq"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Postgres is the Catalog over the imported VNDB dump tables. Every lookup
// is one `= ANY($1)` batch query; the import pipeline owns the schema and
// refreshes the precomputed vn_similar / vn_cooccur tables out-of-band.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects with the lib/pq driver.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) TagsForItems(ctx context.Context, ids []string) (map[string]map[string]float64, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT vid, tag, rating FROM vn_tags WHERE vid = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]float64, len(ids))
	for rows.Next() {
		var vid, tag string
		var rating float64
		if err := rows.Scan(&vid, &tag, &rating); err != nil {
			return nil, err
		}
		if out[vid] == nil {
			out[vid] = make(map[string]float64)
		}
		out[vid][tag] = rating
	}
	return out, rows.Err()
}

func (p *Postgres) CreatorsForItems(ctx context.Context, ids []string, kind core.CreatorKind) (map[string][]string, error) {
	var query string
	switch kind {
	case core.KindDeveloper:
		query = `SELECT vid, pid FROM vn_developers WHERE vid = ANY($1)`
	case core.KindStaff:
		query = `SELECT vid, aid FROM vn_staff WHERE vid = ANY($1)`
	case core.KindSeiyuu:
		query = `SELECT vid, aid FROM vn_seiyuu WHERE vid = ANY($1)`
	default:
		return map[string][]string{}, nil
	}

	rows, err := p.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string, len(ids))
	for rows.Next() {
		var vid, creator string
		if err := rows.Scan(&vid, &creator); err != nil {
			return nil, err
		}
		out[vid] = append(out[vid], creator)
	}
	return out, rows.Err()
}

func (p *Postgres) TraitsForItems(ctx context.Context, ids []string) (map[string]map[string]int, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT vid, trait, char_count FROM vn_traits WHERE vid = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]int, len(ids))
	for rows.Next() {
		var vid, trait string
		var count int
		if err := rows.Scan(&vid, &trait, &count); err != nil {
			return nil, err
		}
		if out[vid] == nil {
			out[vid] = make(map[string]int)
		}
		out[vid][trait] = count
	}
	return out, rows.Err()
}

func (p *Postgres) SimilarItems(ctx context.Context, seeds []string) ([]core.SimilarRow, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT seed, vid, score FROM vn_similar WHERE seed = ANY($1) ORDER BY score DESC`,
		pq.Array(seeds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SimilarRow
	for rows.Next() {
		var row core.SimilarRow
		if err := rows.Scan(&row.Seed, &row.Item, &row.Score); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *Postgres) CoOccurringItems(ctx context.Context, seeds []string) ([]core.CoOccurRow, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT seed, vid, score, users FROM vn_cooccur WHERE seed = ANY($1) ORDER BY score DESC`,
		pq.Array(seeds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.CoOccurRow
	for rows.Next() {
		var row core.CoOccurRow
		if err := rows.Scan(&row.Seed, &row.Item, &row.Score, &row.Users); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *Postgres) ItemMetadata(ctx context.Context, ids []string) (map[string]*core.VN, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(rating, 0), COALESCE(votecount, 0),
		        COALESCE(length_minutes, 0), COALESCE(olang, '')
		   FROM vn WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*core.VN, len(ids))
	for rows.Next() {
		vn := &core.VN{}
		if err := rows.Scan(&vn.ID, &vn.Title, &vn.Rating, &vn.VoteCount,
			&vn.LengthMinutes, &vn.Language); err != nil {
			return nil, err
		}
		out[vn.ID] = vn
	}
	return out, rows.Err()
}

func (p *Postgres) Stats(ctx context.Context) (core.CatalogStats, error) {
	stats := core.CatalogStats{TagItemCounts: make(map[string]int)}

	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vn`).Scan(&stats.TotalItems); err != nil {
		return stats, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT tag, COUNT(DISTINCT vid) FROM vn_tags GROUP BY tag`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return stats, err
		}
		stats.TagItemCounts[tag] = count
	}
	return stats, rows.Err()
}

func (p *Postgres) ItemsWithTag(ctx context.Context, tagID string, minRelevance float64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT vid FROM vn_tags WHERE tag = $1 AND rating >= $2
		  ORDER BY rating DESC LIMIT $3`, tagID, minRelevance, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// RandomItems samples server-side; the injected random source only applies
// to in-process backends, replayed requests against postgres stay novel.
func (p *Postgres) RandomItems(ctx context.Context, n int, minRating float64, _ *rand.Rand) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM vn WHERE COALESCE(rating, 0) >= $1
		  ORDER BY random() LIMIT $2`, minRating, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (p *Postgres) TopRated(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM vn ORDER BY COALESCE(rating, 0) DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (p *Postgres) Names(ctx context.Context, ids []string) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name FROM names WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ core.Catalog = (*Postgres)(nil)
