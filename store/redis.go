package store

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Redis is the production Catalog backed by the keys the import pipeline
// maintains:
//
//	vn:meta:{id}           JSON core.VN
//	vn:tags:{id}           hash  tag id   -> relevance
//	vn:traits:{id}         hash  trait id -> character count
//	vn:creators:{kind}:{id} set  creator ids
//	sim:{seed}             zset  item id  -> similarity
//	cooc:{seed}            zset  item id  -> co-rating score
//	cooc:users:{seed}      hash  item id  -> corroborating users
//	tag:items:{tag id}     zset  item id  -> relevance
//	vn:by_rating           zset  item id  -> rating
//	stats:total_items      string
//	stats:tag_counts       hash  tag id   -> item count
//	name:{id}              string display name
//
// Every method issues one pipelined round trip per key family.
type Redis struct {
	client *redis.Client

	// ExploreSampleCap bounds how many eligible ids the exploration
	// sampler pulls before shuffling (default 2000).
	ExploreSampleCap int
}

func NewRedis(addr string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client (pools, sentinel, tests).
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) TagsForItems(ctx context.Context, ids []string) (map[string]map[string]float64, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, "vn:tags:"+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(ids))
	for i, id := range ids {
		raw, err := cmds[i].Result()
		if err != nil || len(raw) == 0 {
			continue
		}
		tags := make(map[string]float64, len(raw))
		for tagID, v := range raw {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				tags[tagID] = f
			}
		}
		out[id] = tags
	}
	return out, nil
}

func (r *Redis) CreatorsForItems(ctx context.Context, ids []string, kind core.CreatorKind) (map[string][]string, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.SMembers(ctx, "vn:creators:"+string(kind)+":"+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(ids))
	for i, id := range ids {
		members, err := cmds[i].Result()
		if err == nil && len(members) > 0 {
			out[id] = members
		}
	}
	return out, nil
}

func (r *Redis) TraitsForItems(ctx context.Context, ids []string) (map[string]map[string]int, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, "vn:traits:"+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]int, len(ids))
	for i, id := range ids {
		raw, err := cmds[i].Result()
		if err != nil || len(raw) == 0 {
			continue
		}
		traits := make(map[string]int, len(raw))
		for traitID, v := range raw {
			if n, err := strconv.Atoi(v); err == nil {
				traits[traitID] = n
			}
		}
		out[id] = traits
	}
	return out, nil
}

func (r *Redis) SimilarItems(ctx context.Context, seeds []string) ([]core.SimilarRow, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.ZSliceCmd, len(seeds))
	for i, seed := range seeds {
		cmds[i] = pipe.ZRevRangeWithScores(ctx, "sim:"+seed, 0, 99)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	var out []core.SimilarRow
	for i, seed := range seeds {
		zs, err := cmds[i].Result()
		if err != nil {
			continue
		}
		for _, z := range zs {
			item, ok := z.Member.(string)
			if !ok {
				continue
			}
			out = append(out, core.SimilarRow{Seed: seed, Item: item, Score: z.Score})
		}
	}
	return out, nil
}

func (r *Redis) CoOccurringItems(ctx context.Context, seeds []string) ([]core.CoOccurRow, error) {
	pipe := r.client.Pipeline()
	scoreCmds := make([]*redis.ZSliceCmd, len(seeds))
	userCmds := make([]*redis.MapStringStringCmd, len(seeds))
	for i, seed := range seeds {
		scoreCmds[i] = pipe.ZRevRangeWithScores(ctx, "cooc:"+seed, 0, 99)
		userCmds[i] = pipe.HGetAll(ctx, "cooc:users:"+seed)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	var out []core.CoOccurRow
	for i, seed := range seeds {
		zs, err := scoreCmds[i].Result()
		if err != nil {
			continue
		}
		users, _ := userCmds[i].Result()
		for _, z := range zs {
			item, ok := z.Member.(string)
			if !ok {
				continue
			}
			count := 0
			if raw, ok := users[item]; ok {
				count, _ = strconv.Atoi(raw)
			}
			out = append(out, core.CoOccurRow{Seed: seed, Item: item, Score: z.Score, Users: count})
		}
	}
	return out, nil
}

func (r *Redis) ItemMetadata(ctx context.Context, ids []string) (map[string]*core.VN, error) {
	if len(ids) == 0 {
		return map[string]*core.VN{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "vn:meta:" + id
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*core.VN, len(ids))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var vn core.VN
		if json.Unmarshal([]byte(s), &vn) == nil {
			out[ids[i]] = &vn
		}
	}
	return out, nil
}

func (r *Redis) Stats(ctx context.Context) (core.CatalogStats, error) {
	pipe := r.client.Pipeline()
	totalCmd := pipe.Get(ctx, "stats:total_items")
	countsCmd := pipe.HGetAll(ctx, "stats:tag_counts")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return core.CatalogStats{}, err
	}

	stats := core.CatalogStats{TagItemCounts: make(map[string]int)}
	if raw, err := totalCmd.Result(); err == nil {
		stats.TotalItems, _ = strconv.Atoi(raw)
	}
	if raw, err := countsCmd.Result(); err == nil {
		for tagID, v := range raw {
			if n, err := strconv.Atoi(v); err == nil {
				stats.TagItemCounts[tagID] = n
			}
		}
	}
	return stats, nil
}

func (r *Redis) ItemsWithTag(ctx context.Context, tagID string, minRelevance float64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.client.ZRevRangeByScore(ctx, "tag:items:"+tagID, &redis.ZRangeBy{
		Min:   strconv.FormatFloat(minRelevance, 'f', -1, 64),
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
}

func (r *Redis) RandomItems(ctx context.Context, n int, minRating float64, rnd *rand.Rand) ([]string, error) {
	sampleCap := r.ExploreSampleCap
	if sampleCap <= 0 {
		sampleCap = 2000
	}
	ids, err := r.client.ZRevRangeByScore(ctx, "vn:by_rating", &redis.ZRangeBy{
		Min:   strconv.FormatFloat(minRating, 'f', -1, 64),
		Max:   "+inf",
		Count: int64(sampleCap),
	}).Result()
	if err != nil {
		return nil, err
	}

	if rnd != nil {
		rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func (r *Redis) TopRated(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.client.ZRevRange(ctx, "vn:by_rating", 0, int64(limit-1)).Result()
}

func (r *Redis) Names(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "name:" + id
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(ids))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[ids[i]] = s
		}
	}
	return out, nil
}

var _ core.Catalog = (*Redis)(nil)
