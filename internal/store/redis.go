package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PratikDhanave/telescope-livewire/internal/models"
)

// Redis Key Structure:
//
//	telescope:entries:seq          - Counter handing out entry sequences
//	telescope:entries:data         - Hash of uuid -> entry JSON
//	telescope:entries:index:{type} - Sorted set of uuids scored by sequence
const (
	redisSeqKey   = "telescope:entries:seq"
	redisDataKey  = "telescope:entries:data"
	redisIndexKey = "telescope:entries:index:"
)

// RedisStore keeps a capped window of recent entries per type in Redis.
type RedisStore struct {
	client *redis.Client
	max    int64
}

// NewRedisStore wraps an existing client. Each entry type keeps at most max
// entries (1000 if max <= 0).
func NewRedisStore(client *redis.Client, max int) *RedisStore {
	if max <= 0 {
		max = 1000
	}
	return &RedisStore{client: client, max: int64(max)}
}

// NewRedisStoreFromURL connects to redisURL and fails fast if it is unreachable.
func NewRedisStoreFromURL(ctx context.Context, redisURL string, max int) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisStore(client, max), nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() {
	_ = r.client.Close()
}

// Store writes entries and trims each touched type index to the cap.
// Entries whose UUID is already stored are skipped.
func (r *RedisStore) Store(ctx context.Context, entries []models.Entry) error {
	fresh := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		exists, err := r.client.HExists(ctx, redisDataKey, e.UUID).Result()
		if err != nil {
			return err
		}
		if !exists {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	last, err := r.client.IncrBy(ctx, redisSeqKey, int64(len(fresh))).Result()
	if err != nil {
		return err
	}
	first := last - int64(len(fresh)) + 1

	types := map[string]bool{}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, e := range fresh {
			e.Sequence = first + int64(i)
			b, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode entry %s: %w", e.UUID, err)
			}
			pipe.HSet(ctx, redisDataKey, e.UUID, b)
			pipe.ZAdd(ctx, redisIndexKey+e.Type, redis.Z{Score: float64(e.Sequence), Member: e.UUID})
			types[e.Type] = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	for typ := range types {
		if err := r.trim(ctx, redisIndexKey+typ); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisStore) trim(ctx context.Context, index string) error {
	stale, err := r.client.ZRange(ctx, index, 0, -r.max-1).Result()
	if err != nil || len(stale) == 0 {
		return err
	}

	members := make([]any, len(stale))
	for i, s := range stale {
		members[i] = s
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, index, members...)
		pipe.HDel(ctx, redisDataKey, stale...)
		return nil
	})
	return err
}

// List returns entries of q.Type newest first.
func (r *RedisStore) List(ctx context.Context, q ListQuery) ([]models.Entry, error) {
	q = q.normalized()

	upper := "+inf"
	if q.BeforeSequence > 0 {
		upper = "(" + strconv.FormatInt(q.BeforeSequence, 10)
	}

	ids, err := r.client.ZRevRangeByScore(ctx, redisIndexKey+q.Type, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   upper,
		Count: int64(q.Limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	out := []models.Entry{}
	if len(ids) == 0 {
		return out, nil
	}

	values, err := r.client.HMGet(ctx, redisDataKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e models.Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Find returns the entry with the given UUID.
func (r *RedisStore) Find(ctx context.Context, uuid string) (models.Entry, error) {
	s, err := r.client.HGet(ctx, redisDataKey, uuid).Result()
	if errors.Is(err, redis.Nil) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, err
	}

	var e models.Entry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return models.Entry{}, fmt.Errorf("decode entry %s: %w", uuid, err)
	}
	return e, nil
}
