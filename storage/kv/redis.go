package kv

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/escola/core"
)

// RedisStore keeps each key as a redis string under prefix.
// Writes fail with core.ErrStorageFull when redis runs out of memory (maxmemory)
// or when the configured quota would be exceeded.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	quota  int64
}

var _ core.KVStore = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, prefix string, quota int64) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, quota: quota}
}

// OpenRedis connects to the redis server of conf and checks the connection.
func OpenRedis(ctx context.Context, conf core.StoreConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Wrap(core.ErrKeyNotFound, key)
		}
		return nil, errors.Wrapf(err, "getting %s", key)
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	if s.quota != 0 {
		used, err := s.usage(ctx, key)
		if err != nil {
			return err
		}
		if !fits(s.quota, used, len(value)) {
			return errors.Wrap(core.ErrStorageFull, key)
		}
	}

	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		if isOOM(err) {
			return errors.Wrap(core.ErrStorageFull, key)
		}
		return errors.Wrapf(err, "setting %s", key)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

// usage sums the length of every known key except key.
func (s *RedisStore) usage(ctx context.Context, key string) (int64, error) {
	if s.quota == core.RejectAllWrites {
		return 0, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, 0, len(core.AllKeys))
	for _, k := range core.AllKeys {
		if k != key {
			cmds = append(cmds, pipe.StrLen(ctx, s.prefix+k))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, errors.Wrap(err, "measuring usage")
	}
	var used int64
	for _, cmd := range cmds {
		used += cmd.Val()
	}
	return used, nil
}

func isOOM(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM ")
}
