package kv

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
)

// Backend tests need a live server: TEST_REDIS_ADDR=localhost:6379, TEST_POSTGRES_DSN=postgres://...

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := OpenRedis(ctx, core.StoreConfig{RedisAddr: addr})
	require.NoError(t, err)
	defer rdb.Close()

	prefix := "escola-test-" + core.NewID() + ":"
	defer func() {
		keys, _ := rdb.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
	}()

	checkLoadSaveRemove(t, NewRedisStore(rdb, prefix, 0))

	s := NewRedisStore(rdb, prefix, 15)
	require.NoError(t, s.Save(ctx, core.KeyClasses, []byte("0123456789")))
	err = s.Save(ctx, core.KeyUsers, []byte("0123456789"))
	assert.True(t, errors.Is(err, core.ErrStorageFull))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `DELETE FROM collections`)
	require.NoError(t, err)

	checkLoadSaveRemove(t, NewPostgresStore(db, 0))

	s := NewPostgresStore(db, core.RejectAllWrites)
	err = s.Save(ctx, core.KeyUsers, []byte("[]"))
	assert.True(t, errors.Is(err, core.ErrStorageFull))
}
