// Package kv provides the durable backends of the Record Store.
package kv

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// Drivers
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open returns the backend selected by conf.Driver and a func releasing its resources.
func Open(ctx context.Context, conf core.StoreConfig) (core.KVStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(conf.Driver) {
	case DriverMemory, "":
		return NewMemoryStore(conf.Quota), noop, nil

	case DriverFile:
		s, err := NewFileStore(conf.Dir, conf.Quota)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case DriverRedis:
		rdb, err := OpenRedis(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(rdb, conf.RedisPrefix, conf.Quota), rdb.Close, nil

	case DriverPostgres:
		if conf.Database.AdminUser != "" {
			if err := CreateIfNotExist(conf.Database); err != nil {
				return nil, nil, err
			}
		}
		db, err := OpenPostgres(conf.Database)
		if err != nil {
			return nil, nil, err
		}
		if err = Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return NewPostgresStore(db, conf.Quota), db.Close, nil
	}
	return nil, nil, errors.Errorf("unknown store driver %q", conf.Driver)
}
