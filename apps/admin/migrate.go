package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/storage/kv"
)

var (
	migrateFunc = migratePostgres // mockable

	errNotPostgres = errors.New("migrations only apply to the postgres store")
)

func migratePostgres(ctx context.Context, conf core.DatabaseConfig) error {
	if err := kv.CreateIfNotExist(conf); err != nil {
		return err
	}
	db, err := kv.OpenPostgres(conf)
	if err != nil {
		return err
	}
	defer db.Close()
	return kv.Migrate(ctx, db)
}

func (cli *commandLine) migrate() error {
	if cli.conf.Store.Driver != kv.DriverPostgres {
		return errNotPostgres
	}
	if err := migrateFunc(context.Background(), cli.conf.Store.Database); err != nil {
		return errors.Wrap(err, "migrating")
	}
	cli.printf("store migrated\n")
	return nil
}
