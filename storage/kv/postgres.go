package kv

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	appfs "github.com/trezcool/escola/fs"
)

const (
	schemaFile = "sql/collections.sql"

	// postgres error codes
	pqDiskFull       = "53100"
	pqOutOfMemory    = "53200"
	pqProgramLimited = "54000"
)

// PostgresStore keeps every key as a row of the collections table.
type PostgresStore struct {
	db    *sqlx.DB
	quota int64
}

var _ core.KVStore = (*PostgresStore)(nil)

func NewPostgresStore(db *sqlx.DB, quota int64) *PostgresStore {
	return &PostgresStore{db: db, quota: quota}
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.GetContext(ctx, &value, `SELECT value FROM collections WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(core.ErrKeyNotFound, key)
		}
		return nil, errors.Wrapf(err, "selecting %s", key)
	}
	return value, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, value []byte) error {
	if s.quota != 0 {
		var used int64
		if s.quota != core.RejectAllWrites {
			q := `SELECT COALESCE(SUM(octet_length(value)), 0) FROM collections WHERE key <> $1`
			if err := s.db.GetContext(ctx, &used, q, key); err != nil {
				return errors.Wrap(err, "measuring usage")
			}
		}
		if !fits(s.quota, used, len(value)) {
			return errors.Wrap(core.ErrStorageFull, key)
		}
	}

	q := `INSERT INTO collections (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqDiskFull, pqOutOfMemory, pqProgramLimited:
				return errors.Wrap(core.ErrStorageFull, key)
			}
		}
		return errors.Wrapf(err, "upserting %s", key)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func openDB(dbName string, admin bool, conf core.DatabaseConfig) (*sqlx.DB, error) {
	user := url.UserPassword(conf.User, conf.Password)
	if admin && conf.AdminUser != "" {
		user = url.UserPassword(conf.AdminUser, conf.AdminPassword)
	}

	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Engine,
		User:     user,
		Host:     conf.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Engine, u.String())
}

// OpenPostgres connects to the application database.
func OpenPostgres(conf core.DatabaseConfig) (*sqlx.DB, error) {
	db, err := openDB(conf.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, q string, arg string) (bool, error) {
	var found bool
	if err := db.Get(&found, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return found, nil
}

func createAppUser(db *sqlx.DB, conf core.DatabaseConfig) error {
	if conf.User == "" {
		return nil
	}

	found, err := exists(db, `SELECT true FROM pg_roles WHERE rolname = $1`, conf.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
			pq.QuoteIdentifier(conf.User), pq.QuoteLiteral(conf.Password))
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf core.DatabaseConfig) error {
	found, err := exists(db, `SELECT true FROM pg_database WHERE datname = $1`, conf.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(conf.Name))); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the application role and database when missing.
func CreateIfNotExist(conf core.DatabaseConfig) error {
	// connect as admin
	db, err := openDB("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	appDB, err := openDB("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()
	if err = createDB(appDB, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// Migrate creates the collections table.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema, err := appfs.FS.ReadFile(schemaFile)
	if err != nil {
		return errors.Wrap(err, "reading schema")
	}
	if _, err = db.ExecContext(ctx, string(schema)); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
