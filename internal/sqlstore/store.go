// Package sqlstore implements the Weft persistence context over database/sql.
// SQLite (modernc.org/sqlite) is the default engine; Postgres is available
// through the pgx stdlib driver. One Store serves one catalog; every unit of
// work is a session created by Begin.
package sqlstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

// DBFileName is the SQLite database file created inside Config.DataDir.
const DBFileName = "weft.db"

// Store implements store.Store for SQLite and Postgres.
type Store struct {
	db      *sql.DB
	catalog *resource.Catalog
	driver  string
}

var _ store.Store = (*Store)(nil)

// Open connects to the configured store. The connection is lazy; the first
// statement (usually EnsureSchema) surfaces connectivity errors.
func Open(cfg store.Config, catalog *resource.Catalog) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "opening store: nil catalog")
	}

	switch cfg.Driver {
	case store.DriverSQLite:
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating data dir")
		}
		dsn := "file:" + filepath.Join(dataDir, DBFileName) +
			"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		// modernc/sqlite allows one writer; a single pooled connection also
		// keeps the foreign_keys pragma on every statement we run.
		db.SetMaxOpenConns(1)
		return &Store{db: db, catalog: catalog, driver: store.DriverSQLite}, nil

	case store.DriverPostgres:
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
		return &Store{db: db, catalog: catalog, driver: store.DriverPostgres}, nil

	default:
		return nil, store.ErrDriverUnknown
	}
}

// Catalog returns the resource-graph metadata the store was opened with.
func (s *Store) Catalog() *resource.Catalog { return s.catalog }

// Begin opens a new unit of work.
func (s *Store) Begin(ctx context.Context) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newSession(s), nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates every catalog table, join table, and index that does
// not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range SchemaStatements(s.catalog) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "applying schema statement %q", stmt)
		}
	}
	return nil
}

// placeholder returns the driver-appropriate parameter marker for the n-th
// (1-based) argument.
func (s *Store) placeholder(n int) string {
	if s.driver == store.DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}
