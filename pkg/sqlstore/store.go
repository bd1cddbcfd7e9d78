// Package sqlstore provides the public API for the SQL-backed Weft store.
// It exposes the factory function while keeping the implementation internal.
//
// Example:
//
//	st, err := sqlstore.Open(store.Config{
//	    Driver:  store.DriverSQLite,
//	    DataDir: ".weft",
//	}, catalog)
//	defer st.Close()
package sqlstore

import (
	internal "github.com/weftdb/weft/internal/sqlstore"
	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

// Store is the SQL-backed store. It implements store.Store and additionally
// exposes schema bootstrapping.
type Store = internal.Store

// Open connects to the configured store (SQLite or Postgres) for the given
// catalog. Call EnsureSchema before the first unit of work on a fresh
// database.
func Open(cfg store.Config, catalog *resource.Catalog) (*Store, error) {
	return internal.Open(cfg, catalog)
}

// SchemaStatements returns the DDL the store would apply for the catalog,
// for callers that manage schema externally.
func SchemaStatements(catalog *resource.Catalog) []string {
	return internal.SchemaStatements(catalog)
}
