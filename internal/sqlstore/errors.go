// Driver error classification. Integrity rejections (foreign key,
// uniqueness, not-null) from either engine are folded into
// resource.ConstraintError at the save boundary; everything else is wrapped
// with operation context and propagated as-is.
package sqlstore

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/weftdb/weft/pkg/resource"
)

// wrapStoreErr wraps a driver error from a write statement or commit.
func (s *Store) wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintErr(err) {
		return &resource.ConstraintError{Op: op, Err: err}
	}
	return errors.Wrap(err, op)
}

// isConstraintErr reports whether err is an integrity-constraint rejection
// from SQLite or Postgres.
func isConstraintErr(err error) bool {
	var se *sqlite.Error
	if stderrors.As(err, &se) {
		return se.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT
	}
	var pe *pgconn.PgError
	if stderrors.As(err, &pe) {
		// Class 23 — integrity constraint violation.
		return strings.HasPrefix(pe.Code, "23")
	}
	return false
}
