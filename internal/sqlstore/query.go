// Read path: single-row and filtered selects, hydrated through the identity
// map so a tracked instance is never duplicated by a query.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

// Fetch returns the resources matching src. Rows whose identity is already
// tracked resolve to the tracked instance.
func (s *session) Fetch(ctx context.Context, src store.Source) ([]*resource.Resource, error) {
	t, ok := s.st.catalog.Type(src.Type)
	if !ok {
		return nil, errors.Wrapf(resource.ErrUnknownType, "fetching %q", src.Type)
	}

	query, args, err := s.buildSelect(t, src)
	if err != nil {
		return nil, err
	}
	rows, err := s.st.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", t.Name)
	}
	defer rows.Close()

	var out []*resource.Resource
	for rows.Next() {
		res, err := s.scanResource(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s.resolveTracked(res))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "fetching %s", t.Name)
	}
	return out, nil
}

// Count returns the number of rows matching src.
func (s *session) Count(ctx context.Context, src store.Source) (int, error) {
	t, ok := s.st.catalog.Type(src.Type)
	if !ok {
		return 0, errors.Wrapf(resource.ErrUnknownType, "counting %q", src.Type)
	}
	where, args, err := s.buildWhere(t, src.Filter, 1)
	if err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + t.Table + where
	var n int
	if err := s.st.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting %s", t.Name)
	}
	return n, nil
}

// selectOne loads a single row by id. Returns resource.ErrNotFound when the
// row does not exist.
func (s *session) selectOne(ctx context.Context, t *resource.ResourceType, id string) (*resource.Resource, error) {
	query := "SELECT " + columnList(t) + " FROM " + t.Table +
		" WHERE id = " + s.st.placeholder(1)
	rows, err := s.st.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s %s", t.Name, id)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "getting %s %s", t.Name, id)
		}
		return nil, resource.ErrNotFound
	}
	return s.scanResource(t, rows)
}

// fetchWhere loads rows of t whose column equals val, resolving each through
// the identity map. A limit of 0 means no limit.
func (s *session) fetchWhere(ctx context.Context, t *resource.ResourceType, column string, val any, limit int) ([]*resource.Resource, error) {
	query := "SELECT " + columnList(t) + " FROM " + t.Table +
		" WHERE " + column + " = " + s.st.placeholder(1)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.st.db.QueryContext(ctx, query, val)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s by %s", t.Name, column)
	}
	defer rows.Close()

	var out []*resource.Resource
	for rows.Next() {
		res, err := s.scanResource(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s.resolveTracked(res))
	}
	return out, rows.Err()
}

// fetchThrough loads the members of a to-many-through relationship by
// joining the target table with the join table.
func (s *session) fetchThrough(ctx context.Context, t *resource.ResourceType, rel resource.Relationship, localID string) ([]*resource.Resource, error) {
	cols := make([]string, 0, 1+len(t.Attributes))
	cols = append(cols, "t.id")
	for _, a := range t.Attributes {
		cols = append(cols, "t."+a.Column)
	}
	query := "SELECT " + strings.Join(cols, ", ") +
		" FROM " + t.Table + " t JOIN " + rel.Through + " j ON j." + rel.TargetKey + " = t.id" +
		" WHERE j." + rel.LocalKey + " = " + s.st.placeholder(1)
	rows, err := s.st.db.QueryContext(ctx, query, localID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s through %s", rel.Name, rel.Through)
	}
	defer rows.Close()

	var out []*resource.Resource
	for rows.Next() {
		res, err := s.scanResource(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s.resolveTracked(res))
	}
	return out, rows.Err()
}

// resolveTracked returns the tracked instance for res's identity if one
// exists, attaching res otherwise.
func (s *session) resolveTracked(res *resource.Resource) *resource.Resource {
	if e, ok := s.tracked[res.Identity()]; ok {
		return e.res
	}
	s.attach(res, stateAttached)
	return res
}

// scanResource hydrates the current row into a fresh Resource. The column
// order must match columnList.
func (s *session) scanResource(t *resource.ResourceType, rows *sql.Rows) (*resource.Resource, error) {
	dest := make([]any, 1+len(t.Attributes))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, errors.Wrapf(err, "scanning %s row", t.Name)
	}

	id, _ := (*dest[0].(*any)).(string)
	res := resource.New(t.Name, id)
	for i, a := range t.Attributes {
		v, err := fromColumn(a, *dest[i+1].(*any))
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s.%s", t.Name, a.Name)
		}
		if v != nil {
			res.SetAttr(a.Name, v)
		}
	}
	return res, nil
}

func columnList(t *resource.ResourceType) string {
	cols := make([]string, 0, 1+len(t.Attributes))
	cols = append(cols, "id")
	for _, a := range t.Attributes {
		cols = append(cols, a.Column)
	}
	return strings.Join(cols, ", ")
}

func (s *session) buildSelect(t *resource.ResourceType, src store.Source) (string, []any, error) {
	where, args, err := s.buildWhere(t, src.Filter, 1)
	if err != nil {
		return "", nil, err
	}
	query := "SELECT " + columnList(t) + " FROM " + t.Table + where

	if len(src.Sort) > 0 {
		terms := make([]string, 0, len(src.Sort))
		for _, o := range src.Sort {
			col, err := resolveColumn(t, o.Attribute)
			if err != nil {
				return "", nil, err
			}
			if o.Descending {
				col += " DESC"
			}
			terms = append(terms, col)
		}
		query += " ORDER BY " + strings.Join(terms, ", ")
	}
	if src.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", src.Limit)
	}
	if src.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", src.Offset)
	}
	return query, args, nil
}

func (s *session) buildWhere(t *resource.ResourceType, conds []store.Condition, firstArg int) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	var clauses []string
	var args []any
	for i, c := range conds {
		col, err := resolveColumn(t, c.Attribute)
		if err != nil {
			return "", nil, err
		}
		op := c.Op
		if op == "" {
			op = store.OpEq
		}
		switch op {
		case store.OpEq, store.OpNe, store.OpLt, store.OpLe, store.OpGt, store.OpGe:
		default:
			return "", nil, errors.Wrapf(resource.ErrInvalidArgument, "filter operator %q", op)
		}
		clauses = append(clauses, col+" "+op+" "+s.st.placeholder(firstArg+i))
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func resolveColumn(t *resource.ResourceType, attr string) (string, error) {
	if attr == "id" {
		return "id", nil
	}
	a, ok := t.Attribute(attr)
	if !ok {
		return "", errors.Wrapf(resource.ErrUnknownField, "%s.%s", t.Name, attr)
	}
	return a.Column, nil
}

// toColumn converts an attribute value to its stored form.
func toColumn(a resource.Attribute, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch a.Type {
	case resource.AttrBool:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s wants bool, got %T", a.Name, v)
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case resource.AttrTime:
		ts, ok := v.(time.Time)
		if !ok {
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s wants time.Time, got %T", a.Name, v)
		}
		return ts.UTC().Format(time.RFC3339Nano), nil
	case resource.AttrInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		default:
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s wants int, got %T", a.Name, v)
		}
	default:
		return v, nil
	}
}

// fromColumn converts a scanned column value to the attribute's Go form.
func fromColumn(a resource.Attribute, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch a.Type {
	case resource.AttrBool:
		n, ok := v.(int64)
		if !ok {
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s stored as %T", a.Name, v)
		}
		return n != 0, nil
	case resource.AttrTime:
		str, ok := v.(string)
		if !ok {
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s stored as %T", a.Name, v)
		}
		ts, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing attribute %s", a.Name)
		}
		return ts, nil
	case resource.AttrInt:
		n, ok := v.(int64)
		if !ok {
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s stored as %T", a.Name, v)
		}
		return n, nil
	case resource.AttrFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		default:
			return nil, errors.Wrapf(resource.ErrInvalidArgument, "attribute %s stored as %T", a.Name, v)
		}
	default:
		return v, nil
	}
}
