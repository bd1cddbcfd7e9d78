// Save: the single commit boundary. All accumulated changes are rendered to
// SQL inside one transaction, ordered so that unlinks run before any write
// that claims a foreign key and row deletions run last. Store integrity
// rejections surface exactly once, wrapped as resource.ConstraintError.
package sqlstore

import (
	"context"
	"database/sql"
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
)

// Save commits every accumulated change in one transaction.
func (s *session) Save(ctx context.Context) error {
	if len(s.order) == 0 {
		return nil
	}
	tx, err := s.st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning save transaction")
	}
	defer tx.Rollback()

	// Unlinks first: a unique or displaced foreign key must be released
	// before an insert, update, or link claims it.
	if err := s.writeUnlinks(ctx, tx); err != nil {
		return err
	}
	if err := s.writeInserts(ctx, tx); err != nil {
		return err
	}
	if err := s.writeUpdates(ctx, tx); err != nil {
		return err
	}
	if err := s.writeLinks(ctx, tx); err != nil {
		return err
	}
	if err := s.writeDeletes(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return s.st.wrapStoreErr("committing save", err)
	}
	s.afterCommit()
	return nil
}

func (s *session) writeInserts(ctx context.Context, tx *sql.Tx) error {
	for _, id := range s.order {
		e := s.tracked[id]
		if e.state != stateAdded {
			continue
		}
		t, _ := s.st.catalog.Type(e.res.Type)

		cols := []string{"id"}
		args := []any{e.res.ID}
		for _, a := range t.Attributes {
			v, ok := e.res.Attr(a.Name)
			if !ok {
				continue
			}
			cv, err := toColumn(a, v)
			if err != nil {
				return err
			}
			cols = append(cols, a.Column)
			args = append(args, cv)
		}
		for _, rel := range t.Relationships {
			if rel.Kind != resource.ToOne || !rel.OwnsKey || !e.res.NavSet(rel.Name) {
				continue
			}
			target, _ := e.res.ToOne(rel.Name)
			cols = append(cols, rel.ForeignKey)
			args = append(args, fkValue(target))
		}

		marks := make([]string, len(cols))
		for i := range marks {
			marks[i] = s.st.placeholder(i + 1)
		}
		query := "INSERT INTO " + t.Table + " (" + strings.Join(cols, ", ") +
			") VALUES (" + strings.Join(marks, ", ") + ")"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return s.st.wrapStoreErr("inserting "+t.Name+" "+e.res.ID, err)
		}
	}
	return nil
}

func (s *session) writeUpdates(ctx context.Context, tx *sql.Tx) error {
	for _, id := range s.order {
		e := s.tracked[id]
		if e.state != stateAttached {
			continue
		}
		t, _ := s.st.catalog.Type(e.res.Type)

		var sets []string
		var args []any
		for _, a := range t.Attributes {
			cur, ok := e.res.Attr(a.Name)
			if !ok {
				continue
			}
			if snap, had := e.attrSnap[a.Name]; had && reflect.DeepEqual(cur, snap) {
				continue
			}
			cv, err := toColumn(a, cur)
			if err != nil {
				return err
			}
			sets = append(sets, a.Column+" = "+s.st.placeholder(len(args)+1))
			args = append(args, cv)
		}
		for _, rel := range t.Relationships {
			if rel.Kind != resource.ToOne || !rel.OwnsKey || !e.res.NavSet(rel.Name) {
				continue
			}
			target, _ := e.res.ToOne(rel.Name)
			if ns := e.navs[rel.Name]; ns != nil && ns.loaded && sameResource(ns.one, target) {
				continue
			}
			sets = append(sets, rel.ForeignKey+" = "+s.st.placeholder(len(args)+1))
			args = append(args, fkValue(target))
		}
		if len(sets) == 0 {
			continue
		}

		args = append(args, e.res.ID)
		query := "UPDATE " + t.Table + " SET " + strings.Join(sets, ", ") +
			" WHERE id = " + s.st.placeholder(len(args))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return s.st.wrapStoreErr("updating "+t.Name+" "+e.res.ID, err)
		}
	}
	return nil
}

// writeUnlinks runs before every other write phase so a unique or displaced
// foreign key is released before its new holder claims it.
func (s *session) writeUnlinks(ctx context.Context, tx *sql.Tx) error {
	for _, id := range s.order {
		e := s.tracked[id]
		if e.state == stateRemoved {
			continue
		}
		t, _ := s.st.catalog.Type(e.res.Type)
		for _, rel := range t.Relationships {
			if !e.res.NavSet(rel.Name) {
				continue
			}
			targetType, _ := s.st.catalog.Type(rel.Target)
			baseline := e.navs[rel.Name]

			switch rel.Kind {
			case resource.ToOne:
				if rel.OwnsKey || baseline == nil || !baseline.loaded || baseline.one == nil {
					continue
				}
				cur, _ := e.res.ToOne(rel.Name)
				if sameResource(baseline.one, cur) {
					continue
				}
				query := "UPDATE " + targetType.Table + " SET " + rel.ForeignKey +
					" = NULL WHERE id = " + s.st.placeholder(1)
				if _, err := tx.ExecContext(ctx, query, baseline.one.ID); err != nil {
					return s.st.wrapStoreErr("unlinking "+rel.Name+" of "+e.res.ID, err)
				}

			case resource.ToMany:
				cur, _ := e.res.ToMany(rel.Name)
				for _, gone := range minusByID(baselineMany(baseline), cur) {
					query := "UPDATE " + targetType.Table + " SET " + rel.ForeignKey +
						" = NULL WHERE id = " + s.st.placeholder(1)
					if _, err := tx.ExecContext(ctx, query, gone.ID); err != nil {
						return s.st.wrapStoreErr("unlinking "+rel.Name+" of "+e.res.ID, err)
					}
				}

			case resource.ToManyThrough:
				cur, _ := e.res.ToMany(rel.Name)
				for _, gone := range minusByID(baselineMany(baseline), cur) {
					query := "DELETE FROM " + rel.Through +
						" WHERE " + rel.LocalKey + " = " + s.st.placeholder(1) +
						" AND " + rel.TargetKey + " = " + s.st.placeholder(2)
					if _, err := tx.ExecContext(ctx, query, e.res.ID, gone.ID); err != nil {
						return s.st.wrapStoreErr("unlinking "+rel.Name+" of "+e.res.ID, err)
					}
				}
			}
		}
	}
	return nil
}

func (s *session) writeLinks(ctx context.Context, tx *sql.Tx) error {
	for _, id := range s.order {
		e := s.tracked[id]
		if e.state == stateRemoved {
			continue
		}
		t, _ := s.st.catalog.Type(e.res.Type)
		for _, rel := range t.Relationships {
			if !e.res.NavSet(rel.Name) {
				continue
			}
			targetType, _ := s.st.catalog.Type(rel.Target)
			baseline := e.navs[rel.Name]

			switch rel.Kind {
			case resource.ToOne:
				if rel.OwnsKey {
					continue // written with the row itself
				}
				cur, _ := e.res.ToOne(rel.Name)
				if cur == nil {
					continue
				}
				if baseline != nil && baseline.loaded && sameResource(baseline.one, cur) {
					continue
				}
				query := "UPDATE " + targetType.Table + " SET " + rel.ForeignKey +
					" = " + s.st.placeholder(1) + " WHERE id = " + s.st.placeholder(2)
				if _, err := tx.ExecContext(ctx, query, e.res.ID, cur.ID); err != nil {
					return s.st.wrapStoreErr("linking "+rel.Name+" of "+e.res.ID, err)
				}

			case resource.ToMany:
				cur, _ := e.res.ToMany(rel.Name)
				for _, added := range minusByID(dedupeByID(cur), baselineMany(baseline)) {
					query := "UPDATE " + targetType.Table + " SET " + rel.ForeignKey +
						" = " + s.st.placeholder(1) + " WHERE id = " + s.st.placeholder(2)
					if _, err := tx.ExecContext(ctx, query, e.res.ID, added.ID); err != nil {
						return s.st.wrapStoreErr("linking "+rel.Name+" of "+e.res.ID, err)
					}
				}

			case resource.ToManyThrough:
				cur, _ := e.res.ToMany(rel.Name)
				for _, added := range minusByID(dedupeByID(cur), baselineMany(baseline)) {
					query := "INSERT INTO " + rel.Through +
						" (" + rel.LocalKey + ", " + rel.TargetKey + ") VALUES (" +
						s.st.placeholder(1) + ", " + s.st.placeholder(2) + ") ON CONFLICT DO NOTHING"
					if _, err := tx.ExecContext(ctx, query, e.res.ID, added.ID); err != nil {
						return s.st.wrapStoreErr("linking "+rel.Name+" of "+e.res.ID, err)
					}
				}
			}
		}
	}
	return nil
}

func (s *session) writeDeletes(ctx context.Context, tx *sql.Tx) error {
	for i := len(s.order) - 1; i >= 0; i-- {
		e := s.tracked[s.order[i]]
		if e.state != stateRemoved {
			continue
		}
		t, _ := s.st.catalog.Type(e.res.Type)
		query := "DELETE FROM " + t.Table + " WHERE id = " + s.st.placeholder(1)
		result, err := tx.ExecContext(ctx, query, e.res.ID)
		if err != nil {
			return s.st.wrapStoreErr("deleting "+t.Name+" "+e.res.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return errors.Wrapf(resource.ErrNotFound, "deleting %s %s", t.Name, e.res.ID)
		}
	}
	return nil
}

// afterCommit re-baselines every surviving entry so the committed state is
// the new reference point for further changes in this unit of work.
func (s *session) afterCommit() {
	kept := s.order[:0]
	for _, id := range s.order {
		e := s.tracked[id]
		if e.state == stateRemoved {
			delete(s.tracked, id)
			continue
		}
		e.state = stateAttached
		e.attrSnap = copyAttrs(e.res.Attrs)
		for _, nav := range e.res.Navs() {
			ns := &navState{loaded: true}
			if one, ok := e.res.ToOne(nav); ok {
				ns.one = one
			}
			if many, ok := e.res.ToMany(nav); ok {
				ns.many = make([]*resource.Resource, len(many))
				copy(ns.many, many)
			}
			e.navs[nav] = ns
		}
		kept = append(kept, id)
	}
	s.order = kept
}

func fkValue(target *resource.Resource) any {
	if target == nil {
		return nil
	}
	return target.ID
}

func sameResource(a, b *resource.Resource) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

func baselineMany(ns *navState) []*resource.Resource {
	if ns == nil || !ns.loaded {
		return nil
	}
	return ns.many
}

// minusByID returns the members of a whose identifier does not appear in b.
func minusByID(a, b []*resource.Resource) []*resource.Resource {
	present := make(map[string]bool, len(b))
	for _, r := range b {
		present[r.ID] = true
	}
	var out []*resource.Resource
	for _, r := range a {
		if !present[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// dedupeByID keeps the first occurrence of each identifier.
func dedupeByID(members []*resource.Resource) []*resource.Resource {
	seen := make(map[string]bool, len(members))
	out := make([]*resource.Resource, 0, len(members))
	for _, r := range members {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
