// Session: the unit of work. Owns the identity map (at most one in-memory
// instance per (type, id)), snapshots attribute and navigation state at
// load/attach time, and defers every modification until Save.
package sqlstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

type entityState int

const (
	stateAttached entityState = iota
	stateAdded
	stateRemoved
)

// navState is the loaded baseline of one navigation. Save diffs the
// navigation's current value against this baseline; an absent or unloaded
// baseline means Save can only add members.
type navState struct {
	loaded bool
	one    *resource.Resource
	many   []*resource.Resource
}

// entry is the tracking record for one attached instance.
type entry struct {
	res      *resource.Resource
	state    entityState
	attrSnap map[string]any
	navs     map[string]*navState
}

type session struct {
	st      *Store
	tracked map[resource.Identity]*entry
	order   []resource.Identity
}

var _ store.Session = (*session)(nil)

func newSession(st *Store) *session {
	return &session{
		st:      st,
		tracked: make(map[resource.Identity]*entry),
	}
}

// GetTracked returns the attached instance for the identity, if any.
func (s *session) GetTracked(id resource.Identity) (*resource.Resource, bool) {
	e, ok := s.tracked[id]
	if !ok {
		return nil, false
	}
	return e.res, true
}

// GetTrackedOrAttach returns the tracked instance for stub's identity, or
// attaches stub itself. Never returns a second instance for a tracked
// identity.
func (s *session) GetTrackedOrAttach(stub *resource.Resource) (*resource.Resource, error) {
	if stub == nil {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "attaching nil resource")
	}
	if _, ok := s.st.catalog.Type(stub.Type); !ok {
		return nil, errors.Wrapf(resource.ErrUnknownType, "attaching %q", stub.Type)
	}
	if stub.ID == "" {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "attaching resource without id")
	}
	if e, ok := s.tracked[stub.Identity()]; ok {
		return e.res, nil
	}
	return s.attach(stub, stateAttached).res, nil
}

// Detach removes the instance from tracking; its identity can be loaded
// fresh afterwards.
func (s *session) Detach(res *resource.Resource) {
	if res == nil {
		return
	}
	id := res.Identity()
	if e, ok := s.tracked[id]; !ok || e.res != res {
		return
	}
	delete(s.tracked, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Insert schedules res for insertion. The identity must not be tracked yet.
func (s *session) Insert(res *resource.Resource) error {
	if res == nil {
		return errors.Wrap(resource.ErrInvalidArgument, "inserting nil resource")
	}
	if _, ok := s.st.catalog.Type(res.Type); !ok {
		return errors.Wrapf(resource.ErrUnknownType, "inserting %q", res.Type)
	}
	if res.ID == "" {
		return errors.Wrap(resource.ErrInvalidArgument, "inserting resource without id")
	}
	if _, ok := s.tracked[res.Identity()]; ok {
		return errors.Wrapf(resource.ErrDuplicateIdentity, "inserting %s/%s", res.Type, res.ID)
	}
	s.attach(res, stateAdded)
	return nil
}

// Remove schedules the attached resource for deletion. Removing a resource
// that was inserted in this session cancels the insertion.
func (s *session) Remove(res *resource.Resource) error {
	e, err := s.entryFor(res)
	if err != nil {
		return err
	}
	if e.state == stateAdded {
		s.Detach(res)
		return nil
	}
	e.state = stateRemoved
	return nil
}

// Get loads a resource by identity, resolving through the identity map.
func (s *session) Get(ctx context.Context, typ, id string) (*resource.Resource, error) {
	t, ok := s.st.catalog.Type(typ)
	if !ok {
		return nil, errors.Wrapf(resource.ErrUnknownType, "getting %q", typ)
	}
	if id == "" {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "getting resource without id")
	}
	if e, ok := s.tracked[resource.Identity{Type: typ, ID: id}]; ok {
		return e.res, nil
	}
	res, err := s.selectOne(ctx, t, id)
	if err != nil {
		return nil, err
	}
	s.attach(res, stateAttached)
	return res, nil
}

// NavLoaded reports whether the navigation has a baseline in this session.
// Navigations of a pending insert are trivially loaded: there is nothing in
// the store to materialize.
func (s *session) NavLoaded(res *resource.Resource, nav string) bool {
	e, ok := s.tracked[res.Identity()]
	if !ok || e.res != res {
		return false
	}
	if e.state == stateAdded {
		return true
	}
	ns, ok := e.navs[nav]
	return ok && ns.loaded
}

// LoadReference materializes a to-one navigation and records it as the
// baseline. Calling it again reloads the reference from the store.
func (s *session) LoadReference(ctx context.Context, res *resource.Resource, nav string) error {
	e, err := s.entryFor(res)
	if err != nil {
		return err
	}
	t, _ := s.st.catalog.Type(res.Type)
	rel, ok := t.Relationship(nav)
	if !ok {
		return errors.Wrapf(resource.ErrUnknownField, "loading reference %s.%s", res.Type, nav)
	}
	if rel.Kind != resource.ToOne {
		return errors.Wrapf(resource.ErrShapeMismatch, "loading %s.%s as a reference", res.Type, nav)
	}
	if e.state == stateAdded {
		e.navs[nav] = &navState{loaded: true}
		return nil
	}

	var target *resource.Resource
	if rel.OwnsKey {
		targetID, err := s.selectOwnedKey(ctx, t, rel, res.ID)
		if err != nil {
			return err
		}
		if targetID != "" {
			if target, err = s.Get(ctx, rel.Target, targetID); err != nil {
				return err
			}
		}
	} else {
		targetType, _ := s.st.catalog.Type(rel.Target)
		matches, err := s.fetchWhere(ctx, targetType, rel.ForeignKey, res.ID, 1)
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			target = matches[0]
		}
	}

	res.SetToOne(nav, target)
	e.navs[nav] = &navState{loaded: true, one: target}
	return nil
}

// LoadCollection materializes a to-many navigation and records its members
// as the baseline for replacement diffing.
func (s *session) LoadCollection(ctx context.Context, res *resource.Resource, nav string) error {
	e, err := s.entryFor(res)
	if err != nil {
		return err
	}
	t, _ := s.st.catalog.Type(res.Type)
	rel, ok := t.Relationship(nav)
	if !ok {
		return errors.Wrapf(resource.ErrUnknownField, "loading collection %s.%s", res.Type, nav)
	}
	if rel.Kind == resource.ToOne {
		return errors.Wrapf(resource.ErrShapeMismatch, "loading %s.%s as a collection", res.Type, nav)
	}
	if e.state == stateAdded {
		e.navs[nav] = &navState{loaded: true}
		return nil
	}

	targetType, _ := s.st.catalog.Type(rel.Target)
	var members []*resource.Resource
	switch rel.Kind {
	case resource.ToMany:
		members, err = s.fetchWhere(ctx, targetType, rel.ForeignKey, res.ID, 0)
	case resource.ToManyThrough:
		members, err = s.fetchThrough(ctx, targetType, rel, res.ID)
	}
	if err != nil {
		return err
	}

	res.SetToMany(nav, members)
	baseline := make([]*resource.Resource, len(members))
	copy(baseline, members)
	e.navs[nav] = &navState{loaded: true, many: baseline}
	return nil
}

// attach tracks res and snapshots its attributes.
func (s *session) attach(res *resource.Resource, state entityState) *entry {
	e := &entry{
		res:      res,
		state:    state,
		attrSnap: copyAttrs(res.Attrs),
		navs:     make(map[string]*navState),
	}
	s.tracked[res.Identity()] = e
	s.order = append(s.order, res.Identity())
	return e
}

// entryFor returns the tracking record for res, requiring that res itself is
// the attached instance, not merely an instance with a tracked identity.
func (s *session) entryFor(res *resource.Resource) (*entry, error) {
	if res == nil {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "nil resource")
	}
	e, ok := s.tracked[res.Identity()]
	if !ok || e.res != res {
		return nil, errors.Wrapf(resource.ErrNotAttached, "%s/%s", res.Type, res.ID)
	}
	return e, nil
}

func (s *session) selectOwnedKey(ctx context.Context, t *resource.ResourceType, rel resource.Relationship, id string) (string, error) {
	q := "SELECT " + rel.ForeignKey + " FROM " + t.Table + " WHERE id = " + s.st.placeholder(1)
	var fk sql.NullString
	err := s.st.db.QueryRowContext(ctx, q, id).Scan(&fk)
	if err == sql.ErrNoRows {
		return "", resource.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "loading %s.%s", t.Name, rel.Name)
	}
	if !fk.Valid {
		return "", nil
	}
	return fk.String, nil
}

func copyAttrs(attrs map[string]any) map[string]any {
	snap := make(map[string]any, len(attrs))
	for k, v := range attrs {
		snap[k] = v
	}
	return snap
}
