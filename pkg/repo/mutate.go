// Create, Update, and Delete: each resolves its targeted relationships
// through the replacement engine, applies attribute copies, and commits with
// a single save. A store rejection aborts the remaining steps; nothing
// persists because nothing was committed.
package repo

import (
	"context"

	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
)

// Create persists a new resource carrying the targeted attributes and
// relationships of res. The returned resource is evicted from tracking with
// its collection navigations cleared, so a subsequent response read loads
// relationship state fresh from the store instead of serving values left
// over from the request payload.
func (r *Repository) Create(ctx context.Context, res *resource.Resource, fields resource.TargetedFields) (*resource.Resource, error) {
	if res == nil {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "creating nil resource")
	}
	if res.Type != "" && res.Type != r.typ.Name {
		return nil, errors.Wrapf(resource.ErrInvalidArgument, "creating %q with a %q repository", res.Type, r.typ.Name)
	}

	id := res.ID
	if id == "" {
		id = newID()
	}
	persisted := resource.New(r.typ.Name, id)
	for _, name := range fields.Attributes {
		if _, ok := r.typ.Attribute(name); !ok {
			return nil, errors.Wrapf(resource.ErrUnknownField, "%s.%s", r.typ.Name, name)
		}
		if v, ok := res.Attr(name); ok {
			persisted.SetAttr(name, v)
		}
	}

	if err := r.sess.Insert(persisted); err != nil {
		return nil, err
	}
	for _, name := range fields.Relationships {
		rel, err := r.relationship(name)
		if err != nil {
			return nil, err
		}
		if !res.NavSet(name) {
			continue
		}
		if err := r.replace(ctx, rel, persisted, navValue(res, rel)); err != nil {
			return nil, err
		}
	}

	if err := r.sess.Save(ctx); err != nil {
		return nil, err
	}
	r.evictAndClearNavigations(persisted)
	return persisted, nil
}

// Update copies the targeted attributes of req onto the stored resource and
// replaces each targeted relationship with req's value, committing once
// after all relationships are processed. db is the caller's current database
// resource; when a targeted to-one relationship's foreign key lives on the
// primary side, the resource is evicted and reloaded with that navigation
// freshly included so the replacement does not act on a stale reference.
func (r *Repository) Update(ctx context.Context, req, db *resource.Resource, fields resource.TargetedFields) error {
	if req == nil || db == nil {
		return errors.Wrap(resource.ErrInvalidArgument, "updating nil resource")
	}

	working, err := r.sess.GetTrackedOrAttach(db)
	if err != nil {
		return err
	}

	ownedToOne := make([]resource.Relationship, 0, len(fields.Relationships))
	for _, name := range fields.Relationships {
		rel, err := r.relationship(name)
		if err != nil {
			return err
		}
		if req.NavSet(name) && rel.Kind == resource.ToOne && rel.OwnsKey {
			ownedToOne = append(ownedToOne, rel)
		}
	}
	if len(ownedToOne) > 0 {
		r.sess.Detach(working)
		if working, err = r.sess.Get(ctx, r.typ.Name, db.ID); err != nil {
			return err
		}
		for _, rel := range ownedToOne {
			if err := r.sess.LoadReference(ctx, working, rel.Name); err != nil {
				return err
			}
		}
	}

	for _, name := range fields.Relationships {
		rel, _ := r.typ.Relationship(name)
		if !req.NavSet(name) {
			continue
		}
		if err := r.replace(ctx, rel, working, navValue(req, rel)); err != nil {
			return err
		}
	}

	for _, name := range fields.Attributes {
		if _, ok := r.typ.Attribute(name); !ok {
			return errors.Wrapf(resource.ErrUnknownField, "%s.%s", r.typ.Name, name)
		}
		if v, ok := req.Attr(name); ok {
			working.SetAttr(name, v)
		}
	}

	return r.sess.Save(ctx)
}

// Delete removes the resource with the given identifier. A resource that
// still holds required children surfaces the store's integrity rejection as
// a ConstraintError; a missing row surfaces resource.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Wrap(resource.ErrInvalidArgument, "deleting resource without id")
	}
	tracked, err := r.sess.GetTrackedOrAttach(resource.New(r.typ.Name, id))
	if err != nil {
		return err
	}
	if err := r.sess.Remove(tracked); err != nil {
		return err
	}
	return r.sess.Save(ctx)
}

// evictAndClearNavigations detaches the resource and every attached
// relationship target from tracking and clears collection navigations, so
// nothing stale is served to a read that follows in the same unit of work.
func (r *Repository) evictAndClearNavigations(res *resource.Resource) {
	for _, nav := range res.Navs() {
		if one, ok := res.ToOne(nav); ok && one != nil {
			r.sess.Detach(one)
		}
		if many, ok := res.ToMany(nav); ok {
			for _, member := range many {
				r.sess.Detach(member)
			}
			res.ClearNav(nav)
		}
	}
	r.sess.Detach(res)
}
