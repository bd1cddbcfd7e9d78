// Relationship replacement: the load-attach-assign protocol that implements
// complete-replacement semantics for a single relationship edge. The steps
// are ordered by dependency — the current value must be in memory before a
// new value may be assigned, and incoming resources must resolve to their
// tracked instances before the inverse side is touched — so no step may be
// reordered or parallelized.
package repo

import (
	"context"

	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
)

// replace assigns newValue to the relationship on primary with complete
// replacement semantics. primary must be attached to the repository's unit
// of work. Nothing is persisted; the caller commits through Save.
func (r *Repository) replace(ctx context.Context, rel resource.Relationship, primary *resource.Resource, newValue any) error {
	one, many, err := shapeOf(rel, newValue)
	if err != nil {
		return err
	}

	// The current value must be materialized before assignment. For
	// collections an unloaded baseline would turn the assignment into an
	// append, producing a superset instead of a replacement.
	if !r.sess.NavLoaded(primary, rel.Name) {
		if rel.Kind == resource.ToOne {
			err = r.sess.LoadReference(ctx, primary, rel.Name)
		} else {
			err = r.sess.LoadCollection(ctx, primary, rel.Name)
		}
		if err != nil {
			return err
		}
	}

	if rel.Kind == resource.ToOne {
		return r.replaceToOne(ctx, rel, primary, one)
	}
	return r.replaceToMany(ctx, rel, primary, many)
}

func (r *Repository) replaceToOne(ctx context.Context, rel resource.Relationship, primary *resource.Resource, incoming *resource.Resource) error {
	var target *resource.Resource
	if incoming != nil {
		tracked, err := r.sess.GetTrackedOrAttach(incoming)
		if err != nil {
			return err
		}
		target = tracked
		if err := r.loadInverse(ctx, rel, target); err != nil {
			return err
		}
	}

	previous, _ := primary.ToOne(rel.Name)
	primary.SetToOne(rel.Name, target)
	r.reflectInverseToOne(rel, primary, previous, target)
	return nil
}

func (r *Repository) replaceToMany(ctx context.Context, rel resource.Relationship, primary *resource.Resource, incoming []*resource.Resource) error {
	members := make([]*resource.Resource, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for _, in := range incoming {
		if in == nil {
			return errors.Wrapf(resource.ErrInvalidArgument, "replacing %s.%s with a nil member", primary.Type, rel.Name)
		}
		if seen[in.ID] {
			continue
		}
		seen[in.ID] = true
		tracked, err := r.sess.GetTrackedOrAttach(in)
		if err != nil {
			return err
		}
		if err := r.loadInverse(ctx, rel, tracked); err != nil {
			return err
		}
		members = append(members, tracked)
	}

	previous, _ := primary.ToMany(rel.Name)
	primary.SetToMany(rel.Name, members)
	r.reflectInverseToMany(rel, primary, previous, members, seen)
	return nil
}

// loadInverse materializes the inverse navigation of an incoming resource so
// the unit of work can express the implicit unlink of its previous owner.
// Without the previous owner in memory, the store cannot release the foreign
// key and the commit fails an integrity constraint. Join-table relationships
// never need this: no foreign key is violated by an implicit unlink there.
func (r *Repository) loadInverse(ctx context.Context, rel resource.Relationship, target *resource.Resource) error {
	if rel.Kind == resource.ToManyThrough || rel.Inverse == "" {
		return nil
	}
	targetType, ok := r.catalog.Type(rel.Target)
	if !ok {
		return nil
	}
	inv, ok := targetType.Relationship(rel.Inverse)
	if !ok {
		// The inverse cardinality cannot be determined from the descriptor.
		// Deliberately a no-op rather than a guess; the commit may still be
		// rejected by the store if a constraint is actually violated.
		return nil
	}
	if r.sess.NavLoaded(target, inv.Name) {
		return nil
	}
	switch inv.Kind {
	case resource.ToOne:
		return r.sess.LoadReference(ctx, target, inv.Name)
	case resource.ToMany:
		return r.sess.LoadCollection(ctx, target, inv.Name)
	default:
		return nil
	}
}

// reflectInverseToOne mirrors a to-one assignment on the inverse side: the
// new target points back at primary, the displaced previous owner of the
// target lets go, and the previous target drops its back-reference.
func (r *Repository) reflectInverseToOne(rel resource.Relationship, primary, previous, target *resource.Resource) {
	if rel.Inverse == "" {
		return
	}
	targetType, ok := r.catalog.Type(rel.Target)
	if !ok {
		return
	}
	inv, ok := targetType.Relationship(rel.Inverse)
	if !ok {
		return
	}

	switch inv.Kind {
	case resource.ToOne:
		if target != nil {
			if displaced, ok := target.ToOne(inv.Name); ok && displaced != nil && displaced.ID != primary.ID {
				if displaced.NavSet(rel.Name) {
					displaced.SetToOne(rel.Name, nil)
				}
			}
			target.SetToOne(inv.Name, primary)
		}
		if previous != nil && (target == nil || previous.ID != target.ID) && previous.NavSet(inv.Name) {
			previous.SetToOne(inv.Name, nil)
		}

	case resource.ToMany:
		if target != nil && target.NavSet(inv.Name) {
			collection, _ := target.ToMany(inv.Name)
			target.SetToMany(inv.Name, addMember(collection, primary))
		}
		if previous != nil && (target == nil || previous.ID != target.ID) && previous.NavSet(inv.Name) {
			collection, _ := previous.ToMany(inv.Name)
			previous.SetToMany(inv.Name, dropMember(collection, primary.ID))
		}
	}
}

// reflectInverseToMany mirrors a to-many replacement on the inverse side:
// every new member points back at primary, a member's previous owner drops
// it, and members omitted from the new set drop their back-reference.
func (r *Repository) reflectInverseToMany(rel resource.Relationship, primary *resource.Resource, previous, members []*resource.Resource, kept map[string]bool) {
	if rel.Kind == resource.ToManyThrough || rel.Inverse == "" {
		return
	}
	targetType, ok := r.catalog.Type(rel.Target)
	if !ok {
		return
	}
	inv, ok := targetType.Relationship(rel.Inverse)
	if !ok || inv.Kind != resource.ToOne {
		return
	}

	for _, member := range members {
		if owner, ok := member.ToOne(inv.Name); ok && owner != nil && owner.ID != primary.ID {
			if owner.NavSet(rel.Name) {
				collection, _ := owner.ToMany(rel.Name)
				owner.SetToMany(rel.Name, dropMember(collection, member.ID))
			}
		}
		member.SetToOne(inv.Name, primary)
	}
	for _, gone := range previous {
		if !kept[gone.ID] && gone.NavSet(inv.Name) {
			gone.SetToOne(inv.Name, nil)
		}
	}
}

// shapeOf validates newValue against the relationship cardinality. A null is
// only a valid value for a to-one relationship.
func shapeOf(rel resource.Relationship, newValue any) (*resource.Resource, []*resource.Resource, error) {
	switch v := newValue.(type) {
	case nil:
		if rel.Kind != resource.ToOne {
			return nil, nil, errors.Wrapf(resource.ErrShapeMismatch, "null value for %s %s", rel.Kind, rel.Name)
		}
		return nil, nil, nil
	case *resource.Resource:
		if rel.Kind != resource.ToOne {
			return nil, nil, errors.Wrapf(resource.ErrShapeMismatch, "single resource for %s %s", rel.Kind, rel.Name)
		}
		return v, nil, nil
	case []*resource.Resource:
		if rel.Kind == resource.ToOne {
			return nil, nil, errors.Wrapf(resource.ErrShapeMismatch, "collection for %s %s", rel.Kind, rel.Name)
		}
		return nil, v, nil
	default:
		return nil, nil, errors.Wrapf(resource.ErrShapeMismatch, "unsupported value type %T for %s", newValue, rel.Name)
	}
}

func addMember(collection []*resource.Resource, member *resource.Resource) []*resource.Resource {
	for _, existing := range collection {
		if existing.ID == member.ID {
			return collection
		}
	}
	return append(collection, member)
}

func dropMember(collection []*resource.Resource, id string) []*resource.Resource {
	out := collection[:0]
	for _, existing := range collection {
		if existing.ID != id {
			out = append(out, existing)
		}
	}
	return out
}
