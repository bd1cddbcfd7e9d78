// Relationship endpoints: add-to, remove-from, and set. Add and remove are
// expressed through the replacement engine — current members are loaded,
// unioned or differenced with the supplied identities, and the result
// replaces the collection — so every path shares one correctness story.
package repo

import (
	"context"

	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
)

// AddToMany adds the identified resources to a to-many relationship.
// Identities already present are tolerated; an empty set is a no-op.
func (r *Repository) AddToMany(ctx context.Context, id, relName string, targetIDs []string) error {
	primary, rel, err := r.resolveToManyEndpoint(ctx, id, relName)
	if err != nil {
		return err
	}
	if len(targetIDs) == 0 {
		return nil
	}

	if err := r.sess.LoadCollection(ctx, primary, rel.Name); err != nil {
		return err
	}
	current, _ := primary.ToMany(rel.Name)

	union := make([]*resource.Resource, len(current))
	copy(union, current)
	present := make(map[string]bool, len(current))
	for _, member := range current {
		present[member.ID] = true
	}
	for _, targetID := range targetIDs {
		if targetID == "" {
			return errors.Wrap(resource.ErrInvalidArgument, "adding empty target id")
		}
		if present[targetID] {
			continue
		}
		present[targetID] = true
		union = append(union, resource.New(rel.Target, targetID))
	}

	if err := r.replace(ctx, rel, primary, union); err != nil {
		return err
	}
	return r.sess.Save(ctx)
}

// RemoveFromMany removes the identified resources from a to-many
// relationship. Identities not currently in the collection have no effect;
// duplicate identities are tolerated; when nothing is removed, no save is
// triggered.
func (r *Repository) RemoveFromMany(ctx context.Context, id, relName string, targetIDs []string) error {
	primary, rel, err := r.resolveToManyEndpoint(ctx, id, relName)
	if err != nil {
		return err
	}
	if len(targetIDs) == 0 {
		return nil
	}

	if err := r.sess.LoadCollection(ctx, primary, rel.Name); err != nil {
		return err
	}
	current, _ := primary.ToMany(rel.Name)

	remove := make(map[string]bool, len(targetIDs))
	for _, targetID := range targetIDs {
		if targetID == "" {
			return errors.Wrap(resource.ErrInvalidArgument, "removing empty target id")
		}
		remove[targetID] = true
	}
	kept := make([]*resource.Resource, 0, len(current))
	for _, member := range current {
		if !remove[member.ID] {
			kept = append(kept, member)
		}
	}
	if len(kept) == len(current) {
		return nil
	}

	if err := r.replace(ctx, rel, primary, kept); err != nil {
		return err
	}
	return r.sess.Save(ctx)
}

// SetRelationship replaces the named relationship's value outright: nil or
// a single resource for to-one, a collection for to-many.
func (r *Repository) SetRelationship(ctx context.Context, id, relName string, value any) error {
	if id == "" {
		return errors.Wrap(resource.ErrInvalidArgument, "setting relationship without id")
	}
	rel, err := r.relationship(relName)
	if err != nil {
		return err
	}

	primary, err := r.sess.Get(ctx, r.typ.Name, id)
	if err != nil {
		return err
	}
	if rel.Kind == resource.ToOne && rel.OwnsKey {
		// Act on a freshly included reference, not a stale cached one.
		if err := r.sess.LoadReference(ctx, primary, rel.Name); err != nil {
			return err
		}
	}

	if err := r.replace(ctx, rel, primary, value); err != nil {
		return err
	}
	return r.sess.Save(ctx)
}

// resolveToManyEndpoint validates the endpoint arguments and loads the
// primary resource; the relationship must be a collection.
func (r *Repository) resolveToManyEndpoint(ctx context.Context, id, relName string) (*resource.Resource, resource.Relationship, error) {
	if id == "" {
		return nil, resource.Relationship{}, errors.Wrap(resource.ErrInvalidArgument, "relationship endpoint without id")
	}
	rel, err := r.relationship(relName)
	if err != nil {
		return nil, resource.Relationship{}, err
	}
	if rel.Kind == resource.ToOne {
		return nil, resource.Relationship{}, errors.Wrapf(resource.ErrShapeMismatch, "%s.%s is to-one", r.typ.Name, relName)
	}
	primary, err := r.sess.Get(ctx, r.typ.Name, id)
	if err != nil {
		return nil, resource.Relationship{}, err
	}
	return primary, rel, nil
}
