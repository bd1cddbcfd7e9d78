// Package repo implements the Weft mutation engine: a resource repository
// that executes create/update/delete and relationship mutations against a
// store.Session with JSON-API complete-replacement semantics. A Repository
// is bound to one resource type and one unit of work; callers create one per
// logical operation scope and let every accumulated change commit through a
// single save.
package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

// Repository sequences client-level operations into relationship
// replacements plus attribute copies, committing once per operation.
type Repository struct {
	sess    store.Session
	catalog *resource.Catalog
	typ     *resource.ResourceType
	applier store.ConstraintApplier
}

// Option configures a Repository.
type Option func(*Repository)

// WithConstraintApplier installs the query-translation collaborator used by
// the read path (Fetch, Count). The mutation core never consults it.
func WithConstraintApplier(a store.ConstraintApplier) Option {
	return func(r *Repository) { r.applier = a }
}

// New creates a Repository for the named resource type, bound to the given
// unit of work.
func New(sess store.Session, catalog *resource.Catalog, typeName string, opts ...Option) (*Repository, error) {
	if sess == nil || catalog == nil {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "creating repository")
	}
	typ, ok := catalog.Type(typeName)
	if !ok {
		return nil, errors.Wrapf(resource.ErrUnknownType, "creating repository for %q", typeName)
	}
	r := &Repository{sess: sess, catalog: catalog, typ: typ}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetByID loads one resource through the unit of work.
func (r *Repository) GetByID(ctx context.Context, id string) (*resource.Resource, error) {
	if id == "" {
		return nil, errors.Wrap(resource.ErrInvalidArgument, "getting resource without id")
	}
	return r.sess.Get(ctx, r.typ.Name, id)
}

// Fetch returns the resources matching the repository's base source refined
// by the constraint applier, when one is installed.
func (r *Repository) Fetch(ctx context.Context) ([]*resource.Resource, error) {
	return r.sess.Fetch(ctx, r.baseSource())
}

// Count returns the number of resources matching the refined base source.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.sess.Count(ctx, r.baseSource())
}

func (r *Repository) baseSource() store.Source {
	src := store.Source{Type: r.typ.Name}
	if r.applier != nil {
		src = r.applier.Apply(src)
	}
	return src
}

// relationship resolves a targeted relationship name on the bound type.
func (r *Repository) relationship(name string) (resource.Relationship, error) {
	rel, ok := r.typ.Relationship(name)
	if !ok {
		return resource.Relationship{}, errors.Wrapf(resource.ErrUnknownField, "%s.%s", r.typ.Name, name)
	}
	return rel, nil
}

// navValue extracts the request-supplied value of a navigation in the shape
// the replacement engine expects.
func navValue(res *resource.Resource, rel resource.Relationship) any {
	if rel.Kind == resource.ToOne {
		one, _ := res.ToOne(rel.Name)
		return one
	}
	many, _ := res.ToMany(rel.Name)
	return many
}

// newID generates a UUID v7 string.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
