// Package store defines the persistence-context contract the repository
// layer runs against: a Store that opens transactional units of work, and a
// Session offering identity tracking, navigation loading, and a single
// atomic save. Any relational backend can implement it; the SQLite/Postgres
// implementation lives in internal/sqlstore.
package store

import (
	"context"

	"github.com/weftdb/weft/pkg/resource"
)

// Store is an attached backend that can begin units of work.
type Store interface {
	// Begin opens a new unit of work. Units of work are not shared across
	// concurrent requests and carry no cross-request state.
	Begin(ctx context.Context) (Session, error)

	// Catalog returns the resource-graph metadata the store was opened with.
	Catalog() *resource.Catalog

	// Close releases backend resources.
	Close() error
}

// Session is one unit of work: an identity-tracking, change-tracking scope
// whose accumulated modifications commit atomically in a single Save. A
// session that is discarded without Save leaves the store unmodified.
type Session interface {
	// GetTracked returns the already-attached instance for the identity,
	// if any.
	GetTracked(id resource.Identity) (*resource.Resource, bool)

	// GetTrackedOrAttach returns the tracked instance for stub's identity
	// if one exists, else attaches stub itself and returns it. This is the
	// only way instances enter tracking from the outside, which guarantees
	// at most one instance per identity.
	GetTrackedOrAttach(stub *resource.Resource) (*resource.Resource, error)

	// Detach removes the instance from tracking without deleting it from
	// the store. Subsequent reads of its identity load fresh state.
	Detach(res *resource.Resource)

	// Get loads the resource with the given type and id, resolving through
	// the identity map: if the identity is already tracked, the tracked
	// instance is returned without touching the store. Returns
	// resource.ErrNotFound when no row exists.
	Get(ctx context.Context, typ, id string) (*resource.Resource, error)

	// Fetch returns the resources matching the source, hydrated through
	// the identity map.
	Fetch(ctx context.Context, src Source) ([]*resource.Resource, error)

	// Count returns the number of rows matching the source.
	Count(ctx context.Context, src Source) (int, error)

	// LoadReference materializes a to-one navigation from the store,
	// recording the loaded value as the navigation's baseline for Save.
	// The resource must be attached.
	LoadReference(ctx context.Context, res *resource.Resource, nav string) error

	// LoadCollection materializes a to-many navigation from the store,
	// recording the loaded members as the navigation's baseline for Save.
	// Without this baseline, Save can only add members, never remove them.
	LoadCollection(ctx context.Context, res *resource.Resource, nav string) error

	// NavLoaded reports whether the navigation has a recorded baseline in
	// this session.
	NavLoaded(res *resource.Resource, nav string) bool

	// Insert schedules the resource for insertion and attaches it.
	Insert(res *resource.Resource) error

	// Remove schedules the attached resource for deletion.
	Remove(res *resource.Resource) error

	// Save commits every accumulated change in one transaction. Store
	// integrity rejections surface as a *resource.ConstraintError; a
	// missing row for a scheduled deletion surfaces as resource.ErrNotFound.
	Save(ctx context.Context) error
}
