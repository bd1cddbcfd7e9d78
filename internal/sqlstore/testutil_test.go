package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

// testCatalog builds the fixture graph used across the package tests:
// work items with an owned to-one assignee, a join-table tag collection,
// a required comment collection, and a one-to-one user profile.
func testCatalog(t *testing.T) *resource.Catalog {
	t.Helper()
	c, err := resource.NewCatalog(
		&resource.ResourceType{
			Name:       "users",
			Attributes: []resource.Attribute{{Name: "name"}},
			Relationships: []resource.Relationship{
				{Name: "assigned_items", Kind: resource.ToMany, Target: "work_items", ForeignKey: "assignee_id", Inverse: "assignee"},
				{Name: "profile", Kind: resource.ToOne, Target: "profiles", ForeignKey: "user_id", Inverse: "owner"},
			},
		},
		&resource.ResourceType{
			Name:       "profiles",
			Attributes: []resource.Attribute{{Name: "bio"}},
			Relationships: []resource.Relationship{
				{Name: "owner", Kind: resource.ToOne, Target: "users", ForeignKey: "user_id", OwnsKey: true, Inverse: "profile"},
			},
		},
		&resource.ResourceType{
			Name: "work_items",
			Attributes: []resource.Attribute{
				{Name: "title"},
				{Name: "points", Type: resource.AttrInt},
				{Name: "done", Type: resource.AttrBool},
				{Name: "due", Type: resource.AttrTime},
			},
			Relationships: []resource.Relationship{
				{Name: "assignee", Kind: resource.ToOne, Target: "users", ForeignKey: "assignee_id", OwnsKey: true, Inverse: "assigned_items"},
				{Name: "tags", Kind: resource.ToManyThrough, Target: "tags", Through: "work_item_tags", LocalKey: "work_item_id", TargetKey: "tag_id"},
				{Name: "subscribers", Kind: resource.ToManyThrough, Target: "users", Through: "work_item_subscribers", LocalKey: "work_item_id", TargetKey: "user_id"},
				{Name: "comments", Kind: resource.ToMany, Target: "comments", ForeignKey: "work_item_id", Required: true, Inverse: "item"},
			},
		},
		&resource.ResourceType{
			Name:       "comments",
			Attributes: []resource.Attribute{{Name: "body"}},
			Relationships: []resource.Relationship{
				{Name: "item", Kind: resource.ToOne, Target: "work_items", ForeignKey: "work_item_id", OwnsKey: true, Required: true, Inverse: "comments"},
			},
		},
		&resource.ResourceType{
			Name:       "tags",
			Attributes: []resource.Attribute{{Name: "label"}},
		},
	)
	require.NoError(t, err)
	return c
}

// openTestStore opens a fresh SQLite store in a temp dir with the fixture
// schema applied.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(store.Config{
		Driver:  store.DriverSQLite,
		DataDir: t.TempDir(),
	}, testCatalog(t))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.EnsureSchema(context.Background()))
	return st
}

// beginSession opens a unit of work on st.
func beginSession(t *testing.T, st *Store) store.Session {
	t.Helper()
	sess, err := st.Begin(context.Background())
	require.NoError(t, err)
	return sess
}

// seed inserts the given resources in one committed unit of work.
func seed(t *testing.T, st *Store, resources ...*resource.Resource) {
	t.Helper()
	sess := beginSession(t, st)
	for _, res := range resources {
		require.NoError(t, sess.Insert(res))
	}
	require.NoError(t, sess.Save(context.Background()))
}
