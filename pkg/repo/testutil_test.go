package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/sqlstore"
	"github.com/weftdb/weft/pkg/store"
)

// testCatalog declares the fixture graph: work items with an owned to-one
// assignee, join-table subscribers and tags, required comments, and a
// one-to-one user profile.
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
			},
			Relationships: []resource.Relationship{
				{Name: "assignee", Kind: resource.ToOne, Target: "users", ForeignKey: "assignee_id", OwnsKey: true, Inverse: "assigned_items"},
				{Name: "subscribers", Kind: resource.ToManyThrough, Target: "users", Through: "work_item_subscribers", LocalKey: "work_item_id", TargetKey: "user_id"},
				{Name: "tags", Kind: resource.ToManyThrough, Target: "tags", Through: "work_item_tags", LocalKey: "work_item_id", TargetKey: "tag_id"},
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

// openTestStore opens a fresh SQLite-backed store with the fixture schema.
func openTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	st, err := sqlstore.Open(store.Config{
		Driver:  store.DriverSQLite,
		DataDir: t.TempDir(),
	}, testCatalog(t))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.EnsureSchema(context.Background()))
	return st
}

// newRepo begins a fresh unit of work on st and binds a repository to it.
func newRepo(t *testing.T, st *sqlstore.Store, typeName string, opts ...Option) *Repository {
	t.Helper()
	sess, err := st.Begin(context.Background())
	require.NoError(t, err)
	r, err := New(sess, st.Catalog(), typeName, opts...)
	require.NoError(t, err)
	return r
}

// seed inserts the given resources in one committed unit of work.
func seed(t *testing.T, st *sqlstore.Store, resources ...*resource.Resource) {
	t.Helper()
	sess, err := st.Begin(context.Background())
	require.NoError(t, err)
	for _, res := range resources {
		require.NoError(t, sess.Insert(res))
	}
	require.NoError(t, sess.Save(context.Background()))
}

// loadMany reads the current membership of a collection in a fresh unit of
// work and returns the member ids.
func loadMany(t *testing.T, st *sqlstore.Store, typ, id, nav string) []string {
	t.Helper()
	ctx := context.Background()
	sess, err := st.Begin(ctx)
	require.NoError(t, err)
	res, err := sess.Get(ctx, typ, id)
	require.NoError(t, err)
	require.NoError(t, sess.LoadCollection(ctx, res, nav))
	members, _ := res.ToMany(nav)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}

// loadOne reads the current value of a reference in a fresh unit of work and
// returns the target id, or "" for null.
func loadOne(t *testing.T, st *sqlstore.Store, typ, id, nav string) string {
	t.Helper()
	ctx := context.Background()
	sess, err := st.Begin(ctx)
	require.NoError(t, err)
	res, err := sess.Get(ctx, typ, id)
	require.NoError(t, err)
	require.NoError(t, sess.LoadReference(ctx, res, nav))
	target, _ := res.ToOne(nav)
	if target == nil {
		return ""
	}
	return target.ID
}
