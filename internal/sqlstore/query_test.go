package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

func seedItems(t *testing.T, st *Store) {
	t.Helper()
	titles := map[string]int64{"alpha": 1, "bravo": 3, "charlie": 5}
	var items []*resource.Resource
	for title, points := range titles {
		item := resource.New("work_items", "W-"+title)
		item.SetAttr("title", title)
		item.SetAttr("points", points)
		items = append(items, item)
	}
	seed(t, st, items...)
}

func TestFetch(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	seedItems(t, st)

	tests := []struct {
		name    string
		src     store.Source
		wantIDs []string
		ordered bool
	}{
		{
			name:    "no filter returns everything",
			src:     store.Source{Type: "work_items"},
			wantIDs: []string{"W-alpha", "W-bravo", "W-charlie"},
		},
		{
			name: "equality filter",
			src: store.Source{
				Type:   "work_items",
				Filter: []store.Condition{{Attribute: "title", Value: "bravo"}},
			},
			wantIDs: []string{"W-bravo"},
		},
		{
			name: "range filter",
			src: store.Source{
				Type:   "work_items",
				Filter: []store.Condition{{Attribute: "points", Op: store.OpGe, Value: 3}},
			},
			wantIDs: []string{"W-bravo", "W-charlie"},
		},
		{
			name: "filters are conjunctive",
			src: store.Source{
				Type: "work_items",
				Filter: []store.Condition{
					{Attribute: "points", Op: store.OpGt, Value: 1},
					{Attribute: "title", Op: store.OpNe, Value: "charlie"},
				},
			},
			wantIDs: []string{"W-bravo"},
		},
		{
			name: "sort with limit and offset",
			src: store.Source{
				Type:   "work_items",
				Sort:   []store.Order{{Attribute: "points", Descending: true}},
				Limit:  2,
				Offset: 1,
			},
			wantIDs: []string{"W-bravo", "W-alpha"},
			ordered: true,
		},
		{
			name: "filter by id",
			src: store.Source{
				Type:   "work_items",
				Filter: []store.Condition{{Attribute: "id", Value: "W-alpha"}},
			},
			wantIDs: []string{"W-alpha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := beginSession(t, st)
			got, err := sess.Fetch(ctx, tt.src)
			require.NoError(t, err)
			if tt.ordered {
				assert.Equal(t, tt.wantIDs, memberIDs(got))
			} else {
				assert.ElementsMatch(t, tt.wantIDs, memberIDs(got))
			}
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		sess := beginSession(t, st)
		_, err := sess.Fetch(ctx, store.Source{Type: "ghosts"})
		assert.ErrorIs(t, err, resource.ErrUnknownType)
	})

	t.Run("unknown filter attribute", func(t *testing.T) {
		sess := beginSession(t, st)
		_, err := sess.Fetch(ctx, store.Source{
			Type:   "work_items",
			Filter: []store.Condition{{Attribute: "priority", Value: 1}},
		})
		assert.ErrorIs(t, err, resource.ErrUnknownField)
	})

	t.Run("invalid operator", func(t *testing.T) {
		sess := beginSession(t, st)
		_, err := sess.Fetch(ctx, store.Source{
			Type:   "work_items",
			Filter: []store.Condition{{Attribute: "title", Op: "LIKE", Value: "%a%"}},
		})
		assert.ErrorIs(t, err, resource.ErrInvalidArgument)
	})

	t.Run("rows resolve to tracked instances", func(t *testing.T) {
		sess := beginSession(t, st)
		tracked, err := sess.Get(ctx, "work_items", "W-alpha")
		require.NoError(t, err)

		got, err := sess.Fetch(ctx, store.Source{Type: "work_items"})
		require.NoError(t, err)
		for _, res := range got {
			if res.ID == "W-alpha" {
				assert.Same(t, tracked, res)
			}
		}
	})
}

func TestCount(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	seedItems(t, st)

	sess := beginSession(t, st)

	n, err := sess.Count(ctx, store.Source{Type: "work_items"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = sess.Count(ctx, store.Source{
		Type:   "work_items",
		Filter: []store.Condition{{Attribute: "points", Op: store.OpLt, Value: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = sess.Count(ctx, store.Source{Type: "ghosts"})
	assert.ErrorIs(t, err, resource.ErrUnknownType)
}
