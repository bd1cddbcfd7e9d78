package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/store"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr string
		want store.Condition
	}{
		{"points>=3", store.Condition{Attribute: "points", Op: store.OpGe, Value: float64(3)}},
		{"points<3", store.Condition{Attribute: "points", Op: store.OpLt, Value: float64(3)}},
		{"points<=10", store.Condition{Attribute: "points", Op: store.OpLe, Value: float64(10)}},
		{"title!=draft", store.Condition{Attribute: "title", Op: store.OpNe, Value: "draft"}},
		{"done=true", store.Condition{Attribute: "done", Op: store.OpEq, Value: true}},
		{"title=Fix the roof", store.Condition{Attribute: "title", Op: store.OpEq, Value: "Fix the roof"}},
		{`label="3"`, store.Condition{Attribute: "label", Op: store.OpEq, Value: "3"}},
		{"id=W1", store.Condition{Attribute: "id", Op: store.OpEq, Value: "W1"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := parseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing operator", func(t *testing.T) {
		_, err := parseFilter("points")
		assert.Error(t, err)
	})

	t.Run("empty expression", func(t *testing.T) {
		_, err := parseFilter("")
		assert.Error(t, err)
	})
}

func TestCoerceAttr(t *testing.T) {
	due := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name    string
		attr    resource.Attribute
		in      any
		want    any
		wantErr bool
	}{
		{name: "int from json number", attr: resource.Attribute{Type: resource.AttrInt}, in: float64(5), want: int64(5)},
		{name: "int passes through", attr: resource.Attribute{Type: resource.AttrInt}, in: int64(5), want: int64(5)},
		{name: "int from string", attr: resource.Attribute{Type: resource.AttrInt}, in: "5", wantErr: true},
		{name: "float from json number", attr: resource.Attribute{Type: resource.AttrFloat}, in: float64(2.5), want: float64(2.5)},
		{name: "float widens integer", attr: resource.Attribute{Type: resource.AttrFloat}, in: int64(2), want: float64(2)},
		{name: "bool", attr: resource.Attribute{Type: resource.AttrBool}, in: true, want: true},
		{name: "bool from string", attr: resource.Attribute{Type: resource.AttrBool}, in: "true", wantErr: true},
		{name: "time from rfc3339", attr: resource.Attribute{Type: resource.AttrTime}, in: "2026-03-14T09:26:53Z", want: due},
		{name: "time from junk", attr: resource.Attribute{Type: resource.AttrTime}, in: "yesterday", wantErr: true},
		{name: "text", attr: resource.Attribute{Type: resource.AttrText}, in: "hello", want: "hello"},
		{name: "text defaulted type", attr: resource.Attribute{}, in: "hello", want: "hello"},
		{name: "text from number", attr: resource.Attribute{Type: resource.AttrText}, in: float64(1), wantErr: true},
		{name: "null passes through", attr: resource.Attribute{Type: resource.AttrInt}, in: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceAttr(tt.attr, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if ts, ok := tt.want.(time.Time); ok {
				assert.True(t, ts.Equal(got.(time.Time)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceAttrs(t *testing.T) {
	c, err := resource.NewCatalog(&resource.ResourceType{
		Name: "work_items",
		Attributes: []resource.Attribute{
			{Name: "title"},
			{Name: "points", Type: resource.AttrInt},
		},
	})
	require.NoError(t, err)
	typ, _ := c.Type("work_items")

	t.Run("coerces every declared attribute", func(t *testing.T) {
		out, err := coerceAttrs(typ, map[string]any{"title": "x", "points": float64(3)})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "x", "points": int64(3)}, out)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := coerceAttrs(typ, map[string]any{"priority": float64(1)})
		assert.ErrorContains(t, err, "priority")
	})
}

func TestListApplier(t *testing.T) {
	t.Run("refines the source", func(t *testing.T) {
		applier, err := listApplier([]string{"points>=3", "done=true"}, "points", true, 10, 5)
		require.NoError(t, err)

		src := applier.Apply(store.Source{Type: "work_items"})
		assert.Equal(t, "work_items", src.Type)
		require.Len(t, src.Filter, 2)
		assert.Equal(t, store.Condition{Attribute: "points", Op: store.OpGe, Value: float64(3)}, src.Filter[0])
		require.Len(t, src.Sort, 1)
		assert.Equal(t, store.Order{Attribute: "points", Descending: true}, src.Sort[0])
		assert.Equal(t, 10, src.Limit)
		assert.Equal(t, 5, src.Offset)
	})

	t.Run("no sort flag adds no sort term", func(t *testing.T) {
		applier, err := listApplier(nil, "", false, 0, 0)
		require.NoError(t, err)
		src := applier.Apply(store.Source{Type: "tags"})
		assert.Empty(t, src.Sort)
		assert.Empty(t, src.Filter)
	})

	t.Run("bad filter expression", func(t *testing.T) {
		_, err := listApplier([]string{"points"}, "", false, 0, 0)
		assert.Error(t, err)
	})
}
