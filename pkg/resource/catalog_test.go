package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCatalog builds a small valid catalog shared by the package tests.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		&ResourceType{
			Name:       "users",
			Attributes: []Attribute{{Name: "name"}},
			Relationships: []Relationship{
				{Name: "assigned_items", Kind: ToMany, Target: "work_items", ForeignKey: "assignee_id", Inverse: "assignee"},
			},
		},
		&ResourceType{
			Name: "work_items",
			Attributes: []Attribute{
				{Name: "title"},
				{Name: "points", Type: AttrInt},
			},
			Relationships: []Relationship{
				{Name: "assignee", Kind: ToOne, Target: "users", ForeignKey: "assignee_id", OwnsKey: true, Inverse: "assigned_items"},
				{Name: "tags", Kind: ToManyThrough, Target: "tags", Through: "work_item_tags", LocalKey: "work_item_id", TargetKey: "tag_id"},
			},
		},
		&ResourceType{
			Name:       "tags",
			Attributes: []Attribute{{Name: "label"}},
		},
	)
	require.NoError(t, err)
	return c
}

func TestCatalogDefaults(t *testing.T) {
	c := testCatalog(t)

	wi, ok := c.Type("work_items")
	require.True(t, ok)
	assert.Equal(t, "work_items", wi.Table)

	title, ok := wi.Attribute("title")
	require.True(t, ok)
	assert.Equal(t, "title", title.Column)
	assert.Equal(t, AttrText, title.Type)

	points, ok := wi.Attribute("points")
	require.True(t, ok)
	assert.Equal(t, AttrInt, points.Type)

	_, ok = wi.Attribute("missing")
	assert.False(t, ok)

	rel, ok := wi.Relationship("assignee")
	require.True(t, ok)
	assert.Equal(t, ToOne, rel.Kind)
	assert.Equal(t, "users", rel.Target)

	assert.Len(t, c.Types(), 3)
}

func TestNewCatalogValidation(t *testing.T) {
	tags := func() *ResourceType { return &ResourceType{Name: "tags"} }

	tests := []struct {
		name    string
		types   []*ResourceType
		wantErr error
	}{
		{
			name:    "empty type name",
			types:   []*ResourceType{{Name: ""}},
			wantErr: ErrCatalogBadDescriptor,
		},
		{
			name:    "duplicate type name",
			types:   []*ResourceType{tags(), tags()},
			wantErr: ErrCatalogDuplicateType,
		},
		{
			name: "duplicate field name",
			types: []*ResourceType{{
				Name:       "tags",
				Attributes: []Attribute{{Name: "label"}, {Name: "label"}},
			}},
			wantErr: ErrCatalogDuplicateField,
		},
		{
			name: "attribute and relationship share a name",
			types: []*ResourceType{{
				Name:       "items",
				Attributes: []Attribute{{Name: "owner"}},
				Relationships: []Relationship{
					{Name: "owner", Kind: ToOne, Target: "items", ForeignKey: "owner_id", OwnsKey: true},
				},
			}},
			wantErr: ErrCatalogDuplicateField,
		},
		{
			name: "dangling target",
			types: []*ResourceType{{
				Name: "items",
				Relationships: []Relationship{
					{Name: "owner", Kind: ToOne, Target: "ghosts", ForeignKey: "owner_id", OwnsKey: true},
				},
			}},
			wantErr: ErrCatalogBadTarget,
		},
		{
			name: "to-one without foreign key",
			types: []*ResourceType{tags(), {
				Name: "items",
				Relationships: []Relationship{
					{Name: "tag", Kind: ToOne, Target: "tags", OwnsKey: true},
				},
			}},
			wantErr: ErrCatalogBadDescriptor,
		},
		{
			name: "to-many cannot own the key",
			types: []*ResourceType{tags(), {
				Name: "items",
				Relationships: []Relationship{
					{Name: "tags", Kind: ToMany, Target: "tags", ForeignKey: "item_id", OwnsKey: true},
				},
			}},
			wantErr: ErrCatalogBadDescriptor,
		},
		{
			name: "through with incomplete join table",
			types: []*ResourceType{tags(), {
				Name: "items",
				Relationships: []Relationship{
					{Name: "tags", Kind: ToManyThrough, Target: "tags", Through: "item_tags"},
				},
			}},
			wantErr: ErrCatalogBadDescriptor,
		},
		{
			name: "unknown kind",
			types: []*ResourceType{tags(), {
				Name: "items",
				Relationships: []Relationship{
					{Name: "tags", Target: "tags"},
				},
			}},
			wantErr: ErrCatalogBadDescriptor,
		},
		{
			name: "inverse not declared on target",
			types: []*ResourceType{tags(), {
				Name: "items",
				Relationships: []Relationship{
					{Name: "tag", Kind: ToOne, Target: "tags", ForeignKey: "tag_id", OwnsKey: true, Inverse: "items"},
				},
			}},
			wantErr: ErrCatalogBadDescriptor,
		},
		{
			name: "inverse points at a third type",
			types: []*ResourceType{
				{
					Name: "items",
					Relationships: []Relationship{
						{Name: "board", Kind: ToOne, Target: "boards", ForeignKey: "board_id", OwnsKey: true, Inverse: "cards"},
					},
				},
				{
					Name: "boards",
					Relationships: []Relationship{
						{Name: "cards", Kind: ToMany, Target: "cards", ForeignKey: "board_id"},
					},
				},
				{Name: "cards"},
			},
			wantErr: ErrCatalogBadDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.types...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestKindSpellings(t *testing.T) {
	tests := []struct {
		kind     Kind
		spelling string
	}{
		{ToOne, "to_one"},
		{ToMany, "to_many"},
		{ToManyThrough, "to_many_through"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.spelling, tt.kind.String())
		assert.Equal(t, tt.kind, KindFromString(tt.spelling))
	}
	assert.Equal(t, Kind(0), KindFromString("many_to_many"))
	assert.Equal(t, "unknown", Kind(0).String())
}
