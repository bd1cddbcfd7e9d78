package resource

import "fmt"

// ResourceType describes one resource type: its table, attributes, and
// relationship descriptors. Instances are built once (directly or from a
// catalog file) and treated as read-only after NewCatalog returns.
type ResourceType struct {
	// Name is the resource type name.
	Name string
	// Table is the store table name. Defaults to Name.
	Table string

	Attributes    []Attribute
	Relationships []Relationship

	attrsByName map[string]int
	relsByName  map[string]int
}

// Attribute returns the named attribute descriptor.
func (t *ResourceType) Attribute(name string) (Attribute, bool) {
	i, ok := t.attrsByName[name]
	if !ok {
		return Attribute{}, false
	}
	return t.Attributes[i], true
}

// Relationship returns the named relationship descriptor.
func (t *ResourceType) Relationship(name string) (Relationship, bool) {
	i, ok := t.relsByName[name]
	if !ok {
		return Relationship{}, false
	}
	return t.Relationships[i], true
}

// Catalog is the static resource-graph metadata: every resource type with its
// attributes and relationships. It is built once at startup and read-only
// thereafter; no process-wide instance exists, callers pass it explicitly.
type Catalog struct {
	types   map[string]*ResourceType
	ordered []*ResourceType
}

// NewCatalog validates the given types and builds the catalog. Validation
// covers duplicate names, dangling targets, and malformed descriptors; an
// inverse navigation, when named, must be declared on the target type and
// point back at the declaring type.
func NewCatalog(types ...*ResourceType) (*Catalog, error) {
	c := &Catalog{types: make(map[string]*ResourceType, len(types))}

	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: type with empty name", ErrCatalogBadDescriptor)
		}
		if _, dup := c.types[t.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrCatalogDuplicateType, t.Name)
		}
		if t.Table == "" {
			t.Table = t.Name
		}
		if err := buildFieldIndexes(t); err != nil {
			return nil, err
		}
		c.types[t.Name] = t
		c.ordered = append(c.ordered, t)
	}

	for _, t := range c.ordered {
		for _, rel := range t.Relationships {
			if err := c.validateRelationship(t, rel); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Type returns the named resource type.
func (c *Catalog) Type(name string) (*ResourceType, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Types returns all resource types in declaration order.
func (c *Catalog) Types() []*ResourceType {
	return c.ordered
}

func buildFieldIndexes(t *ResourceType) error {
	t.attrsByName = make(map[string]int, len(t.Attributes))
	t.relsByName = make(map[string]int, len(t.Relationships))
	seen := make(map[string]bool)

	for i := range t.Attributes {
		a := &t.Attributes[i]
		if a.Name == "" || seen[a.Name] {
			return fmt.Errorf("%w: %s.%s", ErrCatalogDuplicateField, t.Name, a.Name)
		}
		if a.Column == "" {
			a.Column = a.Name
		}
		if a.Type == "" {
			a.Type = AttrText
		}
		seen[a.Name] = true
		t.attrsByName[a.Name] = i
	}
	for i, r := range t.Relationships {
		if r.Name == "" || seen[r.Name] {
			return fmt.Errorf("%w: %s.%s", ErrCatalogDuplicateField, t.Name, r.Name)
		}
		seen[r.Name] = true
		t.relsByName[r.Name] = i
	}
	return nil
}

func (c *Catalog) validateRelationship(t *ResourceType, rel Relationship) error {
	target, ok := c.types[rel.Target]
	if !ok {
		return fmt.Errorf("%w: %s.%s -> %s", ErrCatalogBadTarget, t.Name, rel.Name, rel.Target)
	}

	switch rel.Kind {
	case ToOne, ToMany:
		if rel.ForeignKey == "" {
			return fmt.Errorf("%w: %s.%s has no foreign key", ErrCatalogBadDescriptor, t.Name, rel.Name)
		}
		if rel.Kind == ToMany && rel.OwnsKey {
			return fmt.Errorf("%w: %s.%s: to-many foreign key lives on the target table", ErrCatalogBadDescriptor, t.Name, rel.Name)
		}
	case ToManyThrough:
		if rel.Through == "" || rel.LocalKey == "" || rel.TargetKey == "" {
			return fmt.Errorf("%w: %s.%s join table incomplete", ErrCatalogBadDescriptor, t.Name, rel.Name)
		}
	default:
		return fmt.Errorf("%w: %s.%s has unknown kind", ErrCatalogBadDescriptor, t.Name, rel.Name)
	}

	// An inverse, when declared, must exist on the target type and point
	// back here. Its cardinality is deliberately not constrained further;
	// the replacement engine treats combinations it cannot interpret as an
	// unsupported-inverse no-op.
	if rel.Inverse != "" {
		inv, ok := target.Relationship(rel.Inverse)
		if !ok {
			return fmt.Errorf("%w: %s.%s inverse %q not declared on %s",
				ErrCatalogBadDescriptor, t.Name, rel.Name, rel.Inverse, rel.Target)
		}
		if inv.Target != t.Name {
			return fmt.Errorf("%w: %s.%s inverse %q points at %s",
				ErrCatalogBadDescriptor, t.Name, rel.Name, rel.Inverse, inv.Target)
		}
	}
	return nil
}
