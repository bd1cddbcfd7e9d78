// Package resource defines the resource graph model for Weft: typed
// resources, relationship descriptors, the static catalog, targeted field
// sets, and the standard errors shared by the store and repository layers.
package resource

// Identity names a single resource: the (type, identifier) pair. Within one
// unit of work at most one in-memory instance exists per identity.
type Identity struct {
	Type string
	ID   string
}

// Resource is a generic record of a catalog-declared type: an identifier, a
// set of attribute values, and in-memory navigation values for its
// relationships. Navigation values are only meaningful while the resource is
// attached to a unit of work; a resource carrying just an identifier (a
// "stub") is valid input everywhere an identity is expected.
type Resource struct {
	Type  string
	ID    string
	Attrs map[string]any

	toOne  map[string]*Resource
	toMany map[string][]*Resource
}

// New creates a resource of the given type with the given identifier.
// An empty id is permitted; Create generates one on insert.
func New(typ, id string) *Resource {
	return &Resource{
		Type:  typ,
		ID:    id,
		Attrs: make(map[string]any),
	}
}

// Identity returns the resource's (type, identifier) pair.
func (r *Resource) Identity() Identity {
	return Identity{Type: r.Type, ID: r.ID}
}

// SetAttr sets a single attribute value.
func (r *Resource) SetAttr(name string, value any) {
	if r.Attrs == nil {
		r.Attrs = make(map[string]any)
	}
	r.Attrs[name] = value
}

// Attr returns the attribute value and whether it is set.
func (r *Resource) Attr(name string) (any, bool) {
	v, ok := r.Attrs[name]
	return v, ok
}

// SetToOne sets a to-one navigation. A nil target is an explicit null and is
// distinct from the navigation never having been set.
func (r *Resource) SetToOne(nav string, target *Resource) {
	if r.toOne == nil {
		r.toOne = make(map[string]*Resource)
	}
	r.toOne[nav] = target
}

// ToOne returns the to-one navigation value and whether it has been set.
func (r *Resource) ToOne(nav string) (*Resource, bool) {
	t, ok := r.toOne[nav]
	return t, ok
}

// SetToMany sets a to-many navigation to the given members. The slice is
// stored as provided; callers that need to keep their copy should pass a
// fresh slice.
func (r *Resource) SetToMany(nav string, members []*Resource) {
	if r.toMany == nil {
		r.toMany = make(map[string][]*Resource)
	}
	r.toMany[nav] = members
}

// ToMany returns the to-many navigation members and whether the navigation
// has been set.
func (r *Resource) ToMany(nav string) ([]*Resource, bool) {
	m, ok := r.toMany[nav]
	return m, ok
}

// NavSet reports whether the named navigation has been set on this instance,
// in either cardinality.
func (r *Resource) NavSet(nav string) bool {
	if _, ok := r.toOne[nav]; ok {
		return true
	}
	_, ok := r.toMany[nav]
	return ok
}

// ClearNav removes the named navigation value from the instance so a later
// read is forced to load it from the store again.
func (r *Resource) ClearNav(nav string) {
	delete(r.toOne, nav)
	delete(r.toMany, nav)
}

// Navs returns the names of all navigations set on this instance.
func (r *Resource) Navs() []string {
	names := make([]string, 0, len(r.toOne)+len(r.toMany))
	for n := range r.toOne {
		names = append(names, n)
	}
	for n := range r.toMany {
		names = append(names, n)
	}
	return names
}
