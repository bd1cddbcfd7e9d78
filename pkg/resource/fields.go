package resource

// TargetedFields is the subset of attributes and relationships one request
// intends to mutate. The two lists are disjoint and order-independent; an
// empty TargetedFields targets nothing.
type TargetedFields struct {
	Attributes    []string
	Relationships []string
}

// TargetsAttribute reports whether the named attribute is targeted.
func (f TargetedFields) TargetsAttribute(name string) bool {
	return contains(f.Attributes, name)
}

// TargetsRelationship reports whether the named relationship is targeted.
func (f TargetedFields) TargetsRelationship(name string) bool {
	return contains(f.Relationships, name)
}

// Empty reports whether no fields are targeted.
func (f TargetedFields) Empty() bool {
	return len(f.Attributes) == 0 && len(f.Relationships) == 0
}

// AllFields returns a TargetedFields covering every attribute and
// relationship of the given type, for callers that mutate whole resources.
func AllFields(t *ResourceType) TargetedFields {
	var f TargetedFields
	for _, a := range t.Attributes {
		f.Attributes = append(f.Attributes, a.Name)
	}
	for _, r := range t.Relationships {
		f.Relationships = append(f.Relationships, r.Name)
	}
	return f
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
