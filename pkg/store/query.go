package store

// Comparison operators accepted in a Condition.
const (
	OpEq  = "="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
)

// Condition is one attribute comparison. Attribute may be "id" or any
// catalog-declared attribute of the source type. An empty Op means OpEq.
type Condition struct {
	Attribute string
	Op        string
	Value     any
}

// Order is one sort term.
type Order struct {
	Attribute  string
	Descending bool
}

// Source describes a filterable read over one resource type. A zero Limit
// means no limit.
type Source struct {
	Type   string
	Filter []Condition
	Sort   []Order
	Limit  int
	Offset int
}

// ConstraintApplier is the query-translation collaborator: it refines a base
// source with request-level filter, sort, and pagination expressions. It is
// pure and read-only; the mutation core never uses it.
type ConstraintApplier interface {
	Apply(Source) Source
}

// ApplierFunc adapts a function to the ConstraintApplier interface.
type ApplierFunc func(Source) Source

// Apply implements ConstraintApplier.
func (f ApplierFunc) Apply(src Source) Source { return f(src) }
