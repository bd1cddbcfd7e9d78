package resource

// Kind distinguishes the three relationship cardinalities. Cardinality rules
// (pre-load and inverse-load requirements) switch exhaustively on this tag.
type Kind int

const (
	// ToOne links the declaring type to at most one target resource.
	ToOne Kind = iota + 1
	// ToMany links the declaring type to a set of target resources through
	// a foreign key on the target table.
	ToMany
	// ToManyThrough links the declaring type to a set of target resources
	// through a join table.
	ToManyThrough
)

// String returns the catalog-file spelling of the kind.
func (k Kind) String() string {
	switch k {
	case ToOne:
		return "to_one"
	case ToMany:
		return "to_many"
	case ToManyThrough:
		return "to_many_through"
	default:
		return "unknown"
	}
}

// KindFromString parses a catalog-file kind spelling. Returns 0 for
// unrecognized input.
func KindFromString(s string) Kind {
	switch s {
	case "to_one":
		return ToOne
	case "to_many":
		return ToMany
	case "to_many_through":
		return ToManyThrough
	default:
		return 0
	}
}

// Attribute value types, mapped to store column types by the backend.
const (
	AttrText  = "text"
	AttrInt   = "int"
	AttrFloat = "float"
	AttrBool  = "bool"
	AttrTime  = "time"
)

// Attribute describes one persisted attribute of a resource type.
type Attribute struct {
	// Name is the attribute name used on Resource.Attrs.
	Name string
	// Column is the store column name. Defaults to Name.
	Column string
	// Type is one of the Attr* constants. Defaults to AttrText.
	Type string
}

// Relationship describes one relationship edge declared by a resource type.
type Relationship struct {
	// Name is the navigation name on the declaring type.
	Name string
	// Kind is the cardinality tag.
	Kind Kind
	// Target is the related resource type name.
	Target string
	// Inverse is the back-reference navigation name on the target type,
	// or empty when no inverse is declared.
	Inverse string

	// ForeignKey is the linking column for ToOne and ToMany. For ToOne it
	// lives on the declaring table when OwnsKey is true, otherwise on the
	// target table (with a uniqueness constraint). For ToMany it always
	// lives on the target (child) table.
	ForeignKey string
	// OwnsKey reports, for ToOne, that the declaring side's table carries
	// the foreign key column.
	OwnsKey bool
	// Required marks the foreign key column NOT NULL. An implicit removal
	// from a Required relationship fails the commit with a constraint
	// violation.
	Required bool

	// Through, LocalKey and TargetKey describe the join table for
	// ToManyThrough: Through is the table name, LocalKey the column holding
	// the declaring resource's id, TargetKey the column holding the target
	// resource's id.
	Through   string
	LocalKey  string
	TargetKey string
}
