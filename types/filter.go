package types

// FilterOperator is a comparison operator usable in filter conditions.
// The set of operators legal for a field depends on its type; see the
// operator table in the query package.
type FilterOperator string

const (
	// OpEqual matches values equal to the comparison value.
	OpEqual FilterOperator = "eq"
	// OpNotEqual matches values not equal to the comparison value.
	OpNotEqual FilterOperator = "ne"
	// OpContains matches text containing the comparison value
	// (case-insensitive substring).
	OpContains FilterOperator = "contains"
	// OpStartsWith matches text starting with the comparison value.
	OpStartsWith FilterOperator = "startswith"
	// OpEndsWith matches text ending with the comparison value.
	OpEndsWith FilterOperator = "endswith"
	// OpIn matches values present in the comparison list. For list-valued
	// fields it matches when any element is present.
	OpIn FilterOperator = "in"
	// OpAll matches list-valued fields containing every element of the
	// comparison list.
	OpAll FilterOperator = "all"
	// OpGreater matches values strictly greater than the comparison value.
	OpGreater FilterOperator = "gt"
	// OpGreaterOrEqual matches values greater than or equal to it.
	OpGreaterOrEqual FilterOperator = "gte"
	// OpLess matches values strictly less than the comparison value.
	OpLess FilterOperator = "lt"
	// OpLessOrEqual matches values less than or equal to it.
	OpLessOrEqual FilterOperator = "lte"
)

// FilterCondition is a single (field, operator, value) predicate.
// Conditions of a filter are combined with logical AND.
type FilterCondition struct {
	Field    string         `json:"field" yaml:"field"`
	Operator FilterOperator `json:"operator" yaml:"operator"`
	Value    FieldValue     `json:"value" yaml:"value"`
}

// Filter is a named, reusable query definition scoped to a space.
type Filter struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Conditions  []FilterCondition `json:"conditions" yaml:"conditions"`
	// Sort lists field names in tie-break order; a leading "-" marks
	// descending order, e.g. ["-created_at", "priority"].
	Sort []string `json:"sort,omitempty" yaml:"sort,omitempty"`
	// ListFields names the columns shown in the note list view.
	ListFields []string `json:"list_fields,omitempty" yaml:"list_fields,omitempty"`
}

// SortField is a resolved sort key with its storage path and direction.
type SortField struct {
	Field      string
	Descending bool
}
