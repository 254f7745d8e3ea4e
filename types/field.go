package types

// FieldType identifies the logical type of a custom field. The type is
// chosen when the field is attached to a space and is immutable afterwards.
type FieldType string

const (
	// FieldTypeString holds short free-form text.
	FieldTypeString FieldType = "string"
	// FieldTypeMarkdown holds long-form markdown text.
	FieldTypeMarkdown FieldType = "markdown"
	// FieldTypeBoolean holds true/false values.
	FieldTypeBoolean FieldType = "boolean"
	// FieldTypeChoice holds one value from a predefined list.
	FieldTypeChoice FieldType = "choice"
	// FieldTypeTags holds a list of strings for categorization.
	FieldTypeTags FieldType = "tags"
	// FieldTypeUser holds a reference to a space member.
	FieldTypeUser FieldType = "user"
	// FieldTypeDatetime holds a date/time string.
	FieldTypeDatetime FieldType = "datetime"
	// FieldTypeInt holds integer numeric values.
	FieldTypeInt FieldType = "int"
	// FieldTypeFloat holds floating-point numeric values.
	FieldTypeFloat FieldType = "float"
	// FieldTypeImage holds an image attachment reference (attachment id).
	FieldTypeImage FieldType = "image"
)

// AllFieldTypes lists every supported field type. The field type table in
// the fields package must cover exactly this set.
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeString,
		FieldTypeMarkdown,
		FieldTypeBoolean,
		FieldTypeChoice,
		FieldTypeTags,
		FieldTypeUser,
		FieldTypeDatetime,
		FieldTypeInt,
		FieldTypeFloat,
		FieldTypeImage,
	}
}

// FieldOption names a type-specific configuration key.
type FieldOption string

const (
	// OptionValues lists the allowed values of a choice field.
	OptionValues FieldOption = "values"
	// OptionMin is the lower bound for int/float fields.
	OptionMin FieldOption = "min"
	// OptionMax is the upper bound for int/float fields.
	OptionMax FieldOption = "max"
)

// FieldValue is a validated field value. The concrete type depends on the
// field type:
//   - string for string, markdown, choice, user and datetime fields
//   - bool for boolean fields
//   - []string for tags fields
//   - int64 for int fields and image fields (attachment id)
//   - float64 for float fields
//   - nil for empty/unset fields
type FieldValue any

// SpaceField is a single field definition in a space schema.
type SpaceField struct {
	Name     string              `json:"name" yaml:"name"`
	Type     FieldType           `json:"type" yaml:"type"`
	Required bool                `json:"required" yaml:"required"`
	Options  map[FieldOption]any `json:"options,omitempty" yaml:"options,omitempty"`
	Default  FieldValue          `json:"default,omitempty" yaml:"default,omitempty"`
}

// Built-in pseudo-field names. They are always queryable and sortable on
// every space and may not be redeclared as custom fields.
const (
	BuiltinFieldID        = "id"
	BuiltinFieldAuthor    = "author"
	BuiltinFieldCreatedAt = "created_at"
)

// IsBuiltinField reports whether name is one of the implicit note fields.
func IsBuiltinField(name string) bool {
	switch name {
	case BuiltinFieldID, BuiltinFieldAuthor, BuiltinFieldCreatedAt:
		return true
	}
	return false
}
