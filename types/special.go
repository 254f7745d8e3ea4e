package types

// SpecialValue is a reserved placeholder token resolved dynamically at
// read/write time rather than stored or compared literally.
type SpecialValue string

const (
	// SpecialCurrentUser resolves to the authenticated user's id. Legal
	// only on user fields.
	SpecialCurrentUser SpecialValue = "@me"
	// SpecialLast resolves to the most recently uploaded unassigned image
	// attachment's id. Legal only on image fields.
	SpecialLast SpecialValue = "@last"
)

// IsSpecialValue reports whether v is one of the reserved tokens.
func IsSpecialValue(v FieldValue) bool {
	s, ok := v.(string)
	if !ok {
		if sv, ok := v.(SpecialValue); ok {
			s = string(sv)
		} else {
			return false
		}
	}
	switch SpecialValue(s) {
	case SpecialCurrentUser, SpecialLast:
		return true
	}
	return false
}
