package types

import "errors"

// Error categories used across the module. Callers classify failures with
// errors.Is; messages wrap these sentinels with field/filter context.
var (
	// ErrNotFound marks a missing space, note, filter, field, user or
	// collection.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a submitted value that failed type coercion or
	// required-ness. Raised at note create/update time.
	ErrValidation = errors.New("validation error")

	// ErrConfig marks an invalid field or filter definition. Raised at
	// definition time, never at note-save time.
	ErrConfig = errors.New("configuration error")

	// ErrSpecialValue marks a special-value token used on an incompatible
	// field type.
	ErrSpecialValue = errors.New("special value misuse")
)
