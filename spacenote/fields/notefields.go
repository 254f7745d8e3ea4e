package fields

import (
	"fmt"

	"github.com/spacenote/spacenote/types"
)

// ValidateNoteFields validates and coerces raw form values against the
// space schema, iterating fields in definition order.
//
// With skipMissing false every schema field must be present in raw; a gap
// is a missing-field error. With skipMissing true (hidden create fields)
// a gap falls back to the field default, errors for a required field
// without one, and otherwise records nil.
//
// The result always carries one entry per schema field, nil included, so
// its key set equals the schema's field-name set. Defaults that are
// special-value tokens are stored as-is; the caller resolves them before
// persisting (see the special package).
func ValidateNoteFields(space *types.Space, raw map[string]string, skipMissing bool) (map[string]types.FieldValue, error) {
	validated := make(map[string]types.FieldValue, len(space.Fields))
	ctx := Context{
		SpaceID: space.ID,
		Members: space.Members,
	}

	for _, field := range space.Fields {
		rawValue, present := raw[field.Name]
		if !present {
			if !skipMissing {
				return nil, fmt.Errorf("%w: missing field %q in form data", types.ErrValidation, field.Name)
			}
			switch {
			case field.Default != nil:
				validated[field.Name] = field.Default
			case field.Required:
				return nil, fmt.Errorf("%w: field %q is required but has no default value", types.ErrValidation, field.Name)
			default:
				validated[field.Name] = nil
			}
			continue
		}

		value, err := ValidateValue(field, rawValue, ctx)
		if err != nil {
			return nil, err
		}

		// Required-ness is checked after coercion: an empty string that
		// coerces to nil on a required field is a required-field error,
		// distinct from a malformed value.
		if field.Required && value == nil {
			return nil, fmt.Errorf("%w: field %q is required", types.ErrValidation, field.Name)
		}

		validated[field.Name] = value
	}

	return validated, nil
}
