// Package fields implements the custom field model: a closed table of
// per-type validators that check field configurations at definition time
// and coerce raw string input into typed values at note save time.
package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spacenote/spacenote/types"
)

// Context carries the space state value validation needs. User fields
// check membership; the space id is included for error context.
type Context struct {
	SpaceID string
	Members []string
}

func (c Context) hasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// validator implements configuration checking and value coercion for one
// field type. Raw input always arrives as a string (form/JSON boundary);
// the coerced output type depends on the field type.
type validator interface {
	validateConfiguration(f types.SpaceField) error
	validateValue(f types.SpaceField, raw string, ctx Context) (types.FieldValue, error)
}

// validators is the closed field type table. It covers exactly
// types.AllFieldTypes; validatorFor fails on anything else.
var validators = map[types.FieldType]validator{
	types.FieldTypeString:   textValidator{},
	types.FieldTypeMarkdown: textValidator{},
	types.FieldTypeBoolean:  booleanValidator{},
	types.FieldTypeChoice:   choiceValidator{},
	types.FieldTypeTags:     tagsValidator{},
	types.FieldTypeUser:     userValidator{},
	types.FieldTypeDatetime: datetimeValidator{},
	types.FieldTypeInt:      intValidator{},
	types.FieldTypeFloat:    floatValidator{},
	types.FieldTypeImage:    imageValidator{},
}

func validatorFor(ft types.FieldType) (validator, error) {
	v, ok := validators[ft]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field type %q", types.ErrConfig, ft)
	}
	return v, nil
}

// ValidateConfiguration checks a field definition's options and default
// against its type's rules. Called once, when the field is attached.
func ValidateConfiguration(f types.SpaceField) error {
	v, err := validatorFor(f.Type)
	if err != nil {
		return err
	}
	return v.validateConfiguration(f)
}

// ValidateValue coerces a raw string value into the field's typed value.
// Empty input yields nil for every type except boolean, which requires an
// explicit "true"/"false" token.
func ValidateValue(f types.SpaceField, raw string, ctx Context) (types.FieldValue, error) {
	v, err := validatorFor(f.Type)
	if err != nil {
		return nil, err
	}
	return v.validateValue(f, raw, ctx)
}

var fieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsValidFieldName reports whether s is a legal field name: lowercase
// English letters, digits and underscores, starting with a letter.
func IsValidFieldName(s string) bool {
	return fieldNameRe.MatchString(s)
}

// ValidateNewField checks a field being added to a space: name shape,
// collision with existing and built-in field names, and the type's
// configuration rules.
func ValidateNewField(space *types.Space, f types.SpaceField) error {
	if !IsValidFieldName(f.Name) {
		return fmt.Errorf("%w: invalid field name %q: must be lowercase, start with a letter and contain only letters, digits and underscores", types.ErrConfig, f.Name)
	}
	if types.IsBuiltinField(f.Name) {
		return fmt.Errorf("%w: field name %q is reserved", types.ErrConfig, f.Name)
	}
	if space.GetField(f.Name) != nil {
		return fmt.Errorf("%w: field name %q already exists in space %q", types.ErrConfig, f.Name, space.ID)
	}
	return ValidateConfiguration(f)
}

// textValidator covers string and markdown fields.
type textValidator struct{}

func (textValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default == nil {
		return nil
	}
	if _, ok := f.Default.(string); !ok {
		return fmt.Errorf("%w: %s field %q default must be a string", types.ErrConfig, f.Type, f.Name)
	}
	return nil
}

func (textValidator) validateValue(_ types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	return trimmed, nil
}

type booleanValidator struct{}

func (booleanValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default == nil {
		return nil
	}
	if _, ok := f.Default.(bool); !ok {
		return fmt.Errorf("%w: boolean field %q default must be a boolean", types.ErrConfig, f.Name)
	}
	return nil
}

func (booleanValidator) validateValue(f types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	// Forms send "true" or "false" explicitly; there is no empty case.
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, fmt.Errorf("%w: invalid boolean value %q for field %q: expected \"true\" or \"false\"", types.ErrValidation, raw, f.Name)
}

type choiceValidator struct{}

func (choiceValidator) validateConfiguration(f types.SpaceField) error {
	values := choiceValues(f)
	if len(values) == 0 {
		return fmt.Errorf("%w: choice field %q must have at least one value option", types.ErrConfig, f.Name)
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: choice field %q values cannot be blank", types.ErrConfig, f.Name)
		}
		if seen[v] {
			return fmt.Errorf("%w: duplicate value %q in choice field %q options", types.ErrConfig, f.Name, v)
		}
		seen[v] = true
	}
	if f.Default != nil {
		def, ok := f.Default.(string)
		if !ok {
			return fmt.Errorf("%w: choice field %q default must be a string", types.ErrConfig, f.Name)
		}
		if def != "" && !seen[def] {
			return fmt.Errorf("%w: choice field %q default %q must be one of the available choices", types.ErrConfig, f.Name, def)
		}
	}
	return nil
}

func (choiceValidator) validateValue(f types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	for _, v := range choiceValues(f) {
		if v == raw {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid choice %q for field %q", types.ErrValidation, raw, f.Name)
}

type tagsValidator struct{}

func (tagsValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default == nil {
		return nil
	}
	if _, ok := stringList(f.Default); !ok {
		return fmt.Errorf("%w: tags field %q default must be a list of strings", types.ErrConfig, f.Name)
	}
	return nil
}

func (tagsValidator) validateValue(_ types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	// Comma-separated input: trim each tag, drop empties. Duplicates are
	// deliberately preserved.
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

type userValidator struct{}

func (userValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default == nil {
		return nil
	}
	if _, ok := f.Default.(string); !ok {
		return fmt.Errorf("%w: user field %q default must be a user id or %q", types.ErrConfig, f.Name, types.SpecialCurrentUser)
	}
	return nil
}

func (userValidator) validateValue(f types.SpaceField, raw string, ctx Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	// Special tokens pass through; resolution happens after validation.
	if types.SpecialValue(raw) == types.SpecialCurrentUser {
		return raw, nil
	}
	if !ctx.hasMember(raw) {
		return nil, fmt.Errorf("%w: user %q is not a member of space %q", types.ErrValidation, raw, ctx.SpaceID)
	}
	return raw, nil
}

type datetimeValidator struct{}

func (datetimeValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default == nil {
		return nil
	}
	if _, ok := f.Default.(string); !ok {
		return fmt.Errorf("%w: datetime field %q default must be a string", types.ErrConfig, f.Name)
	}
	return nil
}

func (datetimeValidator) validateValue(_ types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	return trimmed, nil
}

type intValidator struct{}

func (intValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default != nil {
		if _, ok := intValue(f.Default); !ok {
			return fmt.Errorf("%w: int field %q default must be an integer", types.ErrConfig, f.Name)
		}
	}
	min, hasMin := intOption(f, types.OptionMin)
	max, hasMax := intOption(f, types.OptionMax)
	if hasMin && hasMax && min > max {
		return fmt.Errorf("%w: int field %q min value cannot be greater than max value", types.ErrConfig, f.Name)
	}
	return nil
}

func (intValidator) validateValue(f types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid integer value %q for field %q", types.ErrValidation, raw, f.Name)
	}
	if min, ok := intOption(f, types.OptionMin); ok && value < min {
		return nil, fmt.Errorf("%w: value %d is below minimum %d for field %q", types.ErrValidation, value, min, f.Name)
	}
	if max, ok := intOption(f, types.OptionMax); ok && value > max {
		return nil, fmt.Errorf("%w: value %d is above maximum %d for field %q", types.ErrValidation, value, max, f.Name)
	}
	return value, nil
}

type floatValidator struct{}

func (floatValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default != nil {
		if _, ok := floatValue(f.Default); !ok {
			return fmt.Errorf("%w: float field %q default must be a number", types.ErrConfig, f.Name)
		}
	}
	min, hasMin := floatOption(f, types.OptionMin)
	max, hasMax := floatOption(f, types.OptionMax)
	if hasMin && hasMax && min > max {
		return fmt.Errorf("%w: float field %q min value cannot be greater than max value", types.ErrConfig, f.Name)
	}
	return nil
}

func (floatValidator) validateValue(f types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid float value %q for field %q", types.ErrValidation, raw, f.Name)
	}
	if min, ok := floatOption(f, types.OptionMin); ok && value < min {
		return nil, fmt.Errorf("%w: value %v is below minimum %v for field %q", types.ErrValidation, value, min, f.Name)
	}
	if max, ok := floatOption(f, types.OptionMax); ok && value > max {
		return nil, fmt.Errorf("%w: value %v is above maximum %v for field %q", types.ErrValidation, value, max, f.Name)
	}
	return value, nil
}

type imageValidator struct{}

func (imageValidator) validateConfiguration(f types.SpaceField) error {
	if f.Default == nil {
		return nil
	}
	if s, ok := f.Default.(string); ok && types.SpecialValue(s) == types.SpecialLast {
		return nil
	}
	if _, ok := intValue(f.Default); !ok {
		return fmt.Errorf("%w: image field %q default must be an attachment id or %q", types.ErrConfig, f.Name, types.SpecialLast)
	}
	return nil
}

func (imageValidator) validateValue(f types.SpaceField, raw string, _ Context) (types.FieldValue, error) {
	if raw == "" {
		return nil, nil
	}
	if types.SpecialValue(raw) == types.SpecialLast {
		return raw, nil
	}
	// The attachment id is parsed, not existence-checked; assignment
	// happens in the attachment service.
	attachmentID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid attachment id %q for field %q", types.ErrValidation, raw, f.Name)
	}
	return attachmentID, nil
}
