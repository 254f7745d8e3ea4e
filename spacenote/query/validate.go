package query

import (
	"fmt"
	"strings"

	"github.com/spacenote/spacenote/types"
)

// ValidateFilter checks a filter against a space schema and returns every
// problem found rather than failing fast, so an editor UI can report the
// whole batch. An empty slice means the filter is valid.
//
// Checked: id uniqueness within the space, condition field existence,
// operator legality for each condition's field type, and sort/list-column
// field references. When validating an update of an existing filter, pass
// a space copy with the old definition removed.
func ValidateFilter(space *types.Space, filter types.Filter) []error {
	var errs []error

	if filter.ID == "" {
		errs = append(errs, fmt.Errorf("%w: filter id cannot be empty", types.ErrConfig))
	}
	if space.GetFilter(filter.ID) != nil {
		errs = append(errs, fmt.Errorf("%w: filter id %q already exists in space %q", types.ErrConfig, filter.ID, space.ID))
	}

	for _, condition := range filter.Conditions {
		errs = append(errs, validateCondition(space, condition)...)
	}

	for _, sortField := range filter.Sort {
		name := strings.TrimPrefix(sortField, "-")
		if !fieldExists(space, name) {
			errs = append(errs, fmt.Errorf("%w: sort field %q does not exist in space", types.ErrConfig, name))
		}
	}

	for _, name := range filter.ListFields {
		if !fieldExists(space, name) {
			errs = append(errs, fmt.Errorf("%w: list field %q does not exist in space", types.ErrConfig, name))
		}
	}

	return errs
}

// validateCondition checks one condition's field reference and operator
// legality.
func validateCondition(space *types.Space, condition types.FilterCondition) []error {
	if !fieldExists(space, condition.Field) {
		return []error{fmt.Errorf("%w: field %q does not exist in space", types.ErrConfig, condition.Field)}
	}

	ft, ok := builtinFieldTypes[condition.Field]
	if !ok {
		ft = space.GetField(condition.Field).Type
	}

	if len(fieldTypeOperators[ft]) == 0 {
		return []error{fmt.Errorf("%w: unknown field type %q", types.ErrConfig, ft)}
	}
	if !operatorLegal(ft, condition.Operator) {
		return []error{fmt.Errorf("%w: operator %q is not valid for field type %q", types.ErrConfig, condition.Operator, ft)}
	}
	return nil
}
