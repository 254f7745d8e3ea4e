// Package query validates user-authored filters against a space schema
// and translates them into backend query and sort expressions. The
// expression grammar is MongoDB's (bson.M with $-operators); the bundled
// store backends evaluate the same grammar in memory.
package query

import (
	"github.com/spacenote/spacenote/types"
)

// fieldTypeOperators is the operator legality table: for each field type,
// the set of operators a filter condition may use.
var fieldTypeOperators = map[types.FieldType][]types.FilterOperator{
	types.FieldTypeString: {
		types.OpEqual, types.OpNotEqual,
		types.OpContains, types.OpStartsWith, types.OpEndsWith,
		types.OpIn,
	},
	types.FieldTypeMarkdown: {
		types.OpEqual, types.OpNotEqual,
		types.OpContains, types.OpStartsWith, types.OpEndsWith,
		types.OpIn,
	},
	types.FieldTypeBoolean: {
		types.OpEqual, types.OpNotEqual,
	},
	types.FieldTypeChoice: {
		types.OpEqual, types.OpNotEqual, types.OpIn,
	},
	types.FieldTypeTags: {
		types.OpContains, types.OpIn, types.OpAll,
	},
	types.FieldTypeUser: {
		types.OpEqual, types.OpNotEqual, types.OpIn,
	},
	types.FieldTypeDatetime: {
		types.OpEqual, types.OpNotEqual,
		types.OpGreater, types.OpGreaterOrEqual, types.OpLess, types.OpLessOrEqual,
	},
	types.FieldTypeInt: {
		types.OpEqual, types.OpNotEqual,
		types.OpGreater, types.OpGreaterOrEqual, types.OpLess, types.OpLessOrEqual,
		types.OpIn,
	},
	types.FieldTypeFloat: {
		types.OpEqual, types.OpNotEqual,
		types.OpGreater, types.OpGreaterOrEqual, types.OpLess, types.OpLessOrEqual,
		types.OpIn,
	},
}

// builtinFieldTypes maps the implicit note fields to the field type whose
// operator set they borrow.
var builtinFieldTypes = map[string]types.FieldType{
	types.BuiltinFieldID:        types.FieldTypeInt,
	types.BuiltinFieldAuthor:    types.FieldTypeUser,
	types.BuiltinFieldCreatedAt: types.FieldTypeDatetime,
}

// OperatorsForFieldType returns the legal operator set for a field type,
// or nil for an unknown type.
func OperatorsForFieldType(ft types.FieldType) []types.FilterOperator {
	return fieldTypeOperators[ft]
}

// OperatorsForField returns the legal operator set for a named field of a
// space, covering built-in pseudo-fields, or nil when the field is
// unknown.
func OperatorsForField(space *types.Space, name string) []types.FilterOperator {
	if ft, ok := builtinFieldTypes[name]; ok {
		return fieldTypeOperators[ft]
	}
	if field := space.GetField(name); field != nil {
		return fieldTypeOperators[field.Type]
	}
	return nil
}

// operatorLegal reports whether op is in the legal set for ft.
func operatorLegal(ft types.FieldType, op types.FilterOperator) bool {
	for _, legal := range fieldTypeOperators[ft] {
		if legal == op {
			return true
		}
	}
	return false
}

// fieldExists reports whether name is a schema field or a built-in.
func fieldExists(space *types.Space, name string) bool {
	if types.IsBuiltinField(name) {
		return true
	}
	return space.GetField(name) != nil
}
