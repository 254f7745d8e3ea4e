package query

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

// storagePath maps a logical field name to its document path: the id
// built-in is the primary key, author/created_at live top-level, and all
// custom fields are nested under the fields subdocument.
func storagePath(name string) string {
	switch name {
	case types.BuiltinFieldID:
		return "_id"
	case types.BuiltinFieldAuthor, types.BuiltinFieldCreatedAt:
		return name
	}
	return "fields." + name
}

// BuildQuery translates a validated filter plus the current-user context
// into a backend query expression. "@me" tokens in condition values are
// resolved first (user fields only; no authenticated user resolves to
// nil, never an error). Conditions on distinct paths are ANDed by
// co-presence in the document; a second condition on an already-used path
// upgrades the query to an explicit $and list so neither fragment is
// overwritten.
func BuildQuery(filter types.Filter, space *types.Space, currentUser *types.User) (bson.M, error) {
	conditions := resolveConditions(filter.Conditions, space, currentUser)

	q := bson.M{}
	for _, condition := range conditions {
		fragment, err := buildFieldQuery(condition)
		if err != nil {
			return nil, err
		}
		path := storagePath(condition.Field)

		if _, taken := q[path]; taken {
			if _, ok := q["$and"]; !ok {
				existing := bson.M{}
				for k, v := range q {
					existing[k] = v
				}
				q = bson.M{"$and": bson.A{existing}}
			}
			q["$and"] = append(q["$and"].(bson.A), bson.M{path: fragment})
			continue
		}
		q[path] = fragment
	}
	return q, nil
}

// resolveConditions substitutes "@me" in comparison values of user-typed
// fields (built-in author included) with the current user's id, or nil
// when there is no authenticated member to resolve against.
func resolveConditions(conditions []types.FilterCondition, space *types.Space, currentUser *types.User) []types.FilterCondition {
	resolved := make([]types.FilterCondition, len(conditions))
	for i, condition := range conditions {
		resolved[i] = condition
		s, ok := condition.Value.(string)
		if !ok || types.SpecialValue(s) != types.SpecialCurrentUser {
			continue
		}
		if !isUserField(space, condition.Field) {
			continue
		}
		if currentUser == nil || !space.HasMember(currentUser.ID) {
			resolved[i].Value = nil
			continue
		}
		resolved[i].Value = currentUser.ID
	}
	return resolved
}

func isUserField(space *types.Space, name string) bool {
	if name == types.BuiltinFieldAuthor {
		return true
	}
	field := space.GetField(name)
	return field != nil && field.Type == types.FieldTypeUser
}

// buildFieldQuery maps one condition's operator and value to a query
// fragment. Equality is the bare value; everything else is an operator
// document.
func buildFieldQuery(condition types.FilterCondition) (any, error) {
	value := condition.Value

	switch condition.Operator {
	case types.OpEqual:
		return value, nil
	case types.OpNotEqual:
		return bson.M{"$ne": value}, nil
	case types.OpGreater:
		return bson.M{"$gt": value}, nil
	case types.OpGreaterOrEqual:
		return bson.M{"$gte": value}, nil
	case types.OpLess:
		return bson.M{"$lt": value}, nil
	case types.OpLessOrEqual:
		return bson.M{"$lte": value}, nil
	case types.OpContains:
		return bson.M{"$regex": fmt.Sprintf("%v", value), "$options": "i"}, nil
	case types.OpStartsWith:
		return bson.M{"$regex": fmt.Sprintf("^%v", value), "$options": "i"}, nil
	case types.OpEndsWith:
		return bson.M{"$regex": fmt.Sprintf("%v$", value), "$options": "i"}, nil
	case types.OpIn:
		return bson.M{"$in": asList(value)}, nil
	case types.OpAll:
		return bson.M{"$all": asList(value)}, nil
	}
	return nil, fmt.Errorf("%w: unsupported operator %q", types.ErrConfig, condition.Operator)
}

// asList wraps a scalar comparison value as a singleton list; lists pass
// through as-is.
func asList(value any) bson.A {
	switch list := value.(type) {
	case bson.A:
		return list
	case []any:
		return bson.A(list)
	case []string:
		out := make(bson.A, len(list))
		for i, v := range list {
			out[i] = v
		}
		return out
	}
	return bson.A{value}
}
