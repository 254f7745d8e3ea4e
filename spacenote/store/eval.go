package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

// This file evaluates the bson.M query grammar in memory for the memory
// and JSON-file backends. It implements the subset of MongoDB matching
// the query builder emits: bare-value equality, $ne, $gt/$gte/$lt/$lte,
// $regex with the "i" option, $in, $all, and top-level $and lists, with
// MongoDB's any-element semantics for array-valued fields.

// matchQuery reports whether doc satisfies every clause of the query.
func matchQuery(doc bson.M, query bson.M) bool {
	for key, expected := range query {
		if key == "$and" {
			for _, sub := range asSlice(expected) {
				subQuery, ok := asMap(sub)
				if !ok || !matchQuery(doc, subQuery) {
					return false
				}
			}
			continue
		}
		if !matchField(docValue(doc, key), expected) {
			return false
		}
	}
	return true
}

// matchField matches one document value against a query fragment: either
// an operator document or a bare equality value.
func matchField(value any, fragment any) bool {
	ops, ok := asMap(fragment)
	if !ok || !hasOperator(ops) {
		return equalOrContains(value, fragment)
	}

	for op, operand := range ops {
		// Range comparisons never match an absent/nil value, mirroring
		// MongoDB's type bracketing.
		switch op {
		case "$gt", "$gte", "$lt", "$lte":
			if value == nil {
				return false
			}
		}
		switch op {
		case "$ne":
			if equalOrContains(value, operand) {
				return false
			}
		case "$gt":
			if c, ok := compareValues(value, operand); !ok || c <= 0 {
				return false
			}
		case "$gte":
			if c, ok := compareValues(value, operand); !ok || c < 0 {
				return false
			}
		case "$lt":
			if c, ok := compareValues(value, operand); !ok || c >= 0 {
				return false
			}
		case "$lte":
			if c, ok := compareValues(value, operand); !ok || c > 0 {
				return false
			}
		case "$regex":
			if !matchRegex(value, operand, ops) {
				return false
			}
		case "$options":
			// Consumed together with $regex.
		case "$in":
			if !matchIn(value, asSlice(operand)) {
				return false
			}
		case "$all":
			if !matchAll(value, asSlice(operand)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// docValue resolves a storage path ("fields.priority") inside a document.
// The second path segment walks the nested map.
func docValue(doc bson.M, path string) any {
	current := any(doc)
	for _, segment := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil
		}
		current = m[segment]
	}
	return current
}

// equalOrContains is equality with MongoDB array semantics: an
// array-valued field equals a scalar when any element does.
func equalOrContains(value any, expected any) bool {
	if list, ok := valueAsSlice(value); ok {
		if expectedList, ok := valueAsSlice(expected); ok {
			return equalSlices(list, expectedList)
		}
		for _, element := range list {
			if equalValues(element, expected) {
				return true
			}
		}
		return false
	}
	return equalValues(value, expected)
}

func equalSlices(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalValues(a[i], b[i]) {
			return false
		}
	}
	return true
}

// equalValues compares two scalars after normalization, so an int64 in
// memory equals the float64 the same document carries after a JSON
// round-trip.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return false
}

// compareValues orders two scalars of compatible types. Numbers compare
// numerically, booleans false-before-true, times chronologically, and
// times against strings via RFC 3339 text, which sorts chronologically.
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		// nil sorts before everything, equal to itself
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}

	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		}
		return 1, true
	}

	sa, aok := asTimeString(a)
	sb, bok := asTimeString(b)
	if aok && bok {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// asTimeString textualizes strings and times into one comparable form.
func asTimeString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	}
	return "", false
}

func matchRegex(value any, operand any, ops bson.M) bool {
	pattern := fmt.Sprintf("%v", operand)
	if opts, ok := ops["$options"].(string); ok && strings.Contains(opts, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	if list, ok := valueAsSlice(value); ok {
		for _, element := range list {
			if s, ok := element.(string); ok && re.MatchString(s) {
				return true
			}
		}
		return false
	}
	s, ok := value.(string)
	return ok && re.MatchString(s)
}

// matchIn implements $in: a scalar matches when it equals any list
// element, an array when any of its elements does.
func matchIn(value any, list []any) bool {
	if elements, ok := valueAsSlice(value); ok {
		for _, element := range elements {
			for _, candidate := range list {
				if equalValues(element, candidate) {
					return true
				}
			}
		}
		return false
	}
	for _, candidate := range list {
		if equalValues(value, candidate) {
			return true
		}
	}
	return false
}

// matchAll implements $all: the field must contain every element of the
// list. A scalar field behaves as a one-element array.
func matchAll(value any, list []any) bool {
	if len(list) == 0 {
		return false
	}
	elements, ok := valueAsSlice(value)
	if !ok {
		elements = []any{value}
	}
	for _, required := range list {
		found := false
		for _, element := range elements {
			if equalValues(element, required) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func asMap(v any) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

// asSlice normalizes operand lists ($in/$all/$and payloads).
func asSlice(v any) []any {
	switch list := v.(type) {
	case bson.A:
		return list
	case []any:
		return list
	case []bson.M:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return nil
}

// valueAsSlice reports whether a document value is array-shaped.
func valueAsSlice(v any) ([]any, bool) {
	switch list := v.(type) {
	case bson.A:
		return list, true
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

func hasOperator(m bson.M) bool {
	for key := range m {
		if strings.HasPrefix(key, "$") {
			return true
		}
	}
	return false
}

// sortDocuments orders docs by the sort keys in input order; the first
// key is the primary sort, later keys break ties.
func sortDocuments(docs []bson.M, keys []types.SortField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			c, ok := compareValues(docValue(docs[i], key.Field), docValue(docs[j], key.Field))
			if !ok || c == 0 {
				continue
			}
			if key.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
