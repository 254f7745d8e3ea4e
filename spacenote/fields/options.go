package fields

import (
	"strconv"

	"github.com/spacenote/spacenote/types"
)

// Option and default values pass through JSON/YAML round-trips, so the
// helpers below accept every primitive shape a decoder may produce
// (float64 for JSON numbers, []any for lists) and normalize it.

// choiceValues returns the values option of a choice field as a string
// slice, or nil when absent or malformed.
func choiceValues(f types.SpaceField) []string {
	raw, ok := f.Options[types.OptionValues]
	if !ok {
		return nil
	}
	values, _ := stringList(raw)
	return values
}

// stringList normalizes []string and []any-of-strings.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// intValue normalizes an integer-shaped value: Go ints, whole floats from
// JSON decoding, and numeric strings from web forms.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// floatValue normalizes a number-shaped value the same way.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func intOption(f types.SpaceField, opt types.FieldOption) (int64, bool) {
	raw, ok := f.Options[opt]
	if !ok || raw == nil {
		return 0, false
	}
	return intValue(raw)
}

func floatOption(f types.SpaceField, opt types.FieldOption) (float64, bool) {
	raw, ok := f.Options[opt]
	if !ok || raw == nil {
		return 0, false
	}
	return floatValue(raw)
}
