package form

import (
	"fmt"
	"strconv"
	"strings"
)

// Coerce normalizes raw control input into the value stored in the state
// tree. Scalar controls map empty input to nil, never to a zero value, so an
// untouched field and a cleared field are indistinguishable downstream.
// Unparseable numeric input is stored as-is for validation to reject; the
// control never swallows what the user typed.
func Coerce(kind Kind, raw any) any {
	switch kind {
	case KindInteger:
		return coerceInteger(raw)
	case KindText, KindAutocomplete, KindTextarea, KindCode:
		if text, ok := raw.(string); ok && text == "" {
			return nil
		}
		return raw
	default:
		return raw
	}
}

func coerceInteger(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return v
		}
		return int64(parsed)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return raw
	}
}

// CycleTriState advances a nullable boolean one step: unset, true, false,
// unset. No state is ever skipped.
func CycleTriState(current any) any {
	switch v := current.(type) {
	case nil:
		return true
	case bool:
		if v {
			return false
		}
		return nil
	default:
		return true
	}
}

// SameValue reports whether a stored value matches an option const. Numeric
// literals match across encodings, so an int read from a JSON document
// (float64) still matches its normalized option const (int64). Strings
// never match numbers.
func SameValue(a, b any) bool {
	if a == b {
		return true
	}
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	return aok && bok && an == bn
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// FormatValue renders a stored value for display in a text-backed control.
// The stored nil maps back to the empty string.
func FormatValue(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
