// Package validate compiles a schema definition into a runtime validation
// schema: per-field and per-collection rules that gate submission. The
// compiler mirrors the form dispatch's type-detection so the two stay
// behaviorally consistent.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Issue is one validation failure attached to a dotted path.
type Issue struct {
	Path    string
	Message string
}

// Rule validates a value found at a dotted path and reports zero or more
// issues. Rules never mutate the value.
type Rule interface {
	Validate(path string, value any) []Issue
}

type base struct {
	Label    string
	Nullable bool
	Required bool
}

// skip reports whether a nil value passes without further checks: absence
// is valid for optional fields, and a nullable field accepts an explicit
// null even when required (a tri-state boolean's unset state is legitimate).
func (b base) skip(value any) bool {
	if value != nil {
		return false
	}
	return !b.Required || b.Nullable
}

func (b base) requiredIssue(path string) []Issue {
	return []Issue{{Path: path, Message: fmt.Sprintf("%s is a required field", b.Label)}}
}

// ObjectRule validates a map of properties as the conjunction of each
// property's rule. Absent optional properties pass; required-ness lives on
// the property rules themselves.
type ObjectRule struct {
	base
	Properties map[string]Rule
	Order      []string
}

func (r *ObjectRule) Validate(path string, value any) []Issue {
	if r.skip(value) {
		return nil
	}
	if value == nil {
		return r.requiredIssue(path)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s must be an object", r.Label)}}
	}
	var issues []Issue
	for _, name := range r.Order {
		issues = append(issues, r.Properties[name].Validate(joinPath(path, name), obj[name])...)
	}
	return issues
}

// StringRule validates scalar strings, optionally against a whole-string
// unicode pattern.
type StringRule struct {
	base
	Pattern *regexp.Regexp
}

func (r *StringRule) Validate(path string, value any) []Issue {
	if r.skip(value) {
		return nil
	}
	if value == nil {
		return r.requiredIssue(path)
	}
	str, ok := value.(string)
	if !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s must be a string", r.Label)}}
	}
	if r.Required && str == "" {
		return r.requiredIssue(path)
	}
	if r.Pattern != nil && str != "" && !r.Pattern.MatchString(str) {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s is not valid", r.Label)}}
	}
	return nil
}

// IntegerRule validates integral numbers. Unparseable input counts as
// non-numeric; NaN counts as absence rather than a failure. Only the lower
// bound is enforced.
type IntegerRule struct {
	base
	Minimum *float64
}

func (r *IntegerRule) Validate(path string, value any) []Issue {
	if r.skip(value) {
		return nil
	}
	if value == nil {
		return r.requiredIssue(path)
	}
	num, ok := coerceNumber(value)
	if !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s must be a number", r.Label)}}
	}
	if math.IsNaN(num) {
		if r.Required {
			return r.requiredIssue(path)
		}
		return nil
	}
	num = math.Trunc(num)
	if r.Minimum != nil && num < *r.Minimum {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s must be greater than or equal to %s", r.Label, formatNumber(*r.Minimum))}}
	}
	return nil
}

// BooleanRule validates booleans with no further constraint.
type BooleanRule struct {
	base
}

func (r *BooleanRule) Validate(path string, value any) []Issue {
	if r.skip(value) {
		return nil
	}
	if value == nil {
		return r.requiredIssue(path)
	}
	if _, ok := value.(bool); !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s must be a boolean", r.Label)}}
	}
	return nil
}

// EnumRule validates membership against the literal value set, never the
// display titles.
type EnumRule struct {
	base
	Values []any
}

func (r *EnumRule) Validate(path string, value any) []Issue {
	if r.skip(value) {
		return nil
	}
	if value == nil {
		return r.requiredIssue(path)
	}
	for _, candidate := range r.Values {
		if literalEqual(candidate, value) {
			return nil
		}
	}
	return []Issue{{Path: path, Message: fmt.Sprintf("%s must be one of the allowed values", r.Label)}}
}

// ArrayRule validates an ordered collection: element-wise rules, optional
// length bounds, and an optional collection-level uniqueness constraint over
// the named item field.
type ArrayRule struct {
	base
	Element  Rule
	MinItems *int
	MaxItems *int
	UniqueBy string
}

func (r *ArrayRule) Validate(path string, value any) []Issue {
	if r.skip(value) {
		return nil
	}
	if value == nil {
		return r.requiredIssue(path)
	}
	list, ok := value.([]any)
	if !ok {
		return []Issue{{Path: path, Message: fmt.Sprintf("%s must be an array", r.Label)}}
	}
	var issues []Issue
	if r.MinItems != nil && len(list) < *r.MinItems {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("%s must have at least %d items", r.Label, *r.MinItems)})
	}
	if r.MaxItems != nil && len(list) > *r.MaxItems {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("%s must have at most %d items", r.Label, *r.MaxItems)})
	}
	for idx, element := range list {
		issues = append(issues, r.Element.Validate(joinPath(path, strconv.Itoa(idx)), element)...)
	}
	if r.UniqueBy != "" {
		seen := make(map[string]struct{}, len(list))
		duplicate := false
		for _, element := range list {
			row, ok := element.(map[string]any)
			if !ok {
				continue
			}
			key := fmt.Sprint(row[r.UniqueBy])
			if _, exists := seen[key]; exists {
				duplicate = true
				break
			}
			seen[key] = struct{}{}
		}
		if duplicate {
			// Collection-level error, not attached to any single row.
			issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("%s must be unique", r.Label)})
		}
	}
	return issues
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// coerceNumber accepts JSON numbers, native ints, and numeric strings the
// way form input arrives; non-numeric strings fail coercion.
func coerceNumber(value any) (float64, bool) {
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
	case string:
		if strings.TrimSpace(v) == "" {
			return math.NaN(), true
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func literalEqual(a, b any) bool {
	if a == b {
		return true
	}
	an, aok := coerceStrictNumber(a)
	bn, bok := coerceStrictNumber(b)
	return aok && bok && an == bn
}

// coerceStrictNumber matches numeric literals across int/float encodings
// without treating strings as numbers.
func coerceStrictNumber(value any) (float64, bool) {
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
