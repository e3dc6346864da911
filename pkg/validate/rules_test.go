package validate

import (
	"math"
	"testing"
)

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  float64
		nan   bool
		ok    bool
	}{
		{name: "json number", input: float64(3), want: 3, ok: true},
		{name: "native int", input: 7, want: 7, ok: true},
		{name: "numeric string", input: "42", want: 42, ok: true},
		{name: "float string", input: "3.9", want: 3.9, ok: true},
		{name: "empty string", input: "", nan: true, ok: true},
		{name: "blank string", input: "  ", nan: true, ok: true},
		{name: "non numeric", input: "abc", ok: false},
		{name: "bool", input: true, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := coerceNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("coerceNumber(%v) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if !ok {
				return
			}
			if tc.nan {
				if !math.IsNaN(got) {
					t.Fatalf("coerceNumber(%v) = %v, want NaN", tc.input, got)
				}
				return
			}
			if got != tc.want {
				t.Fatalf("coerceNumber(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestIntegerRule_TruncatesBeforeBound(t *testing.T) {
	min := float64(2)
	rule := &IntegerRule{base: base{Label: "Count"}, Minimum: &min}

	if issues := rule.Validate("count", 2.9); len(issues) != 0 {
		t.Fatalf("2.9 should truncate to 2 and pass: %v", issues)
	}
	if issues := rule.Validate("count", 1.9); len(issues) == 0 {
		t.Fatalf("1.9 should truncate to 1 and fail the bound")
	}
}

func TestIntegerRule_RequiredTreatsBlankAsMissing(t *testing.T) {
	rule := &IntegerRule{base: base{Label: "Count", Required: true}}

	issues := rule.Validate("count", "")
	if len(issues) != 1 || issues[0].Message != "Count is a required field" {
		t.Fatalf("blank required integer: %v", issues)
	}
	if issues := rule.Validate("count", nil); len(issues) != 1 {
		t.Fatalf("nil required integer: %v", issues)
	}
}

func TestLiteralEqual(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{a: "innodb", b: "innodb", want: true},
		{a: "innodb", b: "myisam", want: false},
		{a: int64(3), b: float64(3), want: true},
		{a: 3, b: int64(3), want: true},
		{a: "3", b: 3, want: false},
		{a: true, b: true, want: true},
		{a: true, b: false, want: false},
	}
	for _, tc := range cases {
		if got := literalEqual(tc.a, tc.b); got != tc.want {
			t.Fatalf("literalEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestEnumRule_NullableSkipsMembership(t *testing.T) {
	rule := &EnumRule{base: base{Label: "Engine", Nullable: true}, Values: []any{"innodb", "myisam"}}
	if issues := rule.Validate("engine", nil); len(issues) != 0 {
		t.Fatalf("nil nullable enum flagged: %v", issues)
	}
}

func TestNullableAcceptsNullEvenWhenRequired(t *testing.T) {
	nullable := &BooleanRule{base: base{Label: "Cached", Required: true, Nullable: true}}
	if issues := nullable.Validate("cached", nil); len(issues) != 0 {
		t.Fatalf("unset nullable boolean flagged: %v", issues)
	}

	strict := &BooleanRule{base: base{Label: "Cached", Required: true}}
	issues := strict.Validate("cached", nil)
	if len(issues) != 1 || issues[0].Message != "Cached is a required field" {
		t.Fatalf("non-nullable null not flagged as required: %v", issues)
	}

	enum := &EnumRule{base: base{Label: "Engine", Required: true, Nullable: true}, Values: []any{"innodb"}}
	if issues := enum.Validate("engine", nil); len(issues) != 0 {
		t.Fatalf("unset nullable enum flagged: %v", issues)
	}
}

func TestObjectRule_ReportsIssuesInPropertyOrder(t *testing.T) {
	rule := &ObjectRule{
		base: base{Label: "Row"},
		Properties: map[string]Rule{
			"a": &StringRule{base: base{Label: "A", Required: true}},
			"b": &StringRule{base: base{Label: "B", Required: true}},
		},
		Order: []string{"b", "a"},
	}
	issues := rule.Validate("row", map[string]any{})
	if len(issues) != 2 {
		t.Fatalf("expected two issues, got %v", issues)
	}
	if issues[0].Path != "row.b" || issues[1].Path != "row.a" {
		t.Fatalf("issue order does not follow property order: %v", issues)
	}
}
