package form

import (
	"testing"

	"github.com/goliatone/go-adminform/pkg/schema"
)

func defOf(t *testing.T, raw string) (*schema.Definition, schema.Definitions) {
	t.Helper()
	doc, err := schema.ParseDocument([]byte(raw))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc.Root, doc.Definitions
}

func classifyProperty(t *testing.T, raw, field string, hints Hints) Kind {
	t.Helper()
	root, defs := defOf(t, raw)
	property, ok := root.Properties[field]
	if !ok {
		t.Fatalf("fixture has no property %q", field)
	}
	resolved, err := schema.Resolve(field, property, defs)
	if err != nil {
		t.Fatalf("resolve %q: %v", field, err)
	}
	kind, _, err := Classify(field, resolved, hints, defs)
	if err != nil {
		t.Fatalf("classify %q: %v", field, err)
	}
	return kind
}

func TestClassify_DispatchOrder(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		field  string
		hints  Hints
		want   Kind
	}{
		{
			name:   "one of enums flattens before array and enum checks",
			schema: `{"type":"object","properties":{"f":{"oneOf":[{"title":"Common","enum":["a"]},{"title":"Rare","enum":["b"]}]}}}`,
			field:  "f",
			want:   KindSelect,
		},
		{
			name:   "array of objects",
			schema: `{"type":"object","properties":{"f":{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"}}}}}}`,
			field:  "f",
			want:   KindObjectArray,
		},
		{
			name:   "array with fixed options",
			schema: `{"type":"object","properties":{"f":{"type":"array","items":{"type":"string"}}}}`,
			field:  "f",
			hints:  Hints{Options: []Option{{Value: "a", Label: "A"}}},
			want:   KindMultiSelect,
		},
		{
			name:   "array without options",
			schema: `{"type":"object","properties":{"f":{"type":"array","items":{"type":"string"}}}}`,
			field:  "f",
			want:   KindMultiInput,
		},
		{
			name:   "nested object",
			schema: `{"type":"object","properties":{"f":{"type":"object","properties":{"g":{"type":"string"}}}}}`,
			field:  "f",
			want:   KindObject,
		},
		{
			name:   "enum as select",
			schema: `{"type":"object","properties":{"f":{"type":"string","enum":["a","b"]}}}`,
			field:  "f",
			want:   KindSelect,
		},
		{
			name:   "enum as radio via hint",
			schema: `{"type":"object","properties":{"f":{"type":"string","enum":["a","b"]}}}`,
			field:  "f",
			hints:  Hints{Radio: true},
			want:   KindRadio,
		},
		{
			name:   "nullable boolean tri state via type list",
			schema: `{"type":"object","properties":{"f":{"type":["boolean","null"]}}}`,
			field:  "f",
			want:   KindTriState,
		},
		{
			name:   "nullable boolean tri state via keyword",
			schema: `{"type":"object","properties":{"f":{"type":"boolean","nullable":true}}}`,
			field:  "f",
			want:   KindTriState,
		},
		{
			name:   "plain boolean checkbox",
			schema: `{"type":"object","properties":{"f":{"type":"boolean"}}}`,
			field:  "f",
			want:   KindCheckbox,
		},
		{
			name:   "integer",
			schema: `{"type":"object","properties":{"f":{"type":"integer"}}}`,
			field:  "f",
			want:   KindInteger,
		},
		{
			name:   "autocomplete from hint",
			schema: `{"type":"object","properties":{"f":{"type":"string"}}}`,
			field:  "f",
			hints:  Hints{Autocomplete: []string{"main", "log"}},
			want:   KindAutocomplete,
		},
		{
			name:   "textarea from hint",
			schema: `{"type":"object","properties":{"f":{"type":"string"}}}`,
			field:  "f",
			hints:  Hints{Multiline: true},
			want:   KindTextarea,
		},
		{
			name:   "code editor from hint",
			schema: `{"type":"object","properties":{"f":{"type":"string"}}}`,
			field:  "f",
			hints:  Hints{Code: true},
			want:   KindCode,
		},
		{
			name:   "fallback text",
			schema: `{"type":"object","properties":{"f":{"type":"string"}}}`,
			field:  "f",
			want:   KindText,
		},
		{
			name:   "enum wins over textarea hint",
			schema: `{"type":"object","properties":{"f":{"type":"string","enum":["a"]}}}`,
			field:  "f",
			hints:  Hints{Multiline: true},
			want:   KindSelect,
		},
		{
			name:   "referenced enum resolves before dispatch",
			schema: `{"type":"object","properties":{"f":{"$ref":"#/definitions/Engine"}},"definitions":{"Engine":{"type":"string","enum":["innodb"]}}}`,
			field:  "f",
			want:   KindSelect,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyProperty(t, tc.schema, tc.field, tc.hints); got != tc.want {
				t.Fatalf("kind = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	raw := `{"type":"object","properties":{"f":{"type":["boolean","null"]}}}`
	first := classifyProperty(t, raw, "f", Hints{})
	for i := 0; i < 5; i++ {
		if got := classifyProperty(t, raw, "f", Hints{}); got != first {
			t.Fatalf("classification changed between runs: %q then %q", first, got)
		}
	}
}
