package validate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/goliatone/go-adminform/pkg/schema"
)

const maxCompileDepth = 100

// Compile walks a schema definition and produces its runtime validation
// schema. Compilation happens once, eagerly, before a form opens; an
// unsupported shape is fatal to the whole screen, not recoverable per field.
func Compile(root *schema.Definition, defs schema.Definitions) (Rule, error) {
	return compile("", root, root, defs, 0)
}

// compile mirrors the dispatch rules of the form renderer: the property
// descriptor supplies display metadata (title, nullable) while the resolved
// definition supplies the type shape.
func compile(field string, property, def *schema.Definition, defs schema.Definitions, depth int) (Rule, error) {
	if depth > maxCompileDepth {
		return nil, &schema.UnsupportedSchemaError{Field: field, Reason: "schema nesting exceeds compile depth"}
	}
	if def == nil {
		return nil, &schema.UnsupportedSchemaError{Field: field, Reason: "definition is nil"}
	}

	meta := base{
		Label:    labelFor(field, property, def),
		Nullable: property.AllowsNull() || def.AllowsNull(),
	}

	// Case order mirrors the renderer's control dispatch: an enum wins over
	// its declared scalar type, so a type-tagged enum still gets a
	// membership rule.
	switch {
	case len(def.OneOf) > 0:
		flattened := schema.FlattenOneOf(def)
		if !flattened.HasEnum() {
			return nil, &schema.UnsupportedSchemaError{Field: field, Reason: "oneOf branches are not enumerations"}
		}
		return &EnumRule{base: meta, Values: flattened.EnumConsts()}, nil
	case def.Type() == "array":
		return compileArray(field, property, def, defs, meta, depth)
	case def.Type() == "object":
		return compileObject(field, def, defs, meta, depth)
	case def.HasEnum():
		return &EnumRule{base: meta, Values: def.EnumConsts()}, nil
	case def.Type() == "string":
		return compileString(field, def, meta)
	case def.Type() == "integer":
		rule := &IntegerRule{base: meta}
		if def.Minimum != nil {
			min := *def.Minimum
			rule.Minimum = &min
		}
		return rule, nil
	case def.Type() == "boolean":
		return &BooleanRule{base: meta}, nil
	default:
		return nil, &schema.UnsupportedSchemaError{Field: field, Reason: fmt.Sprintf("no rule for type %q", def.Type())}
	}
}

func compileObject(field string, def *schema.Definition, defs schema.Definitions, meta base, depth int) (Rule, error) {
	rule := &ObjectRule{
		base:       meta,
		Properties: make(map[string]Rule, len(def.Properties)),
	}
	requiredSet := make(map[string]struct{}, len(def.Required))
	for _, name := range def.Required {
		requiredSet[name] = struct{}{}
	}

	names := make([]string, 0, len(def.Properties))
	for name := range def.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		property := def.Properties[name]
		resolved, err := schema.Resolve(name, property, defs)
		if err != nil {
			return nil, err
		}
		child, err := compile(name, property, resolved, defs, depth+1)
		if err != nil {
			return nil, err
		}
		if _, required := requiredSet[name]; required {
			child = markRequired(child)
		}
		rule.Properties[name] = child
		rule.Order = append(rule.Order, name)
	}
	return rule, nil
}

func compileString(field string, def *schema.Definition, meta base) (Rule, error) {
	rule := &StringRule{base: meta}
	if def.Pattern != "" {
		compiled, err := compilePattern(def.Pattern)
		if err != nil {
			return nil, &schema.UnsupportedSchemaError{Field: field, Reason: fmt.Sprintf("invalid pattern %q: %v", def.Pattern, err)}
		}
		rule.Pattern = compiled
	}
	return rule, nil
}

func compileArray(field string, property, def *schema.Definition, defs schema.Definitions, meta base, depth int) (Rule, error) {
	items, err := schema.ResolveItems(field, def, defs)
	if err != nil {
		return nil, err
	}

	rule := &ArrayRule{base: meta}
	if def.MinItems != nil {
		min := *def.MinItems
		rule.MinItems = &min
	}
	if def.MaxItems != nil {
		max := *def.MaxItems
		rule.MaxItems = &max
	}

	switch items.Type() {
	case "object":
		element, err := compile(field, items, items, defs, depth+1)
		if err != nil {
			return nil, err
		}
		rule.Element = element
		if _, hasName := items.Properties["name"]; hasName {
			rule.UniqueBy = "name"
		}
	case "string":
		element := &StringRule{base: base{Label: meta.Label, Required: true}}
		if items.Pattern != "" {
			compiled, err := compilePattern(items.Pattern)
			if err != nil {
				return nil, &schema.UnsupportedSchemaError{Field: field, Reason: fmt.Sprintf("invalid pattern %q: %v", items.Pattern, err)}
			}
			element.Pattern = compiled
		}
		rule.Element = element
	default:
		return nil, &schema.UnsupportedSchemaError{Field: field, Reason: fmt.Sprintf("array items of type %q are not supported", items.Type())}
	}
	return rule, nil
}

// compilePattern anchors the schema pattern so it must match the whole
// string. Go's regexp is unicode-aware by default.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)\z`)
}

func labelFor(field string, property, def *schema.Definition) string {
	if property != nil && property.Title != "" {
		return property.Title
	}
	if def != nil && def.Title != "" {
		return def.Title
	}
	if field == "" {
		return "value"
	}
	return field
}

func markRequired(rule Rule) Rule {
	switch r := rule.(type) {
	case *ObjectRule:
		r.Required = true
	case *StringRule:
		r.Required = true
	case *IntegerRule:
		r.Required = true
	case *BooleanRule:
		r.Required = true
	case *EnumRule:
		r.Required = true
	case *ArrayRule:
		r.Required = true
	}
	return rule
}
