package schema

import (
	"encoding/json"
	"fmt"
)

// DefinitionsPrefix is the reference prefix used by the configuration
// schemas; a $ref of "#/definitions/Model" names the "Model" entry of the
// definitions table.
const DefinitionsPrefix = "#/definitions/"

// EnumValue is a single permissible literal. Literals either appear as bare
// scalars or as objects carrying a display title and description; both forms
// decode into this shape. Const holds the committed value, never the title.
type EnumValue struct {
	Const       any    `json:"const"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts either a bare literal or a {const,title,description}
// object.
func (v *EnumValue) UnmarshalJSON(data []byte) error {
	var obj struct {
		Const       any    `json:"const"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Const != nil {
		v.Const = normalizeScalar(obj.Const)
		v.Title = obj.Title
		v.Description = obj.Description
		return nil
	}
	var scalar any
	if err := json.Unmarshal(data, &scalar); err != nil {
		return fmt.Errorf("schema: decode enum value: %w", err)
	}
	v.Const = normalizeScalar(scalar)
	v.Title = ""
	v.Description = ""
	return nil
}

// Definition is a JSON-Schema-shaped type descriptor for one configuration
// entity or field. A Definition doubles as a property reference: when Ref,
// AllOf, or AnyOf is set the descriptor is indirect and must go through
// Resolve before dispatch.
type Definition struct {
	Ref           string                 `json:"$ref,omitempty"`
	Types         []string               `json:"-"`
	Title         string                 `json:"title,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Nullable      bool                   `json:"nullable,omitempty"`
	Properties    map[string]*Definition `json:"properties,omitempty"`
	Items         *Definition            `json:"items,omitempty"`
	Required      []string               `json:"required,omitempty"`
	Enum          []EnumValue            `json:"enum,omitempty"`
	OneOf         []*Definition          `json:"oneOf,omitempty"`
	AnyOf         []*Definition          `json:"anyOf,omitempty"`
	AllOf         []*Definition          `json:"allOf,omitempty"`
	PropertyNames *Definition            `json:"propertyNames,omitempty"`
	Pattern       string                 `json:"pattern,omitempty"`
	Minimum       *float64               `json:"minimum,omitempty"`
	MinItems      *int                   `json:"minItems,omitempty"`
	MaxItems      *int                   `json:"maxItems,omitempty"`
	Examples      []any                  `json:"examples,omitempty"`
	Autocomplete  []string               `json:"autocomplete,omitempty"`
}

// Type returns the primary type of the definition. Schemas emitted for
// nullable fields use a type list ("string", "null"); the first entry wins.
func (d *Definition) Type() string {
	if d == nil || len(d.Types) == 0 {
		return ""
	}
	return d.Types[0]
}

// AllowsNull reports whether the definition admits null, either via the
// nullable keyword or a "null" entry in its type list.
func (d *Definition) AllowsNull() bool {
	if d == nil {
		return false
	}
	if d.Nullable {
		return true
	}
	for _, t := range d.Types {
		if t == "null" {
			return true
		}
	}
	return false
}

// HasEnum reports whether the definition carries an enumeration.
func (d *Definition) HasEnum() bool {
	return d != nil && len(d.Enum) > 0
}

// EnumConsts returns the literal value set of the enumeration, excluding
// display titles.
func (d *Definition) EnumConsts() []any {
	if d == nil || len(d.Enum) == 0 {
		return nil
	}
	out := make([]any, 0, len(d.Enum))
	for _, v := range d.Enum {
		out = append(out, v.Const)
	}
	return out
}

type definitionAlias Definition

// UnmarshalJSON decodes a definition, accepting "type" as either a single
// string or a list of strings.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var alias definitionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var head struct {
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	*d = Definition(alias)
	d.Types = nil
	if len(head.Type) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(head.Type, &single); err == nil {
		d.Types = []string{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(head.Type, &list); err != nil {
		return fmt.Errorf("schema: decode type: %w", err)
	}
	d.Types = list
	return nil
}

// MarshalJSON re-emits the type field collapsed to a single string when only
// one entry is present.
func (d Definition) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(definitionAlias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Types) == 0 {
		return payload, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}
	if len(d.Types) == 1 {
		obj["type"] = d.Types[0]
	} else {
		obj["type"] = d.Types
	}
	return json.Marshal(obj)
}

// Definitions is the named definition table a schema document carries. It is
// immutable for the duration of a form session.
type Definitions map[string]*Definition

// normalizeScalar collapses json.Number-like float64 noise for integral enum
// literals so membership checks compare cleanly.
func normalizeScalar(value any) any {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return value
}
