// Package openapi imports the component schemas of an OpenAPI document into
// the definition table the schema resolver works against. Backends that
// describe their configuration types in an OpenAPI spec rather than bare
// JSON Schema documents load through here.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-adminform/pkg/schema"
)

const componentsPrefix = "#/components/schemas/"

// Definitions loads an OpenAPI document (JSON or YAML) and converts its
// component schemas into a definition table. References between components
// are rewritten to definition references so the resolver follows them
// unchanged.
func Definitions(ctx context.Context, raw []byte) (schema.Definitions, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: false,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}

	defs := make(schema.Definitions, len(spec.Components.Schemas))
	for name, ref := range spec.Components.Schemas {
		defs[name] = convertValue(ref)
	}
	return defs, nil
}

// Document selects one named component as the root of an editable document.
func Document(defs schema.Definitions, name string) (*schema.Document, error) {
	root, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("openapi: no component schema named %q", name)
	}
	if root.Type() != "object" {
		return nil, &schema.UnsupportedSchemaError{Field: name, Reason: "root schema must be an object"}
	}
	return &schema.Document{Root: root, Definitions: defs}, nil
}

// convert maps one schema reference. A reference to another component stays
// an indirection: the resolver follows it through the definition table.
func convert(ref *openapi3.SchemaRef) *schema.Definition {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &schema.Definition{Ref: rewriteRef(ref.Ref)}
	}
	return convertValue(ref)
}

// convertValue maps a schema's own shape, ignoring any surrounding
// reference. Component table entries convert through here so the table
// holds concrete definitions, not self references.
func convertValue(ref *openapi3.SchemaRef) *schema.Definition {
	if ref == nil || ref.Value == nil {
		return &schema.Definition{}
	}
	src := ref.Value

	def := &schema.Definition{
		Title:       src.Title,
		Description: src.Description,
		Nullable:    src.Nullable,
		Pattern:     src.Pattern,
	}
	if src.Type != nil {
		def.Types = src.Type.Slice()
	}
	if len(src.Required) > 0 {
		def.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		def.Enum = make([]schema.EnumValue, 0, len(src.Enum))
		for _, literal := range src.Enum {
			def.Enum = append(def.Enum, schema.EnumValue{Const: literal})
		}
	}
	if len(src.Properties) > 0 {
		def.Properties = make(map[string]*schema.Definition, len(src.Properties))
		for name, property := range src.Properties {
			def.Properties[name] = convert(property)
		}
	}
	if src.Items != nil {
		def.Items = convert(src.Items)
	}
	for _, branch := range src.OneOf {
		def.OneOf = append(def.OneOf, convert(branch))
	}
	for _, branch := range src.AnyOf {
		def.AnyOf = append(def.AnyOf, convert(branch))
	}
	for _, branch := range src.AllOf {
		def.AllOf = append(def.AllOf, convert(branch))
	}
	if src.Min != nil {
		value := *src.Min
		def.Minimum = &value
	}
	if src.MinItems != 0 {
		value := int(src.MinItems)
		def.MinItems = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		def.MaxItems = &value
	}
	return def
}

func rewriteRef(ref string) string {
	if name, ok := strings.CutPrefix(ref, componentsPrefix); ok {
		return schema.DefinitionsPrefix + name
	}
	return ref
}
