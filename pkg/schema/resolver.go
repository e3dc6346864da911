package schema

import "strings"

// Resolve follows a property reference to its concrete definition.
//
// A $ref is a single indirection into the definitions table. allOf and anyOf
// resolve through their first branch only; multi-branch composition is not a
// supported shape in the configuration schemas and is deliberately not
// handled here. propertyNames-keyed objects are rejected. Concrete
// descriptors are returned unchanged, so resolving an already-resolved
// definition is the identity.
//
// Resolve never mutates the definitions table and is idempotent: resolving
// the same descriptor twice yields structurally equal results.
func Resolve(field string, property *Definition, defs Definitions) (*Definition, error) {
	if property == nil {
		return nil, &UnsupportedSchemaError{Field: field, Reason: "property descriptor is nil"}
	}
	switch {
	case property.Ref != "":
		return lookupRef(field, property.Ref, defs)
	case len(property.AllOf) > 0:
		return Resolve(field, property.AllOf[0], defs)
	case len(property.AnyOf) > 0:
		return Resolve(field, property.AnyOf[0], defs)
	case property.PropertyNames != nil:
		return nil, &UnsupportedSchemaError{Field: field, Reason: "propertyNames schemas are not supported"}
	default:
		return property, nil
	}
}

// ResolveItems resolves the item descriptor of an array definition.
func ResolveItems(field string, def *Definition, defs Definitions) (*Definition, error) {
	if def == nil || def.Items == nil {
		return nil, &UnsupportedSchemaError{Field: field, Reason: "array definition is missing items"}
	}
	return Resolve(field, def.Items, defs)
}

func lookupRef(field, ref string, defs Definitions) (*Definition, error) {
	name := strings.TrimPrefix(ref, DefinitionsPrefix)
	if def, ok := defs[name]; ok {
		return def, nil
	}
	return nil, &UnresolvedReferenceError{Field: field, Ref: ref}
}

// FlattenOneOf derives a copy of the definition in which a oneOf made of
// enumeration branches is collapsed into a single enum value set. Each
// literal keeps its originating branch's title and description so controls
// can label the options. Definitions without such a oneOf are returned as-is.
// The input is never mutated; the definitions table stays pristine.
func FlattenOneOf(def *Definition) *Definition {
	if def == nil || len(def.OneOf) == 0 {
		return def
	}
	if len(def.OneOf[0].Enum) == 0 {
		return def
	}
	flattened := *def
	flattened.OneOf = nil
	var values []EnumValue
	for _, branch := range def.OneOf {
		for _, literal := range branch.Enum {
			value := EnumValue{Const: literal.Const}
			value.Title = branch.Title
			value.Description = branch.Description
			if literal.Title != "" {
				value.Title = literal.Title
			}
			if literal.Description != "" {
				value.Description = literal.Description
			}
			values = append(values, value)
		}
	}
	flattened.Enum = values
	return &flattened
}
