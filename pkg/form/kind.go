// Package form derives editing controls from resolved schema definitions and
// applies their uniform write-through contract against a form state tree.
package form

import (
	"github.com/goliatone/go-adminform/pkg/schema"
)

// Kind identifies the editing control chosen for a field. The set is closed:
// dispatch is an explicit match over these variants rather than an open
// if/else chain, so the selection order stays exhaustively testable.
type Kind string

const (
	// KindObjectArray edits an ordered collection of structured rows in a
	// dedicated sub-screen.
	KindObjectArray Kind = "object-array"
	// KindMultiSelect picks a subset of a fixed option set.
	KindMultiSelect Kind = "multi-select"
	// KindMultiInput edits an ordered list of independent scalar entries.
	KindMultiInput Kind = "multi-input"
	// KindObject delegates to a caller-supplied nested sub-form.
	KindObject Kind = "object"
	// KindSelect picks one enum literal from a dropdown.
	KindSelect Kind = "select"
	// KindRadio picks one enum literal from a radio group.
	KindRadio Kind = "radio"
	// KindTriState toggles a nullable boolean through unset, true, false.
	KindTriState Kind = "tri-state"
	// KindCheckbox toggles a plain boolean.
	KindCheckbox Kind = "checkbox"
	// KindInteger edits a numeric value; empty input stores null.
	KindInteger Kind = "integer"
	// KindAutocomplete is free text with advisory suggestions.
	KindAutocomplete Kind = "autocomplete"
	// KindTextarea is multi-line text sized to its content.
	KindTextarea Kind = "textarea"
	// KindCode is a code editor seeded from the schema's first example.
	KindCode Kind = "code"
	// KindText is the fallback single-line input; empty input stores null.
	KindText Kind = "text"
)

// Hints carry the caller's presentation choices for one field. They influence
// dispatch only where the schema alone cannot decide.
type Hints struct {
	// Radio renders an enum as a radio group instead of a dropdown.
	Radio bool
	// Options supplies a fixed option set, turning a scalar array field
	// into a multi-select.
	Options []Option
	// Autocomplete supplies advisory suggestions for free-text input.
	Autocomplete []string
	// Multiline requests a textarea.
	Multiline bool
	// Code requests a syntax-aware editor.
	Code bool
	// Hidden suppresses rendering. The stored value is left untouched;
	// values are only cleared by explicit user action.
	Hidden bool
	// Disabled renders the control read-only.
	Disabled bool
	// Columns selects the summary columns of an object-array list view.
	Columns []string
}

// Classify chooses the control kind for a resolved definition. It returns
// the effective definition alongside the kind: a oneOf of enumerations is
// flattened into a plain enum before dispatch, so callers should build
// controls from the returned definition, not the input.
//
// Dispatch order, first match wins: flattened oneOf, arrays (object rows,
// fixed options, free-form list), nested objects, enums, nullable booleans,
// booleans, integers, autocomplete, textarea, code, plain text.
func Classify(field string, def *schema.Definition, hints Hints, defs schema.Definitions) (Kind, *schema.Definition, error) {
	if def == nil {
		return "", nil, &schema.UnsupportedSchemaError{Field: field, Reason: "definition is nil"}
	}
	def = schema.FlattenOneOf(def)

	switch {
	case def.Type() == "array":
		items, err := schema.ResolveItems(field, def, defs)
		if err != nil {
			return "", nil, err
		}
		if items.Type() == "object" {
			return KindObjectArray, def, nil
		}
		if len(hints.Options) > 0 {
			return KindMultiSelect, def, nil
		}
		return KindMultiInput, def, nil
	case def.Type() == "object":
		return KindObject, def, nil
	case def.HasEnum():
		if hints.Radio {
			return KindRadio, def, nil
		}
		return KindSelect, def, nil
	case def.Type() == "boolean" && def.AllowsNull():
		return KindTriState, def, nil
	case def.Type() == "boolean":
		return KindCheckbox, def, nil
	case def.Type() == "integer":
		return KindInteger, def, nil
	case len(hints.Autocomplete) > 0 || len(def.Autocomplete) > 0:
		return KindAutocomplete, def, nil
	case hints.Multiline:
		return KindTextarea, def, nil
	case hints.Code:
		return KindCode, def, nil
	default:
		return KindText, def, nil
	}
}
