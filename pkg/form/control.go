package form

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-adminform/pkg/schema"
)

// NotSelectedLabel labels the injected leading option that maps to null.
const NotSelectedLabel = "Not selected"

// minTextareaRows is the floor for textarea sizing.
const minTextareaRows = 3

var descriptionPolicy = bluemonday.StrictPolicy()

// Option is one selectable choice of an enum, radio, or multi-select
// control. A nil Value represents the explicit "not selected" state.
type Option struct {
	Value       any
	Label       string
	Description string
}

// Control is the renderable description of one field: kind, display
// metadata, and the choices or sizing the kind needs. Controls are built
// once per field from the resolved definition and the caller's hints.
type Control struct {
	Name         string
	Path         string
	Kind         Kind
	Label        string
	Description  string
	Options      []Option
	Autocomplete []string
	Rows         int
	Default      any
	Hidden       bool
	Disabled     bool
	Columns      []string

	// Items carries the resolved row definition of an object-array field.
	Items *schema.Definition
	// Children are the nested controls of an object field's sub-form.
	Children []*Control
}

// buildConfig binds everything a control build needs about one field.
type buildConfig struct {
	Name     string
	Path     string
	Property *schema.Definition
	Hints    Hints
	Value    any
	Defs     schema.Definitions
}

// buildControl assembles the control for a classified field. The kind must
// come from Classify over the same resolved definition.
func buildControl(kind Kind, def *schema.Definition, cfg buildConfig) (*Control, error) {
	ctl := &Control{
		Name:         cfg.Name,
		Path:         cfg.Path,
		Kind:         kind,
		Label:        labelFor(cfg.Name, cfg.Property, def),
		Description:  sanitizeDescription(cfg.Property, def),
		Hidden:       cfg.Hints.Hidden,
		Disabled:     cfg.Hints.Disabled,
		Columns:      cfg.Hints.Columns,
		Autocomplete: cfg.Hints.Autocomplete,
	}
	if len(ctl.Autocomplete) == 0 {
		ctl.Autocomplete = def.Autocomplete
	}

	switch kind {
	case KindSelect, KindRadio:
		ctl.Options = enumOptions(def)
	case KindMultiSelect:
		ctl.Options = cfg.Hints.Options
	case KindTriState:
		ctl.Options = triStateOptions()
	case KindTextarea:
		ctl.Rows = textareaRows(cfg.Value)
	case KindCode:
		if len(def.Examples) > 0 {
			ctl.Default = def.Examples[0]
		}
	case KindObjectArray:
		items, err := schema.ResolveItems(cfg.Name, def, cfg.Defs)
		if err != nil {
			return nil, err
		}
		ctl.Items = items
	}
	return ctl, nil
}

// enumOptions converts the enum value set into choices, injecting the
// explicit unset option as the first entry. The unset option is distinct
// from any literal empty string the domain enum may carry.
func enumOptions(def *schema.Definition) []Option {
	options := make([]Option, 0, len(def.Enum)+1)
	options = append(options, Option{Value: nil, Label: NotSelectedLabel})
	for _, value := range def.Enum {
		label := value.Title
		if label == "" {
			label = fmt.Sprint(value.Const)
		}
		options = append(options, Option{
			Value:       value.Const,
			Label:       label,
			Description: value.Description,
		})
	}
	return options
}

// triStateOptions is the three-way choice for nullable booleans. A checkbox
// cannot represent "unset" unambiguously, so the control is a radio group.
func triStateOptions() []Option {
	return []Option{
		{Value: nil, Label: "Default"},
		{Value: true, Label: "True"},
		{Value: false, Label: "False"},
	}
}

// textareaRows sizes a textarea to its current content, never below the
// minimum.
func textareaRows(value any) int {
	text, _ := value.(string)
	lines := strings.Count(text, "\n") + 1
	if lines < minTextareaRows {
		return minTextareaRows
	}
	return lines
}

func labelFor(field string, property, def *schema.Definition) string {
	if property != nil && property.Title != "" {
		return property.Title
	}
	if def != nil && def.Title != "" {
		return def.Title
	}
	return field
}

// sanitizeDescription strips any markup from the schema description before
// it reaches a renderer. Schema documents are trusted input in principle,
// but descriptions travel to every render surface.
func sanitizeDescription(property, def *schema.Definition) string {
	text := ""
	if property != nil && property.Description != "" {
		text = property.Description
	} else if def != nil {
		text = def.Description
	}
	if text == "" {
		return ""
	}
	return descriptionPolicy.Sanitize(text)
}
