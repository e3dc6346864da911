package form

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-adminform/pkg/formstate"
	"github.com/goliatone/go-adminform/pkg/schema"
)

// KindError marks a field whose control could not be built. It renders as a
// visible fallback in place of the control; sibling fields are unaffected.
const KindError Kind = "error"

// Revalidator re-runs validation for a single path after a write. Engines
// call it on every applied update.
type Revalidator func(path string)

// SubForm builds the nested controls for an object-typed field. Object
// fields without a registered sub-form fail loudly at build time.
type SubForm func(path string, def *schema.Definition) ([]*Control, error)

// Engine builds controls for the fields of an object definition and applies
// their write-through updates to a state tree.
type Engine struct {
	defs       schema.Definitions
	tree       *formstate.Tree
	logger     *zap.Logger
	hints      map[string]Hints
	subforms   map[string]SubForm
	revalidate Revalidator
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHints supplies per-field presentation hints, keyed by dotted path.
func WithHints(hints map[string]Hints) EngineOption {
	return func(e *Engine) {
		for path, h := range hints {
			e.hints[path] = h
		}
	}
}

// WithSubForm registers the nested builder for an object-typed field.
func WithSubForm(path string, builder SubForm) EngineOption {
	return func(e *Engine) {
		e.subforms[path] = builder
	}
}

// WithRevalidator sets the hook invoked after every applied update.
func WithRevalidator(fn Revalidator) EngineOption {
	return func(e *Engine) {
		e.revalidate = fn
	}
}

// NewEngine builds an engine over a definitions table and a state tree.
func NewEngine(defs schema.Definitions, tree *formstate.Tree, opts ...EngineOption) *Engine {
	e := &Engine{
		defs:     defs,
		tree:     tree,
		logger:   zap.NewNop(),
		hints:    make(map[string]Hints),
		subforms: make(map[string]SubForm),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tree exposes the engine's state tree.
func (e *Engine) Tree() *formstate.Tree {
	return e.tree
}

// Controls builds the control list for an object definition's properties at
// a base path. Property names are walked in sorted order so builds are
// deterministic. A field that fails resolution or classification is replaced
// with an error-marker control and logged; its siblings still build.
func (e *Engine) Controls(root *schema.Definition, basePath string) ([]*Control, error) {
	if root == nil || root.Type() != "object" {
		return nil, &schema.UnsupportedSchemaError{Field: basePath, Reason: "controls require an object definition"}
	}

	names := make([]string, 0, len(root.Properties))
	for name := range root.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	controls := make([]*Control, 0, len(names))
	for _, name := range names {
		path := joinPath(basePath, name)
		ctl, err := e.buildField(name, path, root.Properties[name])
		if err != nil {
			e.logger.Error("form: control build failed",
				zap.String("path", path),
				zap.Error(err))
			controls = append(controls, errorControl(name, path, err))
			continue
		}
		controls = append(controls, ctl)
	}
	return controls, nil
}

func (e *Engine) buildField(name, path string, property *schema.Definition) (*Control, error) {
	resolved, err := schema.Resolve(name, property, e.defs)
	if err != nil {
		return nil, err
	}
	hints := e.hints[path]
	kind, effective, err := Classify(name, resolved, hints, e.defs)
	if err != nil {
		return nil, err
	}

	value, _ := e.tree.Get(path)
	ctl, err := buildControl(kind, effective, buildConfig{
		Name:     name,
		Path:     path,
		Property: property,
		Hints:    hints,
		Value:    value,
		Defs:     e.defs,
	})
	if err != nil {
		return nil, err
	}

	if kind == KindObject {
		builder, ok := e.subforms[path]
		if !ok {
			return nil, fmt.Errorf("form: object field %q has no sub-form", path)
		}
		children, err := builder(path, effective)
		if err != nil {
			return nil, err
		}
		ctl.Children = children
	}
	return ctl, nil
}

// NestedSubForm builds nested object fields with the engine itself, for
// callers that want plain recursive rendering rather than a custom
// sub-component.
func NestedSubForm(e *Engine) SubForm {
	return func(path string, def *schema.Definition) ([]*Control, error) {
		return e.Controls(def, path)
	}
}

// Apply runs a control's write-through contract: the raw input is coerced
// for the control's kind, written at the control's path, and the path is
// revalidated. Whole-of-array controls write and revalidate the array field
// as a unit. Hidden controls still apply; hiding never discards a stored
// value.
func (e *Engine) Apply(ctl *Control, raw any) error {
	value := Coerce(ctl.Kind, raw)
	if err := e.tree.Set(ctl.Path, value); err != nil {
		return err
	}
	if e.revalidate != nil {
		e.revalidate(ctl.Path)
	}
	return nil
}

func errorControl(name, path string, err error) *Control {
	return &Control{
		Name:        name,
		Path:        path,
		Kind:        KindError,
		Label:       name,
		Description: err.Error(),
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
