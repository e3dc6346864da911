// Package session wires one editing screen together: the parsed schema
// document, its eagerly compiled validation schema, the live state tree, the
// control engine, nested collection editors, the unsaved-changes guard, and
// the submit sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-adminform/pkg/collection"
	"github.com/goliatone/go-adminform/pkg/form"
	"github.com/goliatone/go-adminform/pkg/formstate"
	"github.com/goliatone/go-adminform/pkg/guard"
	"github.com/goliatone/go-adminform/pkg/lookup"
	"github.com/goliatone/go-adminform/pkg/schema"
	"github.com/goliatone/go-adminform/pkg/submit"
	"github.com/goliatone/go-adminform/pkg/validate"
)

// Session is one top-level editing screen over a schema document. The
// validation schema is compiled once, before the first control is built; a
// schema the compiler rejects never opens.
type Session struct {
	doc    *schema.Document
	rule   validate.Rule
	tree   *formstate.Tree
	engine *form.Engine
	guard  *guard.Guard
	logger *zap.Logger

	sink     submit.Sink
	endpoint string
	method   submit.Method

	editors map[string]*collection.Editor
	lookups map[string]*fieldLookup
	banner  string
}

// fieldLookup binds one field's option list to the value of another field.
type fieldLookup struct {
	dependsOn string
	loader    *lookup.Loader
}

// Option customizes a Session.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	hints    map[string]form.Hints
	sink     submit.Sink
	endpoint string
	method   submit.Method
	lookups  []lookupBinding
}

type lookupBinding struct {
	field     string
	dependsOn string
	fetch     lookup.Fetcher
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHints supplies per-field presentation hints, keyed by dotted path.
func WithHints(hints map[string]form.Hints) Option {
	return func(c *config) {
		c.hints = hints
	}
}

// WithSink routes submissions to a sink at an endpoint. The method selects
// create (POST) or update (PUT).
func WithSink(sink submit.Sink, endpoint string, method submit.Method) Option {
	return func(c *config) {
		c.sink = sink
		c.endpoint = endpoint
		c.method = method
	}
}

// WithLookup binds a field's suggestion list to a fetcher keyed by another
// field's value. The list refreshes whenever the dependency field changes;
// superseded fetches are discarded.
func WithLookup(field, dependsOn string, fetch lookup.Fetcher) Option {
	return func(c *config) {
		c.lookups = append(c.lookups, lookupBinding{
			field:     field,
			dependsOn: dependsOn,
			fetch:     fetch,
		})
	}
}

// New opens a session: the schema compiles eagerly, the tree seeds from the
// document under edit, and the guard starts tracking dirtiness. A
// compilation failure is fatal to the whole screen.
func New(doc *schema.Document, initial map[string]any, opts ...Option) (*Session, error) {
	cfg := &config{
		logger: zap.NewNop(),
		method: submit.MethodCreate,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	rule, err := validate.Compile(doc.Root, doc.Definitions)
	if err != nil {
		return nil, fmt.Errorf("session: compile schema: %w", err)
	}

	s := &Session{
		doc:      doc,
		rule:     rule,
		logger:   cfg.logger,
		sink:     cfg.sink,
		endpoint: cfg.endpoint,
		method:   cfg.method,
		editors:  make(map[string]*collection.Editor),
	}
	s.tree = formstate.New(initial, shapeGuard(doc.Root))
	s.engine = form.NewEngine(doc.Definitions, s.tree,
		form.WithLogger(cfg.logger),
		form.WithHints(cfg.hints),
		form.WithRevalidator(s.revalidate))
	s.guard = guard.New(s.tree.Dirty, s.dialogsDirty)

	s.lookups = make(map[string]*fieldLookup, len(cfg.lookups))
	for _, binding := range cfg.lookups {
		s.lookups[binding.field] = &fieldLookup{
			dependsOn: binding.dependsOn,
			loader:    lookup.NewLoader(binding.fetch, lookup.WithLogger(cfg.logger)),
		}
		s.refreshLookup(binding.field)
	}
	return s, nil
}

// Definitions exposes the schema's definition table, for callers that build
// nested form instances of their own (row dialogs, sub-forms).
func (s *Session) Definitions() schema.Definitions {
	return s.doc.Definitions
}

// Engine exposes the control engine, so callers can register sub-forms.
func (s *Session) Engine() *form.Engine {
	return s.engine
}

// Tree exposes the live state tree.
func (s *Session) Tree() *formstate.Tree {
	return s.tree
}

// Guard exposes the unsaved-changes gate.
func (s *Session) Guard() *guard.Guard {
	return s.guard
}

// Controls builds the screen's control list. Fields with a registered
// lookup render as autocomplete with the loader's current options.
func (s *Session) Controls() ([]*form.Control, error) {
	controls, err := s.engine.Controls(s.doc.Root, "")
	if err != nil {
		return nil, err
	}
	s.applyLookups(controls)
	return controls, nil
}

func (s *Session) applyLookups(controls []*form.Control) {
	for _, ctl := range controls {
		if fl, ok := s.lookups[ctl.Path]; ok {
			if ctl.Kind == form.KindText || ctl.Kind == form.KindAutocomplete {
				options, err := fl.loader.Options()
				if err != nil {
					s.logger.Warn("session: lookup fetch failed",
						zap.String("field", ctl.Path), zap.Error(err))
				}
				ctl.Kind = form.KindAutocomplete
				ctl.Autocomplete = options
			}
		}
		s.applyLookups(ctl.Children)
	}
}

// Apply runs a control's update and re-arms the guard. Writing to a field
// that another field's lookup depends on triggers a refresh of that lookup.
func (s *Session) Apply(ctl *form.Control, raw any) error {
	if err := s.engine.Apply(ctl, raw); err != nil {
		return err
	}
	s.guard.Rearm()
	for field, fl := range s.lookups {
		if fl.dependsOn == ctl.Path {
			s.refreshLookup(field)
		}
	}
	return nil
}

// RefreshLookup re-fetches a field's contextual options from its current
// dependency value. The channel closes once the fetch has been applied or
// discarded.
func (s *Session) RefreshLookup(field string) (<-chan struct{}, error) {
	if _, ok := s.lookups[field]; !ok {
		return nil, fmt.Errorf("session: no lookup registered for %q", field)
	}
	return s.refreshLookup(field), nil
}

func (s *Session) refreshLookup(field string) <-chan struct{} {
	fl := s.lookups[field]
	key := ""
	if value, ok := s.tree.Get(fl.dependsOn); ok && value != nil {
		key = fmt.Sprint(value)
	}
	return fl.loader.Refresh(context.Background(), key)
}

// Close dismisses the screen's background lookups; resolutions arriving
// afterwards are discarded.
func (s *Session) Close() {
	for _, fl := range s.lookups {
		fl.loader.Close()
	}
}

// Editor returns the collection editor for an array-of-object control,
// creating it on first use with a rule compiled from the row definition.
// The editor's dialog dirtiness feeds the session's guard.
func (s *Session) Editor(ctl *form.Control) (*collection.Editor, error) {
	if ctl.Kind != form.KindObjectArray || ctl.Items == nil {
		return nil, fmt.Errorf("session: control %q is not an object array", ctl.Path)
	}
	if editor, ok := s.editors[ctl.Path]; ok {
		return editor, nil
	}
	rowRule, err := validate.Compile(ctl.Items, s.doc.Definitions)
	if err != nil {
		return nil, fmt.Errorf("session: compile row schema for %q: %w", ctl.Path, err)
	}
	editor := collection.NewEditor(s.tree, ctl.Path,
		collection.WithRowRule(rowRule),
		collection.WithColumns(ctl.Columns...),
		collection.WithLogger(s.logger))
	s.editors[ctl.Path] = editor
	return editor, nil
}

// Banner returns the current form-level error message, if any.
func (s *Session) Banner() string {
	return s.banner
}

// CanSubmit reports whether submission is currently allowed. Field errors
// block submission but never block continued editing.
func (s *Session) CanSubmit() bool {
	return !s.tree.HasErrors()
}

// Document returns the cleaned document: editing, scaffolding, and row
// identifiers never appear in it.
func (s *Session) Document() map[string]any {
	return s.tree.Document()
}

// Validate runs the full compiled schema against the current document and
// replaces every field error with the outcome.
func (s *Session) Validate() []validate.Issue {
	issues := s.rule.Validate("", s.Document())
	for path := range s.tree.Errors() {
		s.tree.SetError(path, "")
	}
	for _, issue := range issues {
		s.tree.SetError(issue.Path, issue.Message)
	}
	return issues
}

// Submit validates, releases the guard, and dispatches the document. A
// backend rejection re-arms the guard and lands either on the banner (flat
// message) or on the matching fields (structured payload); it is never
// retried automatically.
func (s *Session) Submit(ctx context.Context) error {
	if issues := s.Validate(); len(issues) > 0 {
		return fmt.Errorf("session: %d validation issues", len(issues))
	}
	if s.sink == nil {
		return errors.New("session: no submit sink configured")
	}

	s.banner = ""
	s.guard.Release()

	err := s.sink.Submit(ctx, s.endpoint, s.method, s.Document())
	if err == nil {
		s.tree.ClearDirty()
		return nil
	}

	s.guard.Rearm()
	var rejection *submit.Error
	if errors.As(err, &rejection) {
		if rejection.Message != "" {
			s.banner = rejection.Message
			return err
		}
		for path, code := range rejection.Fields {
			s.tree.SetError(path, code)
		}
		return err
	}
	s.banner = err.Error()
	return err
}

// Cancel abandons the screen: the guard is released before any navigation
// dispatch, even though dirty fields remain in memory.
func (s *Session) Cancel() {
	s.guard.Release()
}

func (s *Session) dialogsDirty() bool {
	for _, editor := range s.editors {
		if editor.Dirty() {
			return true
		}
	}
	return false
}

// revalidate re-runs validation for one field after a write, replacing the
// errors under that field's top-level segment only.
func (s *Session) revalidate(path string) {
	segment := path
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		segment = path[:idx]
	}
	s.tree.ClearErrorsUnder(segment)
	for _, issue := range s.rule.Validate("", s.Document()) {
		if issue.Path == segment || strings.HasPrefix(issue.Path, segment+".") {
			s.tree.SetError(issue.Path, issue.Message)
		}
	}
}

// shapeGuard rejects writes outside the schema's declared top-level
// properties.
func shapeGuard(root *schema.Definition) formstate.ShapeGuard {
	return func(path string) error {
		segment := path
		if idx := strings.IndexByte(path, '.'); idx >= 0 {
			segment = path[:idx]
		}
		if _, ok := root.Properties[segment]; !ok {
			return fmt.Errorf("session: path %q is outside the schema", path)
		}
		return nil
	}
}
