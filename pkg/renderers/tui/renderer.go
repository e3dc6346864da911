// Package tui renders an editing session as terminal prompts. It walks the
// session's controls with a PromptDriver, so interaction flows stay
// scriptable in tests.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-adminform/pkg/collection"
	"github.com/goliatone/go-adminform/pkg/form"
	"github.com/goliatone/go-adminform/pkg/session"
	"github.com/goliatone/go-adminform/pkg/submit"
)

const (
	actionSubmit = "Submit"
	actionCancel = "Cancel"

	rowActionCreate  = "Create"
	rowActionEdit    = "Edit"
	rowActionDelete  = "Delete"
	rowActionReorder = "Reorder"
	rowActionInspect = "Inspect"
	rowActionDone    = "Done"
)

// Renderer drives one session through terminal prompts.
type Renderer struct {
	driver PromptDriver
	logger *zap.Logger
}

// Option configures the renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer builds a renderer; without options it prompts interactively.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		driver: NewSurveyDriver(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run edits the session until the user submits or cancels. It returns the
// submitted document, or ErrCancelled when the user backs out.
func (r *Renderer) Run(ctx context.Context, s *session.Session) (map[string]any, error) {
	for {
		controls, err := s.Controls()
		if err != nil {
			return nil, err
		}
		visible := visibleControls(controls)

		choice, err := r.driver.Select(ctx, SelectConfig{
			Message: "Edit field",
			Options: menuOptions(s, visible),
		})
		if err != nil {
			return nil, err
		}

		switch {
		case choice < len(visible):
			if err := r.editControl(ctx, s, visible[choice]); err != nil {
				if errors.Is(err, ErrAborted) {
					continue
				}
				return nil, err
			}
		case choice == len(visible): // submit
			document, err := r.submit(ctx, s)
			if err == nil {
				return document, nil
			}
			if !errors.Is(err, errRejected) {
				return nil, err
			}
		default: // cancel
			if r.confirmDiscard(ctx, s) {
				s.Cancel()
				return nil, ErrCancelled
			}
		}
	}
}

// errRejected marks a submission the backend or the validator turned down;
// the edit loop continues so the user can correct and resubmit.
var errRejected = errors.New("tui: submission rejected")

func (r *Renderer) submit(ctx context.Context, s *session.Session) (map[string]any, error) {
	err := s.Submit(ctx)
	if err == nil {
		return s.Document(), nil
	}

	var rejection *submit.Error
	switch {
	case errors.As(err, &rejection), s.Banner() != "", !s.CanSubmit():
		r.reportErrors(ctx, s)
		return nil, errRejected
	default:
		return nil, err
	}
}

func (r *Renderer) reportErrors(ctx context.Context, s *session.Session) {
	if banner := s.Banner(); banner != "" {
		_ = r.driver.Info(ctx, "Error: "+banner)
	}
	for path, message := range s.Tree().Errors() {
		_ = r.driver.Info(ctx, fmt.Sprintf("  %s: %s", path, message))
	}
}

func (r *Renderer) confirmDiscard(ctx context.Context, s *session.Session) bool {
	return s.Guard().Confirm(func(message string) bool {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message})
		if err != nil {
			return false
		}
		return ok
	})
}

func (r *Renderer) editControl(ctx context.Context, s *session.Session, ctl *form.Control) error {
	switch ctl.Kind {
	case form.KindText, form.KindAutocomplete, form.KindInteger:
		return r.editInput(ctx, s, ctl)
	case form.KindTextarea, form.KindCode:
		return r.editTextArea(ctx, s, ctl)
	case form.KindCheckbox:
		return r.editCheckbox(ctx, s, ctl)
	case form.KindTriState, form.KindSelect, form.KindRadio:
		return r.editChoice(ctx, s, ctl)
	case form.KindMultiSelect:
		return r.editMultiSelect(ctx, s, ctl)
	case form.KindMultiInput:
		return r.editMultiInput(ctx, s, ctl)
	case form.KindObject:
		return r.editObject(ctx, s, ctl)
	case form.KindObjectArray:
		return r.editCollection(ctx, s, ctl)
	case form.KindError:
		return r.driver.Info(ctx, fmt.Sprintf("%s cannot be edited: %s", ctl.Label, ctl.Description))
	default:
		r.logger.Warn("tui: no prompt for control kind",
			zap.String("path", ctl.Path),
			zap.String("kind", string(ctl.Kind)))
		return nil
	}
}

func (r *Renderer) editInput(ctx context.Context, s *session.Session, ctl *form.Control) error {
	current, _ := s.Tree().Get(ctl.Path)
	out, err := r.driver.Input(ctx, InputConfig{
		Message: ctl.Label,
		Default: form.FormatValue(current),
		Help:    ctl.Description,
		Suggest: ctl.Autocomplete,
	})
	if err != nil {
		return err
	}
	return s.Apply(ctl, out)
}

func (r *Renderer) editTextArea(ctx context.Context, s *session.Session, ctl *form.Control) error {
	current, _ := s.Tree().Get(ctl.Path)
	seed := form.FormatValue(current)
	if seed == "" && ctl.Default != nil {
		seed = form.FormatValue(ctl.Default)
	}
	out, err := r.driver.TextArea(ctx, TextAreaConfig{
		Message: ctl.Label,
		Default: seed,
		Help:    ctl.Description,
	})
	if err != nil {
		return err
	}
	return s.Apply(ctl, out)
}

func (r *Renderer) editCheckbox(ctx context.Context, s *session.Session, ctl *form.Control) error {
	current, _ := s.Tree().Get(ctl.Path)
	checked, _ := current.(bool)
	out, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: ctl.Label,
		Default: checked,
		Help:    ctl.Description,
	})
	if err != nil {
		return err
	}
	return s.Apply(ctl, out)
}

// editChoice covers every control backed by a fixed option list with one
// selection: enums as dropdown or radio, and the nullable boolean tri-state.
func (r *Renderer) editChoice(ctx context.Context, s *session.Session, ctl *form.Control) error {
	current, _ := s.Tree().Get(ctl.Path)
	choice, err := r.driver.Select(ctx, SelectConfig{
		Message:      ctl.Label,
		Options:      optionLabels(ctl.Options),
		DefaultIndex: optionIndex(ctl.Options, current),
		Help:         ctl.Description,
	})
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(ctl.Options) {
		return fmt.Errorf("tui: choice %d out of range for %q", choice, ctl.Path)
	}
	return s.Apply(ctl, ctl.Options[choice].Value)
}

func (r *Renderer) editMultiSelect(ctx context.Context, s *session.Session, ctl *form.Control) error {
	current, _ := s.Tree().Get(ctl.Path)
	chosen, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  ctl.Label,
		Options:  optionLabels(ctl.Options),
		Defaults: selectedIndices(ctl.Options, current),
		Help:     ctl.Description,
	})
	if err != nil {
		return err
	}
	values := make([]any, 0, len(chosen))
	for _, idx := range chosen {
		if idx >= 0 && idx < len(ctl.Options) {
			values = append(values, ctl.Options[idx].Value)
		}
	}
	return s.Apply(ctl, values)
}

// editMultiInput manages a free-form value list: entries can be added,
// removed, and moved by adjacent swap. Every change writes the whole array.
func (r *Renderer) editMultiInput(ctx context.Context, s *session.Session, ctl *form.Control) error {
	for {
		entries := currentList(s, ctl.Path)
		_ = r.driver.Info(ctx, formatEntries(ctl.Label, entries))

		action, err := r.driver.Select(ctx, SelectConfig{
			Message: ctl.Label,
			Options: []string{"Add", "Remove", "Move up", "Move down", rowActionDone},
		})
		if err != nil {
			return err
		}
		switch action {
		case 0:
			entry, err := r.driver.Input(ctx, InputConfig{
				Message: ctl.Label + " entry",
				Suggest: ctl.Autocomplete,
			})
			if err != nil {
				return err
			}
			if err := s.Apply(ctl, append(entries, any(entry))); err != nil {
				return err
			}
		case 1, 2, 3:
			idx, err := r.pickEntry(ctx, entries)
			if err != nil {
				return err
			}
			if idx < 0 {
				continue
			}
			next := reshuffle(entries, idx, action)
			if next == nil {
				continue
			}
			if err := s.Apply(ctl, next); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *Renderer) pickEntry(ctx context.Context, entries []any) (int, error) {
	if len(entries) == 0 {
		return -1, nil
	}
	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		labels = append(labels, form.FormatValue(entry))
	}
	return r.driver.Select(ctx, SelectConfig{Message: "Which entry", Options: labels})
}

// reshuffle applies a list action: 1 removes, 2 swaps up, 3 swaps down. It
// returns nil when the action is a no-op at the boundary.
func reshuffle(entries []any, idx, action int) []any {
	next := append([]any(nil), entries...)
	switch action {
	case 1:
		return append(next[:idx], next[idx+1:]...)
	case 2:
		if idx == 0 {
			return nil
		}
		next[idx-1], next[idx] = next[idx], next[idx-1]
		return next
	case 3:
		if idx == len(next)-1 {
			return nil
		}
		next[idx+1], next[idx] = next[idx], next[idx+1]
		return next
	}
	return nil
}

func (r *Renderer) editObject(ctx context.Context, s *session.Session, ctl *form.Control) error {
	for {
		children := visibleControls(ctl.Children)
		labels := make([]string, 0, len(children)+1)
		for _, child := range children {
			labels = append(labels, decorate(s, child))
		}
		labels = append(labels, rowActionDone)

		choice, err := r.driver.Select(ctx, SelectConfig{
			Message: ctl.Label,
			Options: labels,
		})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(children) {
			return nil
		}
		if err := r.editControl(ctx, s, children[choice]); err != nil {
			return err
		}
	}
}

func (r *Renderer) editCollection(ctx context.Context, s *session.Session, ctl *form.Control) error {
	editor, err := s.Editor(ctl)
	if err != nil {
		return err
	}
	for {
		_ = r.driver.Info(ctx, formatRows(ctl, editor))

		action, err := r.driver.Select(ctx, SelectConfig{
			Message: ctl.Label,
			Options: []string{rowActionCreate, rowActionEdit, rowActionDelete, rowActionReorder, rowActionInspect, rowActionDone},
		})
		if err != nil {
			return err
		}
		switch action {
		case 0:
			err = r.runDialog(ctx, s, ctl, editor.BeginCreate())
		case 1:
			err = r.editRow(ctx, s, ctl, editor)
		case 2:
			err = r.deleteRows(ctx, editor)
		case 3:
			err = r.reorderRows(ctx, editor)
		case 4:
			err = r.inspectRow(ctx, editor)
		default:
			return nil
		}
		if err != nil {
			if errors.Is(err, ErrAborted) {
				continue
			}
			return err
		}
	}
}

func (r *Renderer) editRow(ctx context.Context, s *session.Session, ctl *form.Control, editor *collection.Editor) error {
	id, err := r.pickRowByEditor(ctx, editor)
	if err != nil || id == "" {
		return err
	}
	dialog, err := editor.BeginEdit(id)
	if err != nil {
		return err
	}
	return r.runDialog(ctx, s, ctl, dialog)
}

// runDialog edits one row against the dialog's own tree. Nothing reaches
// the parent tree until the dialog confirms cleanly.
func (r *Renderer) runDialog(ctx context.Context, s *session.Session, ctl *form.Control, dialog *collection.Dialog) error {
	engine := form.NewEngine(s.Definitions(), dialog.Tree(), form.WithLogger(r.logger))
	for {
		controls, err := engine.Controls(ctl.Items, "")
		if err != nil {
			dialog.Cancel()
			return err
		}
		children := visibleControls(controls)
		labels := make([]string, 0, len(children)+2)
		for _, child := range children {
			labels = append(labels, dialogLabel(dialog, child))
		}
		labels = append(labels, "Confirm", actionCancel)

		choice, err := r.driver.Select(ctx, SelectConfig{
			Message: ctl.Label + " row",
			Options: labels,
		})
		if err != nil {
			dialog.Cancel()
			return err
		}
		switch {
		case choice >= 0 && choice < len(children):
			if err := r.editDialogField(ctx, engine, children[choice]); err != nil {
				dialog.Cancel()
				return err
			}
		case choice == len(children): // confirm
			issues, err := dialog.Confirm()
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				return nil
			}
			for _, issue := range issues {
				_ = r.driver.Info(ctx, fmt.Sprintf("  %s: %s", issue.Path, issue.Message))
			}
		default:
			dialog.Cancel()
			return nil
		}
	}
}

// editDialogField handles the scalar kinds a row form carries. Rows nesting
// further arrays or objects are edited through their own sessions.
func (r *Renderer) editDialogField(ctx context.Context, engine *form.Engine, ctl *form.Control) error {
	current, _ := engine.Tree().Get(ctl.Path)
	switch ctl.Kind {
	case form.KindCheckbox:
		checked, _ := current.(bool)
		out, err := r.driver.Confirm(ctx, ConfirmConfig{Message: ctl.Label, Default: checked})
		if err != nil {
			return err
		}
		return engine.Apply(ctl, out)
	case form.KindSelect, form.KindRadio, form.KindTriState:
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      ctl.Label,
			Options:      optionLabels(ctl.Options),
			DefaultIndex: optionIndex(ctl.Options, current),
		})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(ctl.Options) {
			return fmt.Errorf("tui: choice %d out of range for %q", choice, ctl.Path)
		}
		return engine.Apply(ctl, ctl.Options[choice].Value)
	default:
		out, err := r.driver.Input(ctx, InputConfig{
			Message: ctl.Label,
			Default: form.FormatValue(current),
			Suggest: ctl.Autocomplete,
		})
		if err != nil {
			return err
		}
		return engine.Apply(ctl, out)
	}
}

func (r *Renderer) deleteRows(ctx context.Context, editor *collection.Editor) error {
	rows := editor.Rows()
	if len(rows) == 0 {
		return nil
	}
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, summarizeRow(row))
	}
	chosen, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message: "Select rows to delete",
		Options: labels,
	})
	if err != nil {
		return err
	}
	if len(chosen) == 0 {
		return nil
	}
	for _, idx := range chosen {
		if err := editor.Select(rows[idx].ID); err != nil {
			return err
		}
	}
	ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: collection.ConfirmPrompt(len(chosen))})
	if err != nil {
		return err
	}
	if !ok {
		for _, idx := range chosen {
			editor.Deselect(rows[idx].ID)
		}
		return nil
	}
	return editor.DeleteSelected()
}

func (r *Renderer) reorderRows(ctx context.Context, editor *collection.Editor) error {
	editor.BeginReorder()
	defer editor.EndReorder()
	for {
		rows := editor.Rows()
		labels := make([]string, 0, len(rows)+1)
		for _, row := range rows {
			labels = append(labels, summarizeRow(row))
		}
		labels = append(labels, rowActionDone)

		from, err := r.driver.Select(ctx, SelectConfig{Message: "Move which row", Options: labels})
		if err != nil {
			return err
		}
		if from < 0 || from >= len(rows) {
			return nil
		}
		to, err := r.driver.Select(ctx, SelectConfig{Message: "To which position", Options: labels[:len(labels)-1]})
		if err != nil {
			return err
		}
		if to < 0 || to >= len(rows) || to == from {
			continue
		}
		if err := editor.Move(from, to); err != nil {
			return err
		}
	}
}

func (r *Renderer) inspectRow(ctx context.Context, editor *collection.Editor) error {
	id, err := r.pickRowByEditor(ctx, editor)
	if err != nil || id == "" {
		return err
	}
	dump, err := editor.Inspect(id)
	if err != nil {
		return err
	}
	return r.driver.Info(ctx, dump)
}

func (r *Renderer) pickRowByEditor(ctx context.Context, editor *collection.Editor) (string, error) {
	rows := editor.Rows()
	if len(rows) == 0 {
		return "", nil
	}
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, summarizeRow(row))
	}
	choice, err := r.driver.Select(ctx, SelectConfig{Message: "Which row", Options: labels})
	if err != nil {
		return "", err
	}
	if choice < 0 || choice >= len(rows) {
		return "", nil
	}
	return rows[choice].ID, nil
}

func visibleControls(controls []*form.Control) []*form.Control {
	out := make([]*form.Control, 0, len(controls))
	for _, ctl := range controls {
		if ctl.Hidden || ctl.Disabled {
			continue
		}
		out = append(out, ctl)
	}
	return out
}

func menuOptions(s *session.Session, controls []*form.Control) []string {
	out := make([]string, 0, len(controls)+2)
	for _, ctl := range controls {
		out = append(out, decorate(s, ctl))
	}
	return append(out, actionSubmit, actionCancel)
}

// decorate appends the field's current error to its menu label.
func decorate(s *session.Session, ctl *form.Control) string {
	if message, ok := s.Tree().Error(ctl.Path); ok {
		return fmt.Sprintf("%s  [%s]", ctl.Label, message)
	}
	return ctl.Label
}

func dialogLabel(dialog *collection.Dialog, ctl *form.Control) string {
	if message, ok := dialog.Tree().Error(ctl.Path); ok {
		return fmt.Sprintf("%s  [%s]", ctl.Label, message)
	}
	return ctl.Label
}

func optionLabels(options []form.Option) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		out = append(out, option.Label)
	}
	return out
}

func optionIndex(options []form.Option, value any) int {
	for i, option := range options {
		if form.SameValue(option.Value, value) {
			return i
		}
	}
	return 0
}

func selectedIndices(options []form.Option, value any) []int {
	list, _ := value.([]any)
	var out []int
	for i, option := range options {
		for _, chosen := range list {
			if form.SameValue(option.Value, chosen) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func currentList(s *session.Session, path string) []any {
	value, _ := s.Tree().Get(path)
	list, _ := value.([]any)
	return list
}

func formatEntries(label string, entries []any) string {
	if len(entries) == 0 {
		return label + ": (empty)"
	}
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, form.FormatValue(entry))
	}
	return label + ": " + strings.Join(parts, ", ")
}

func formatRows(ctl *form.Control, editor *collection.Editor) string {
	rows := editor.Rows()
	if len(rows) == 0 {
		return ctl.Label + ": (no rows)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d rows)", ctl.Label, len(rows))
	for i, row := range rows {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, summarizeRow(row))
	}
	return b.String()
}

func summarizeRow(row collection.Row) string {
	if name, ok := row.Data["name"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("(row %.8s)", row.ID)
}
