// Package collection manages an ordered array of structured rows as a
// distinct editing sub-screen: a list view with selection and reorder, and a
// modal dialog editing one row at a time against its own state tree.
package collection

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-adminform/pkg/formstate"
	"github.com/goliatone/go-adminform/pkg/validate"
)

// Mode is the editor's current view.
type Mode string

const (
	// ModeList shows rows as a table with selection and actions.
	ModeList Mode = "list"
	// ModeDialog edits one row in a nested form instance.
	ModeDialog Mode = "dialog"
	// ModeReorder swaps the table for a reorderable list. Selection and
	// paging are unavailable while active.
	ModeReorder Mode = "reorder"
)

// Row pairs a minted local identifier with the row's domain data. The
// identifier exists only inside the editor; it never enters the state tree
// and never reaches a submit sink.
type Row struct {
	ID   string
	Data map[string]any
}

// Editor drives one array-of-object field. Rows live in the owning state
// tree; the editor tracks identifiers, selection, and the dialog alongside.
type Editor struct {
	tree    *formstate.Tree
	path    string
	ids     []string
	columns []string
	rule    validate.Rule
	logger  *zap.Logger

	mode     Mode
	selected map[string]struct{}
	dialog   *Dialog
}

// Option customizes an Editor.
type Option func(*Editor)

// WithColumns selects the summary columns of the list view.
func WithColumns(columns ...string) Option {
	return func(e *Editor) {
		e.columns = columns
	}
}

// WithRowRule sets the compiled validation rule applied to a dialog's row
// before it may be confirmed.
func WithRowRule(rule validate.Rule) Option {
	return func(e *Editor) {
		e.rule = rule
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEditor builds an editor over the array at path. Every existing row is
// assigned a fresh identifier.
func NewEditor(tree *formstate.Tree, path string, opts ...Option) *Editor {
	e := &Editor{
		tree:     tree,
		path:     path,
		logger:   zap.NewNop(),
		mode:     ModeList,
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	for range e.rows() {
		e.ids = append(e.ids, uuid.NewString())
	}
	return e
}

// Mode reports the current view.
func (e *Editor) Mode() Mode {
	return e.mode
}

// Columns returns the configured summary columns.
func (e *Editor) Columns() []string {
	return e.columns
}

// Rows returns the current rows with their identifiers. The data maps alias
// the state tree and must be treated as read-only.
func (e *Editor) Rows() []Row {
	data := e.rows()
	e.syncIDs(len(data))
	out := make([]Row, 0, len(data))
	for i, row := range data {
		out = append(out, Row{ID: e.ids[i], Data: row})
	}
	return out
}

// Len reports the number of rows.
func (e *Editor) Len() int {
	e.syncIDs(len(e.rows()))
	return len(e.ids)
}

// syncIDs reconciles identifiers with the tree after a write to the array
// path made outside the editor. New rows get fresh identifiers; removed
// rows drop theirs, along with any selection they held.
func (e *Editor) syncIDs(n int) {
	for len(e.ids) < n {
		e.ids = append(e.ids, uuid.NewString())
	}
	for len(e.ids) > n {
		last := e.ids[len(e.ids)-1]
		delete(e.selected, last)
		e.ids = e.ids[:len(e.ids)-1]
	}
}

// Select adds a row to the bulk selection. Selection is unavailable during
// reorder.
func (e *Editor) Select(id string) error {
	if e.mode == ModeReorder {
		return fmt.Errorf("collection: selection unavailable while reordering")
	}
	if _, ok := e.indexOf(id); !ok {
		return fmt.Errorf("collection: unknown row %q", id)
	}
	e.selected[id] = struct{}{}
	return nil
}

// Deselect removes a row from the bulk selection.
func (e *Editor) Deselect(id string) {
	delete(e.selected, id)
}

// Selected returns the selected row identifiers in row order.
func (e *Editor) Selected() []string {
	out := make([]string, 0, len(e.selected))
	for _, id := range e.ids {
		if _, ok := e.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// BeginReorder enters reorder mode; selection is cleared.
func (e *Editor) BeginReorder() {
	e.mode = ModeReorder
	e.selected = make(map[string]struct{})
}

// EndReorder returns to the list view.
func (e *Editor) EndReorder() {
	if e.mode == ModeReorder {
		e.mode = ModeList
	}
}

// Move commits a reorder immediately: the state tree's array order matches
// the visual order on drop, not on a later submit.
func (e *Editor) Move(from, to int) error {
	if err := e.tree.Move(e.path, from, to); err != nil {
		return err
	}
	id := e.ids[from]
	trimmed := append([]string{}, e.ids[:from]...)
	trimmed = append(trimmed, e.ids[from+1:]...)
	next := append([]string{}, trimmed[:to]...)
	next = append(next, id)
	next = append(next, trimmed[to:]...)
	e.ids = next
	return nil
}

// ConfirmPrompt is the wording of the delete confirmation, which depends on
// whether one or multiple rows are targeted.
func ConfirmPrompt(count int) string {
	if count == 1 {
		return "Are you sure you want to delete an item?"
	}
	return "Are you sure you want to delete items?"
}

// DeleteSelected removes the selected rows from the state tree and the
// visible list. Rows are removed one at a time in row order; if a removal
// fails, rows already removed stay removed and the rest stay intact.
func (e *Editor) DeleteSelected() error {
	targets := e.Selected()
	for _, id := range targets {
		idx, ok := e.indexOf(id)
		if !ok {
			continue
		}
		if err := e.tree.RemoveIndex(e.path, idx); err != nil {
			return fmt.Errorf("collection: delete row %q: %w", id, err)
		}
		e.ids = append(e.ids[:idx], e.ids[idx+1:]...)
		delete(e.selected, id)
	}
	return nil
}

// Dirty reports whether an open dialog carries unconfirmed edits. It feeds
// the parent screen's aggregate dirtiness.
func (e *Editor) Dirty() bool {
	return e.dialog != nil && e.dialog.Dirty()
}

func (e *Editor) rows() []map[string]any {
	value, ok := e.tree.Get(e.path)
	if !ok {
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, element := range list {
		row, _ := element.(map[string]any)
		out = append(out, row)
	}
	return out
}

func (e *Editor) indexOf(id string) (int, bool) {
	for i, candidate := range e.ids {
		if candidate == id {
			return i, true
		}
	}
	return 0, false
}
