package collection

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-adminform/pkg/formstate"
	"github.com/goliatone/go-adminform/pkg/validate"
)

// Dialog is the modal editing one row. It owns an independent state tree
// seeded from the row's current values; nothing reaches the parent tree
// until Confirm. Its dirtiness feeds the parent's aggregate dirty flag
// through the editor.
type Dialog struct {
	editor *Editor
	tree   *formstate.Tree
	rowID  string // empty while creating
	open   bool
}

// BeginCreate opens a dialog over an empty row.
func (e *Editor) BeginCreate() *Dialog {
	return e.openDialog("", nil)
}

// BeginEdit opens a dialog seeded with the row's current values.
func (e *Editor) BeginEdit(id string) (*Dialog, error) {
	idx, ok := e.indexOf(id)
	if !ok {
		return nil, fmt.Errorf("collection: unknown row %q", id)
	}
	return e.openDialog(id, e.rows()[idx]), nil
}

func (e *Editor) openDialog(id string, seed map[string]any) *Dialog {
	d := &Dialog{
		editor: e,
		tree:   formstate.New(seed, nil),
		rowID:  id,
		open:   true,
	}
	e.dialog = d
	e.mode = ModeDialog
	return d
}

// Tree exposes the dialog's own state tree for its nested form instance.
func (d *Dialog) Tree() *formstate.Tree {
	return d.tree
}

// Open reports whether the dialog is still accepting edits. Late-arriving
// effects must check this before applying results.
func (d *Dialog) Open() bool {
	return d.open
}

// Dirty reports unconfirmed edits.
func (d *Dialog) Dirty() bool {
	return d.open && d.tree.Dirty()
}

// Confirm validates the edited row and, if clean, merges it into the parent
// tree: changed keys are shallow-merged over the existing row's keys, or the
// row is appended with a fresh identifier when created. Validation issues
// are attached to the dialog's tree and block the merge; the dialog stays
// open for correction.
func (d *Dialog) Confirm() ([]validate.Issue, error) {
	if !d.open {
		return nil, fmt.Errorf("collection: dialog already closed")
	}

	doc := d.tree.Document()
	if d.editor.rule != nil {
		if issues := d.editor.rule.Validate("", doc); len(issues) > 0 {
			for _, issue := range issues {
				d.tree.SetError(issue.Path, issue.Message)
			}
			d.editor.logger.Debug("collection: row confirm blocked",
				zap.String("path", d.editor.path),
				zap.Int("issues", len(issues)))
			return issues, nil
		}
	}

	if d.rowID == "" {
		if err := d.append(doc); err != nil {
			return nil, err
		}
	} else {
		if err := d.merge(doc); err != nil {
			return nil, err
		}
	}
	d.close()
	return nil, nil
}

// Cancel dismisses the dialog without mutating the parent tree.
func (d *Dialog) Cancel() {
	if !d.open {
		return
	}
	d.close()
}

func (d *Dialog) close() {
	d.open = false
	d.editor.dialog = nil
	d.editor.mode = ModeList
}

func (d *Dialog) append(doc map[string]any) error {
	e := d.editor
	current, _ := e.tree.Get(e.path)
	list, _ := current.([]any)
	next := make([]any, 0, len(list)+1)
	next = append(next, list...)
	next = append(next, any(doc))
	if err := e.tree.Set(e.path, next); err != nil {
		return err
	}
	e.ids = append(e.ids, uuid.NewString())
	return nil
}

func (d *Dialog) merge(doc map[string]any) error {
	e := d.editor
	idx, ok := e.indexOf(d.rowID)
	if !ok {
		return fmt.Errorf("collection: row %q no longer exists", d.rowID)
	}
	existing := e.rows()[idx]
	merged := make(map[string]any, len(existing)+len(doc))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range doc {
		merged[k] = v
	}
	return e.tree.Set(fmt.Sprintf("%s.%d", e.path, idx), merged)
}
