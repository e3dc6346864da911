package collection

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-adminform/pkg/formstate"
	"github.com/goliatone/go-adminform/pkg/schema"
	"github.com/goliatone/go-adminform/pkg/validate"
)

func rowRule(t *testing.T) validate.Rule {
	t.Helper()
	doc, err := schema.ParseDocument([]byte(`{
	  "type": "object",
	  "properties": {
	    "name": {"type": "string", "title": "Name"},
	    "not_null": {"type": "boolean"}
	  },
	  "required": ["name"]
	}`))
	if err != nil {
		t.Fatalf("parse row schema: %v", err)
	}
	rule, err := validate.Compile(doc.Root, doc.Definitions)
	if err != nil {
		t.Fatalf("compile row schema: %v", err)
	}
	return rule
}

func newFixture(t *testing.T, rows []any, opts ...Option) (*Editor, *formstate.Tree) {
	t.Helper()
	tree := formstate.New(map[string]any{"fields": rows}, nil)
	return NewEditor(tree, "fields", opts...), tree
}

func row(name string) map[string]any {
	return map[string]any{"name": name}
}

func names(tree *formstate.Tree) []string {
	value, _ := tree.Get("fields")
	list, _ := value.([]any)
	out := make([]string, 0, len(list))
	for _, element := range list {
		m, _ := element.(map[string]any)
		out = append(out, m["name"].(string))
	}
	return out
}

func TestEditor_RowIdentifiers(t *testing.T) {
	editor, _ := newFixture(t, []any{row("id"), row("email"), row("age")})

	seen := make(map[string]struct{})
	for _, r := range editor.Rows() {
		if r.ID == "" {
			t.Fatal("row without identifier")
		}
		if _, dup := seen[r.ID]; dup {
			t.Fatalf("duplicate identifier %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if _, leaked := r.Data["_id_"]; leaked {
			t.Fatal("identifier leaked into row data")
		}
	}
}

func TestEditor_AppendThenRemoveKeepsOthersIntact(t *testing.T) {
	editor, tree := newFixture(t, nil)

	for _, name := range []string{"id", "email", "age"} {
		dialog := editor.BeginCreate()
		if err := dialog.Tree().Set("name", name); err != nil {
			t.Fatalf("set: %v", err)
		}
		if issues, err := dialog.Confirm(); err != nil || len(issues) != 0 {
			t.Fatalf("confirm %q: issues=%v err=%v", name, issues, err)
		}
	}
	if editor.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", editor.Len())
	}

	target := editor.Rows()[1]
	if err := editor.Select(target.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := editor.DeleteSelected(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if diff := cmp.Diff([]string{"id", "age"}, names(tree)); diff != "" {
		t.Fatalf("remaining rows mismatch (-want +got):\n%s", diff)
	}
	if editor.Len() != 2 {
		t.Fatalf("identifier list out of sync: %d", editor.Len())
	}

	// The submit document carries only domain data.
	doc := tree.Document()
	fields := doc["fields"].([]any)
	for _, element := range fields {
		if _, leaked := element.(map[string]any)["_id_"]; leaked {
			t.Fatal("identifier reached the document")
		}
	}
}

func TestEditor_ResyncsAfterOutsideWrite(t *testing.T) {
	editor, tree := newFixture(t, []any{row("id"), row("email")})
	before := editor.Rows()

	if err := tree.Set("fields", []any{row("id"), row("email"), row("age")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rows := editor.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows after outside append, got %d", len(rows))
	}
	if rows[0].ID != before[0].ID || rows[1].ID != before[1].ID {
		t.Fatal("existing rows lost their identifiers")
	}
	if rows[2].ID == "" || rows[2].ID == rows[0].ID || rows[2].ID == rows[1].ID {
		t.Fatalf("new row identifier %q not freshly minted", rows[2].ID)
	}

	if err := editor.Select(rows[2].ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := tree.Set("fields", []any{row("id")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rows = editor.Rows()
	if len(rows) != 1 || editor.Len() != 1 {
		t.Fatalf("expected 1 row after outside truncation, got %d", len(rows))
	}
	if got := editor.Selected(); len(got) != 0 {
		t.Fatalf("selection survived row removal: %v", got)
	}
}

func TestDialog_CreateWithMissingNameDoesNotAppend(t *testing.T) {
	editor, tree := newFixture(t, nil, WithRowRule(rowRule(t)))

	dialog := editor.BeginCreate()
	if err := dialog.Tree().Set("not_null", true); err != nil {
		t.Fatalf("set: %v", err)
	}

	issues, err := dialog.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("expected a required-field issue")
	}
	if !strings.Contains(issues[0].Message, "required") {
		t.Fatalf("unexpected issue %v", issues[0])
	}
	if msg, ok := dialog.Tree().Error("name"); !ok || msg == "" {
		t.Fatal("issue not attached to the dialog field")
	}
	if !dialog.Open() {
		t.Fatal("dialog closed despite validation failure")
	}
	if value, _ := tree.Get("fields"); value != nil {
		if list, _ := value.([]any); len(list) != 0 {
			t.Fatalf("row appended despite validation failure: %v", list)
		}
	}
}

func TestDialog_EditShallowMerges(t *testing.T) {
	editor, tree := newFixture(t, []any{
		map[string]any{"name": "id", "not_null": true, "comment": "pk"},
	})

	target := editor.Rows()[0]
	dialog, err := editor.BeginEdit(target.ID)
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := dialog.Tree().Set("name", "identifier"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if issues, err := dialog.Confirm(); err != nil || len(issues) != 0 {
		t.Fatalf("confirm: issues=%v err=%v", issues, err)
	}

	value, _ := tree.Get("fields.0")
	got := value.(map[string]any)
	want := map[string]any{"name": "identifier", "not_null": true, "comment": "pk"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged row mismatch (-want +got):\n%s", diff)
	}
}

func TestDialog_CancelLeavesTreeUntouched(t *testing.T) {
	editor, tree := newFixture(t, []any{row("id")})

	target := editor.Rows()[0]
	dialog, err := editor.BeginEdit(target.ID)
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := dialog.Tree().Set("name", "changed"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !editor.Dirty() {
		t.Fatal("dialog edits not reflected in editor dirtiness")
	}
	dialog.Cancel()

	if editor.Dirty() {
		t.Fatal("dirtiness survived cancel")
	}
	if diff := cmp.Diff([]string{"id"}, names(tree)); diff != "" {
		t.Fatalf("tree mutated on cancel (-want +got):\n%s", diff)
	}
	if editor.Mode() != ModeList {
		t.Fatalf("mode = %q after cancel", editor.Mode())
	}
}

func TestEditor_ReorderCommitsImmediately(t *testing.T) {
	editor, tree := newFixture(t, []any{row("A"), row("B"), row("C")})
	idsBefore := make(map[string]string)
	for _, r := range editor.Rows() {
		idsBefore[r.Data["name"].(string)] = r.ID
	}

	editor.BeginReorder()
	if err := editor.Move(2, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	editor.EndReorder()

	if diff := cmp.Diff([]string{"C", "A", "B"}, names(tree)); diff != "" {
		t.Fatalf("order not committed (-want +got):\n%s", diff)
	}
	// Identifiers follow their rows.
	for _, r := range editor.Rows() {
		if idsBefore[r.Data["name"].(string)] != r.ID {
			t.Fatalf("identifier did not follow row %v", r.Data["name"])
		}
	}
}

func TestConfirmPrompt(t *testing.T) {
	if got := ConfirmPrompt(1); got != "Are you sure you want to delete an item?" {
		t.Fatalf("singular prompt = %q", got)
	}
	if got := ConfirmPrompt(3); got != "Are you sure you want to delete items?" {
		t.Fatalf("plural prompt = %q", got)
	}
}

func TestEditor_SelectionUnavailableWhileReordering(t *testing.T) {
	editor, _ := newFixture(t, []any{row("A")})
	target := editor.Rows()[0]

	editor.BeginReorder()
	if err := editor.Select(target.ID); err == nil {
		t.Fatal("selection allowed during reorder")
	}
	editor.EndReorder()
	if err := editor.Select(target.ID); err != nil {
		t.Fatalf("selection after reorder: %v", err)
	}
}

func TestEditor_Inspect(t *testing.T) {
	editor, _ := newFixture(t, []any{map[string]any{"name": "id", "not_null": true}})
	target := editor.Rows()[0]

	dump, err := editor.Inspect(target.ID)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(dump, "name: id") || !strings.Contains(dump, "not_null: true") {
		t.Fatalf("unexpected dump:\n%s", dump)
	}
	if strings.Contains(dump, target.ID) {
		t.Fatal("identifier appears in dump")
	}
}
