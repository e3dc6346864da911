// Package formstate holds the live edit buffer for one editing screen: a
// path-addressed value tree mirroring the schema's shape, per-path dirty
// flags, and per-path validation errors.
package formstate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tree is the mutable Form State Tree. Values are addressed by dotted paths
// ("fields.0.name"); numeric segments index into arrays. A Tree is owned
// exclusively by one screen; nested dialogs operate on their own Tree and
// merge back on confirm.
type Tree struct {
	values map[string]any
	dirty  map[string]struct{}
	errors map[string]string
	shape  ShapeGuard
}

// ShapeGuard vets value paths before they are written. It keeps the tree's
// shape a subset of the schema's shape: writes to paths the schema does not
// declare are rejected.
type ShapeGuard func(path string) error

// New seeds a tree with a deep copy of the initial document. A nil guard
// accepts every path.
func New(initial map[string]any, guard ShapeGuard) *Tree {
	return &Tree{
		values: cloneMap(initial),
		dirty:  make(map[string]struct{}),
		errors: make(map[string]string),
		shape:  guard,
	}
}

// Values returns the live value map. Callers must not retain it across
// mutations; use Document for a safe copy.
func (t *Tree) Values() map[string]any {
	if t == nil {
		return nil
	}
	return t.values
}

// Document returns a deep copy of the current values with nil entries and
// empty containers pruned, ready to hand to a submit sink.
func (t *Tree) Document() map[string]any {
	if t == nil {
		return nil
	}
	cleaned, _ := cleanCopy(t.values).(map[string]any)
	if cleaned == nil {
		cleaned = map[string]any{}
	}
	return cleaned
}

// Get resolves a dotted path.
func (t *Tree) Get(path string) (any, bool) {
	if t == nil || path == "" {
		return nil, false
	}
	return getPath(t.values, path)
}

// Set writes a value at a dotted path, creating intermediate containers as
// needed, and marks the path dirty. Paths outside the schema's shape are
// rejected.
func (t *Tree) Set(path string, value any) error {
	if t == nil {
		return fmt.Errorf("formstate: tree is nil")
	}
	if t.shape != nil {
		if err := t.shape(path); err != nil {
			return err
		}
	}
	if t.values == nil {
		t.values = make(map[string]any)
	}
	if err := setPath(t.values, path, value); err != nil {
		return err
	}
	t.dirty[path] = struct{}{}
	return nil
}

// RemoveIndex deletes one element from the array at path, shifting later
// elements down. Errors keyed under the array are cleared; the caller
// revalidates.
func (t *Tree) RemoveIndex(path string, index int) error {
	raw, ok := t.Get(path)
	if !ok {
		return fmt.Errorf("formstate: no array at %q", path)
	}
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("formstate: value at %q is not an array", path)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("formstate: index %d out of range at %q", index, path)
	}
	next := append(append([]any(nil), list[:index]...), list[index+1:]...)
	return t.Set(path, next)
}

// Move relocates an array element from one position to another, splice
// semantics: the element is removed and reinserted at the destination.
func (t *Tree) Move(path string, from, to int) error {
	raw, ok := t.Get(path)
	if !ok {
		return fmt.Errorf("formstate: no array at %q", path)
	}
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("formstate: value at %q is not an array", path)
	}
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return fmt.Errorf("formstate: move %d->%d out of range at %q", from, to, path)
	}
	item := list[from]
	trimmed := append(append([]any(nil), list[:from]...), list[from+1:]...)
	next := make([]any, 0, len(list))
	next = append(next, trimmed[:to]...)
	next = append(next, item)
	next = append(next, trimmed[to:]...)
	return t.Set(path, next)
}

// Dirty reports whether any path has been touched since load or the last
// ClearDirty.
func (t *Tree) Dirty() bool {
	return t != nil && len(t.dirty) > 0
}

// DirtyPaths returns the touched paths in sorted order.
func (t *Tree) DirtyPaths() []string {
	if t == nil || len(t.dirty) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.dirty))
	for path := range t.dirty {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// ClearDirty forgets all dirty marks. Values are left untouched.
func (t *Tree) ClearDirty() {
	if t == nil {
		return
	}
	t.dirty = make(map[string]struct{})
}

// SetError attaches a validation error to a path; an empty message clears it.
func (t *Tree) SetError(path, message string) {
	if t == nil {
		return
	}
	if message == "" {
		delete(t.errors, path)
		return
	}
	t.errors[path] = message
}

// ClearErrorsUnder removes the error at path and any error keyed beneath it.
func (t *Tree) ClearErrorsUnder(path string) {
	if t == nil {
		return
	}
	delete(t.errors, path)
	prefix := path + "."
	for key := range t.errors {
		if strings.HasPrefix(key, prefix) {
			delete(t.errors, key)
		}
	}
}

// Error returns the validation error attached to a path.
func (t *Tree) Error(path string) (string, bool) {
	if t == nil {
		return "", false
	}
	msg, ok := t.errors[path]
	return msg, ok
}

// Errors returns a copy of all attached errors keyed by path.
func (t *Tree) Errors() map[string]string {
	if t == nil || len(t.errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(t.errors))
	for path, msg := range t.errors {
		out[path] = msg
	}
	return out
}

// HasErrors reports whether any validation error is attached.
func (t *Tree) HasErrors() bool {
	return t != nil && len(t.errors) > 0
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}

// cleanCopy deep-copies while dropping nil leaves. Containers are kept even
// when empty after pruning so array shapes survive.
func cleanCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			if v == nil {
				continue
			}
			clone[k] = cleanCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, 0, len(typed))
		for _, v := range typed {
			clone = append(clone, cleanCopy(v))
		}
		return clone
	default:
		return typed
	}
}

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	current := any(root)
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func setPath(root map[string]any, path string, value any) error {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil
	}

	var current any = root
	for i, segment := range segments {
		last := i == len(segments)-1
		switch node := current.(type) {
		case map[string]any:
			if last {
				node[segment] = value
				return nil
			}
			child, err := ensureChild(node[segment], segments[i+1])
			if err != nil {
				return fmt.Errorf("formstate: path %q: %w", path, err)
			}
			node[segment] = child
			current = child

		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return fmt.Errorf("formstate: path %q: expected numeric segment, got %q", path, segment)
			}
			if idx < 0 || idx >= len(node) {
				return fmt.Errorf("formstate: path %q: index %d out of range", path, idx)
			}
			if last {
				node[idx] = value
				return nil
			}
			child, err := ensureChild(node[idx], segments[i+1])
			if err != nil {
				return fmt.Errorf("formstate: path %q: %w", path, err)
			}
			node[idx] = child
			current = child

		default:
			return fmt.Errorf("formstate: path %q: unexpected container for segment %q", path, segment)
		}
	}
	return nil
}

// ensureChild returns the existing container, or a fresh one shaped for the
// next segment. Arrays are never implicitly grown past their length; rows are
// appended through whole-array writes.
func ensureChild(existing any, nextSegment string) (any, error) {
	if _, err := strconv.Atoi(nextSegment); err == nil {
		child, ok := existing.([]any)
		if !ok && existing != nil {
			return nil, fmt.Errorf("expected array before segment %q", nextSegment)
		}
		if child == nil {
			child = []any{}
		}
		return child, nil
	}
	child, ok := existing.(map[string]any)
	if !ok || child == nil {
		child = make(map[string]any)
	}
	return child, nil
}
