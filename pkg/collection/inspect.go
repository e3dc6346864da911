package collection

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Inspect renders one row as a human-readable YAML dump for the list view's
// popover. Only domain data appears; the row identifier is editor-local and
// is not part of the dump.
func (e *Editor) Inspect(id string) (string, error) {
	idx, ok := e.indexOf(id)
	if !ok {
		return "", fmt.Errorf("collection: unknown row %q", id)
	}
	out, err := yaml.Marshal(e.rows()[idx])
	if err != nil {
		return "", fmt.Errorf("collection: dump row %q: %w", id, err)
	}
	return string(out), nil
}
