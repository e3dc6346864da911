package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Document is a parsed schema document: the root definition plus its named
// definitions table. Editing screens fetch one Document per configuration
// type and keep it for the lifetime of the session.
type Document struct {
	Root        *Definition
	Definitions Definitions
}

// ParseDocument decodes a JSON Schema document. The root must be an object
// schema; the optional "definitions" member becomes the resolution table.
func ParseDocument(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return nil, errors.New("schema: document is empty")
	}
	var root Definition
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	var table struct {
		Defs Definitions `json:"definitions"`
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("schema: parse definitions: %w", err)
	}
	doc := &Document{
		Root:        &root,
		Definitions: table.Defs,
	}
	if doc.Definitions == nil {
		doc.Definitions = Definitions{}
	}
	if doc.Root.Type() != "object" {
		return nil, &UnsupportedSchemaError{Reason: fmt.Sprintf("document root must be an object schema, got %q", doc.Root.Type())}
	}
	return doc, nil
}
