package schema

import "fmt"

// UnresolvedReferenceError reports a $ref naming a definition the table does
// not contain. It is fatal to rendering the referencing field, never to the
// whole screen.
type UnresolvedReferenceError struct {
	Field string
	Ref   string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("schema: field %q references unknown definition %q", e.Field, e.Ref)
}

// UnsupportedSchemaError reports a schema shape the engine does not handle,
// such as propertyNames-keyed objects.
type UnsupportedSchemaError struct {
	Field  string
	Reason string
}

func (e *UnsupportedSchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: unsupported shape: %s", e.Reason)
	}
	return fmt.Sprintf("schema: field %q has unsupported shape: %s", e.Field, e.Reason)
}
