package genai

import (
	"fmt"
	"strings"
)

// Field describes one field of an expected JSON response. Nested object
// shapes list their own fields; maps and arrays describe their element
// shape the same way.
type Field struct {
	Name     string
	Type     string // "string", "number", "integer", "object", "array", "map"
	Required bool
	Enum     []string
	Desc     string
	Fields   []Field // element/child fields for object, array, map
}

// Schema describes the JSON shape expected from the model for type T,
// plus a semantic check applied after decoding. The field list is
// rendered into the system prompt verbatim.
type Schema[T any] struct {
	Name   string
	Fields []Field
	Check  func(*T) error
}

// Render produces the plain-text schema description sent to the model.
func (s Schema[T]) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Object %q with fields:\n", s.Name)
	renderFields(&b, s.Fields, 0)
	return b.String()
}

func renderFields(b *strings.Builder, fields []Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		b.WriteString(indent)
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Type)
		if len(f.Enum) > 0 {
			fmt.Fprintf(b, " (one of: %s)", strings.Join(f.Enum, ", "))
		}
		if f.Required {
			b.WriteString(" (required)")
		} else {
			b.WriteString(" (optional)")
		}
		if f.Desc != "" {
			b.WriteString(" // ")
			b.WriteString(f.Desc)
		}
		b.WriteString("\n")
		if len(f.Fields) > 0 {
			renderFields(b, f.Fields, depth+1)
		}
	}
}

// ValidationError reports a decoded response that does not satisfy the
// schema's semantic constraints. It counts as a failed attempt.
type ValidationError struct {
	Schema string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("genai: schema %s: %s", e.Schema, e.Reason)
	}
	return fmt.Sprintf("genai: schema %s: field %s: %s", e.Schema, e.Field, e.Reason)
}

// Invalid builds a ValidationError for one field.
func Invalid(schema, field, format string, args ...any) *ValidationError {
	return &ValidationError{Schema: schema, Field: field, Reason: fmt.Sprintf(format, args...)}
}
