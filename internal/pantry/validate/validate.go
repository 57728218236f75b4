// Package validate implements the request validation pipeline: a declared
// schema of fields is checked against a raw JSON body in a fixed order of
// hard gates (malformed input, duplicate keys, unknown fields, missing
// required fields, blank values, primitive types) before any semantic rule
// runs. Shape checks live in Parse; semantic rules are applied separately so
// callers can interleave identity checks between the two stages.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Kind is the primitive type a field's value must carry on the wire.
type Kind int

const (
	String Kind = iota
	Int
)

// StringRule is a semantic validator for a string field. It may return a
// normalized replacement value.
type StringRule func(value string) (string, error)

// IntRule is a semantic validator for an integer field.
type IntRule func(value int) error

// Field declares a single schema field.
type Field struct {
	Name     string
	Required bool
	Kind     Kind

	// Fold lowercases the value after shape validation. Secrets keep their
	// case; everything else is stored and compared lowercase.
	Fold bool

	Rule    StringRule
	IntRule IntRule
}

// Schema is an ordered set of declared fields.
type Schema struct {
	fields []Field
	byName map[string]Field
}

func NewSchema(fields ...Field) Schema {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return Schema{fields: fields, byName: byName}
}

// Values is the cleaned field→value mapping produced by Parse. Values hold
// string or int entries only.
type Values map[string]any

func (v Values) Has(name string) bool { _, ok := v[name]; return ok }

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

// Error is a structured validation failure. Field is empty for
// request-scoped failures (malformed body, duplicate keys, shape errors).
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func fail(field, reason string) *Error { return &Error{Field: field, Reason: reason} }

// Parse runs the shape gates over a raw JSON body, in order, each gate
// short-circuiting the rest: well-formed single JSON object, no duplicate
// keys, no unknown fields, all required fields present, no blank values,
// values of the declared primitive type. Fields marked Fold are lowercased.
// Semantic rules are NOT applied here; see Apply.
func (s Schema) Parse(body []byte) (Values, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	var unknown []string
	for key := range raw {
		if _, ok := s.byName[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fail("", fmt.Sprintf("unknown field(s) %s; allowed fields are %s",
			strings.Join(unknown, ", "), strings.Join(s.names(), ", ")))
	}

	var missing []string
	for _, f := range s.fields {
		if _, ok := raw[f.Name]; f.Required && !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fail("", "missing required field(s) "+strings.Join(missing, ", "))
	}

	// Blank values are rejected before type checks, even on optional or
	// integer fields, so a whitespace-only count reads as "blank" rather
	// than "wrong type".
	for _, f := range s.fields {
		if str, ok := raw[f.Name].(string); ok && strings.TrimSpace(str) == "" {
			return nil, fail(f.Name, "cannot be empty or contain only spaces")
		}
	}

	values := make(Values, len(raw))
	for _, f := range s.fields {
		rawValue, ok := raw[f.Name]
		if !ok {
			continue
		}
		value, err := coerce(f, rawValue)
		if err != nil {
			return nil, err
		}
		values[f.Name] = value
	}
	return values, nil
}

// Apply runs each field's semantic rule over the values present in the
// mapping, replacing entries whose rule returned a normalized value. The
// first failing rule aborts the rest.
func (s Schema) Apply(values Values) error {
	for _, f := range s.fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case String:
			if f.Rule == nil {
				continue
			}
			normalized, err := f.Rule(value.(string))
			if err != nil {
				return fail(f.Name, err.Error())
			}
			values[f.Name] = normalized
		case Int:
			if f.IntRule == nil {
				continue
			}
			if err := f.IntRule(value.(int)); err != nil {
				return fail(f.Name, err.Error())
			}
		}
	}
	return nil
}

func (s Schema) names() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// decodeObject reads the body token by token so a repeated key is caught
// instead of silently resolving to the last occurrence.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fail("", "request body must be a valid JSON object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fail("", "request body must be a valid JSON object")
	}

	raw := map[string]any{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fail("", "request body must be a valid JSON object")
		}
		key := keyTok.(string)
		if _, seen := raw[key]; seen {
			return nil, fail("", fmt.Sprintf("field %q appears more than once in the request body", key))
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fail("", "request body must be a valid JSON object")
		}
		raw[key] = value
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return nil, fail("", "request body must be a valid JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fail("", "request body must be a single JSON object")
	}
	return raw, nil
}

// coerce enforces the primitive-type gate for one field. Numbers arrive as
// json.Number thanks to UseNumber, so a quoted "3" is a string here and
// fails an Int field instead of being coerced.
func coerce(f Field, rawValue any) (any, error) {
	switch f.Kind {
	case String:
		s, ok := rawValue.(string)
		if !ok {
			return nil, fail(f.Name, "must be a string")
		}
		if f.Fold {
			s = strings.ToLower(s)
		}
		return s, nil
	case Int:
		num, ok := rawValue.(json.Number)
		if !ok {
			return nil, fail(f.Name, "must be an integer supplied without quotes")
		}
		n, err := num.Int64()
		if err != nil {
			return nil, fail(f.Name, "must be an integer supplied without quotes")
		}
		return int(n), nil
	default:
		return nil, fail(f.Name, "unsupported field kind")
	}
}
