// Package validation checks JSON documents against JSON Schema definitions.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ResultError is returned when a document does not satisfy its schema.
type ResultError struct {
	Schema string
	Result *ValidationResult
}

func (e *ResultError) Error() string {
	parts := make([]string, len(e.Result.Errors))
	for i, ve := range e.Result.Errors {
		parts[i] = ve.Field + ": " + ve.Message
	}
	return fmt.Sprintf("%s validation failed: %s", e.Schema, strings.Join(parts, "; "))
}

// Compile parses a schema given as a JSON string.
func Compile(name, schemaJSON string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustCompile is Compile for package-level schema literals.
func MustCompile(name, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes validates a raw JSON document.
func (s *Schema) ValidateBytes(doc []byte) error {
	return s.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateValue validates an already decoded Go value.
func (s *Schema) ValidateValue(v interface{}) error {
	return s.validate(gojsonschema.NewGoLoader(v))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) error {
	result, err := s.compiled.Validate(loader)
	if err != nil {
		return fmt.Errorf("%s validation error: %w", s.name, err)
	}
	if result.Valid() {
		return nil
	}

	vr := &ValidationResult{Valid: false}
	for _, re := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return &ResultError{Schema: s.name, Result: vr}
}
