// Package schemas holds the JSON Schemas every generation backend answer must satisfy
// and validates decoded answers against them.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded schemas.
const (
	Match       = "match"
	Profile     = "profile"
	Requirement = "requirement"
)

//go:embed json/*.json
var files embed.FS

var (
	mu       sync.Mutex
	compiled = map[string]*gojsonschema.Schema{}
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s schema validation failed:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, err.Field, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func load(name string) (*gojsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	raw, err := files.ReadFile("json/" + name + ".json")
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}

	compiled[name] = s
	return s, nil
}

// Validate checks a decoded JSON document (maps, slices, float64s as produced by
// encoding/json) against the named schema. A *ValidationError lists every violation.
func Validate(name string, document any) error {
	s, err := load(name)
	if err != nil {
		return err
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("validate %s document: %w", name, err)
	}

	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}
