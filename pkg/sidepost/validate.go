package sidepost

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var documentSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// DocumentSchema returns the JSON Schema of the sideposting wire format.
func DocumentSchema() []byte {
	return bytes.Clone(documentSchema)
}

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("sidepost-document.json", bytes.NewReader(documentSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("sidepost-document.json")
	})
	return compiledSchema, schemaErr
}

// Violation is one schema violation in a document.
type Violation struct {
	// Path is the JSON pointer of the offending value, e.g. "/included/0".
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists why a document does not match the wire format.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid sideposting document"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		path := v.Path
		if path == "" {
			path = "/"
		}
		parts = append(parts, path+": "+v.Message)
	}
	return "invalid sideposting document: " + strings.Join(parts, "; ")
}

// Validate checks raw JSON against the sideposting document schema. A
// document that does not match returns *ValidationError.
func Validate(raw []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return validateValue(doc)
}

// ValidateDocument checks an encoded Document against the schema.
func ValidateDocument(doc *Document) error {
	raw, err := doc.Marshal()
	if err != nil {
		return err
	}
	return Validate(raw)
}

func validateValue(doc any) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	out := &ValidationError{}
	collectViolations(verr, out)
	return out
}

func collectViolations(err *jsonschema.ValidationError, out *ValidationError) {
	if len(err.Causes) == 0 {
		out.Violations = append(out.Violations, Violation{
			Path:    err.InstanceLocation,
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, out)
	}
}
