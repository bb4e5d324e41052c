package runbook

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/runbook.schema.json
var embeddedSchema []byte

const schemaURL = "https://github.com/vegasq/pal/schemas/runbook.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// Schema returns the embedded runbook JSON schema
func Schema() []byte {
	return embeddedSchema
}

func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})

	return compiledSchema, schemaInitErr
}

// ValidationError is one schema violation
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SchemaError collects every schema violation of a runbook document
type SchemaError struct {
	Errors []ValidationError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "runbook does not match schema: " + strings.Join(msgs, "; ")
}

// Is makes schema errors match ErrInvalidRunbook
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidRunbook
}

// Validate checks a decoded runbook document against the embedded schema
func Validate(doc interface{}) error {
	schema, err := getCompiledSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &SchemaError{Errors: []ValidationError{{Path: "/", Message: err.Error()}}}
	}

	printer := message.NewPrinter(language.English)
	return &SchemaError{Errors: leafErrors(verr, printer, nil)}
}

// leafErrors flattens the cause tree, keeping only the most specific violations
func leafErrors(err *jsonschema.ValidationError, printer *message.Printer, acc []ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		return append(acc, ValidationError{
			Path:    "/" + strings.Join(err.InstanceLocation, "/"),
			Message: err.ErrorKind.LocalizedString(printer),
		})
	}
	for _, cause := range err.Causes {
		acc = leafErrors(cause, printer, acc)
	}
	return acc
}
