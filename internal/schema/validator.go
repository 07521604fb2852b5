// Package schema validates model-produced JSON against JSON Schema
// definitions. Compiled schemas are cached; the intent resolver validates
// every extraction reply on the hot path.
package schema

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

type Validator struct {
	cache sync.Map // schema JSON -> *gojsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the JSON document against the schema (given as JSON text).
// A nil return means the document conforms.
func (v *Validator) Validate(schemaJSON, document string) error {
	schema, err := v.compiled(schemaJSON)
	if err != nil {
		return fmt.Errorf("invalid schema definition: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("validation execution failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", join(errs))
}

func (v *Validator) compiled(schemaJSON string) (*gojsonschema.Schema, error) {
	if cached, ok := v.cache.Load(schemaJSON); ok {
		return cached.(*gojsonschema.Schema), nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, err
	}
	v.cache.Store(schemaJSON, schema)
	return schema, nil
}

func join(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	// Cap the output; a badly wrong document can violate dozens of rules.
	out := errs[0]
	for i := 1; i < len(errs) && i < 3; i++ {
		out += "; " + errs[i]
	}
	if len(errs) > 3 {
		out += fmt.Sprintf(" (and %d more)", len(errs)-3)
	}
	return out
}
