package trainconfig

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	kjsonschema "github.com/kaptinlin/jsonschema"
)

// Schema returns the JSON Schema describing a normalized configuration.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
	}
	s := r.Reflect(&Params{})
	s.Title = "Training configuration"
	s.Description = "Normalized configuration consumed by the training pipeline"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

var (
	compiledSchema    *kjsonschema.Schema
	compiledSchemaErr error
	compileSchemaOnce sync.Once
)

func compileSchema() (*kjsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		data, err := Schema()
		if err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = kjsonschema.NewCompiler().Compile(data)
		if compiledSchemaErr != nil {
			compiledSchemaErr = fmt.Errorf("failed to compile schema: %w", compiledSchemaErr)
		}
	})
	return compiledSchema, compiledSchemaErr
}

// CheckSchema validates the JSON form of p against Schema.
func CheckSchema(p *Params) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to unmarshal params: %w", err)
	}
	result := schema.Validate(instance)
	if result.Valid {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
