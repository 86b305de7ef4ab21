package level

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	reflectschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vovakirdan/gridbot/internal/level/formats"
)

const schemaURL = "level.schema.json"

// Schema reflects the JSON schema of a level document.
func Schema() *reflectschema.Schema {
	r := reflectschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := r.Reflect(new(formats.Document))
	s.Title = "gridbot level"
	s.Description = "Grid puzzle level: layout, start variants, actors and disabled builtins."
	return s
}

// SchemaJSON returns the indented schema document.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("level: marshal schema: %w", err)
	}
	return data, nil
}

var (
	compiled    *jsonschema.Schema
	compileErr  error
	compileOnce sync.Once
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := SchemaJSON()
		if err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("level: add schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("level: compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateDocument checks raw YAML against the level schema.
func ValidateDocument(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	v, err := formats.YAMLToJSONValue(data)
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return ValidationError{Code: CodeSchema, Message: err.Error()}
	}
	return nil
}
