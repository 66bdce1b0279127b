package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaValidator caches parsed JSON schemas per tool name so validation
// doesn't re-compile on every dispatch.
type schemaValidator struct {
	compiler *jsonschema.Compiler
	cache    map[string]*jsonschema.Schema
}

func newSchemaValidator() *schemaValidator {
	return &schemaValidator{
		compiler: jsonschema.NewCompiler(),
		cache:    map[string]*jsonschema.Schema{},
	}
}

// Validate checks input against a tool's declared JSON schema, returning
// a guidance-sentence error (a policy violation, not an infrastructure
// fault) on mismatch.
func (v *schemaValidator) Validate(toolName string, rawSchema, input json.RawMessage) error {
	if len(rawSchema) == 0 || len(input) == 0 {
		return nil
	}
	compiled, ok := v.cache[toolName]
	if !ok {
		url := "mem://" + toolName + ".json"
		if err := v.compiler.AddResource(url, bytes.NewReader(rawSchema)); err != nil {
			return nil // an un-compilable schema should not block dispatch
		}
		c, err := v.compiler.Compile(url)
		if err != nil {
			return nil
		}
		v.cache[toolName] = c
		compiled = c
	}

	var doc any
	if err := json.Unmarshal(input, &doc); err != nil {
		return fmt.Errorf("input is not valid JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("input does not match %s's schema: %w", toolName, err)
	}
	return nil
}
