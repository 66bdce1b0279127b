package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidatorEmptySchemaAlwaysPasses(t *testing.T) {
	v := newSchemaValidator()
	err := v.Validate("anything", nil, json.RawMessage(`{"x":1}`))
	assert.NoError(t, err)
}

func TestSchemaValidatorRejectsWrongType(t *testing.T) {
	v := newSchemaValidator()
	schema := json.RawMessage(`{"type":"object","properties":{"degrees":{"type":"integer"}},"required":["degrees"]}`)
	err := v.Validate("look", schema, json.RawMessage(`{"degrees":"a lot"}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "look")
}

func TestSchemaValidatorAcceptsMatchingInput(t *testing.T) {
	v := newSchemaValidator()
	schema := json.RawMessage(`{"type":"object","properties":{"degrees":{"type":"integer"}},"required":["degrees"]}`)
	err := v.Validate("look", schema, json.RawMessage(`{"degrees":30}`))
	assert.NoError(t, err)
}

func TestSchemaValidatorRejectsMalformedJSON(t *testing.T) {
	v := newSchemaValidator()
	schema := json.RawMessage(`{"type":"object"}`)
	err := v.Validate("look", schema, json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestSchemaValidatorCachesCompiledSchema(t *testing.T) {
	v := newSchemaValidator()
	schema := json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer"}},"required":["n"]}`)
	assert.NoError(t, v.Validate("tool", schema, json.RawMessage(`{"n":1}`)))
	assert.Error(t, v.Validate("tool", schema, json.RawMessage(`{"n":"nope"}`)))
	_, cached := v.cache["tool"]
	assert.True(t, cached)
}
