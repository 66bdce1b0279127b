package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utenadev/familiar-ai/pkg/models"
)

type fakeTool struct {
	name   string
	schema json.RawMessage
	result func(ctx context.Context, input json.RawMessage) (string, string, string, error)
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake tool " + f.name }
func (f *fakeTool) Schema() json.RawMessage     { return f.schema }
func (f *fakeTool) Execute(ctx context.Context, input json.RawMessage) (string, string, string, error) {
	return f.result(ctx, input)
}

func TestRegisterAndList(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{name: "echo", result: func(_ context.Context, input json.RawMessage) (string, string, string, error) {
		return string(input), "", "", nil
	}})

	defs := r.List()
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry(nil)
	result := r.Dispatch(context.Background(), "nope", json.RawMessage(`{}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "not available")
}

func TestDispatchNameTooLong(t *testing.T) {
	r := NewRegistry(nil)
	longName := make([]byte, MaxNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}
	result := r.Dispatch(context.Background(), string(longName), json.RawMessage(`{}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "name too long")
}

func TestDispatchInputTooLarge(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{name: "echo", result: func(_ context.Context, input json.RawMessage) (string, string, string, error) {
		return string(input), "", "", nil
	}})
	huge := make(json.RawMessage, MaxInputSize+1)
	result := r.Dispatch(context.Background(), "echo", huge)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "input too large")
}

func TestDispatchBuiltinSuccess(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{name: "greet", result: func(_ context.Context, _ json.RawMessage) (string, string, string, error) {
		return "hello", "", "", nil
	}})
	result := r.Dispatch(context.Background(), "greet", json.RawMessage(`{}`))
	assert.False(t, result.IsError)
	assert.Equal(t, "hello", result.Text)
}

func TestDispatchBuiltinErrorWraps(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{name: "broken", result: func(_ context.Context, _ json.RawMessage) (string, string, string, error) {
		return "", "", "", assert.AnError
	}})
	result := r.Dispatch(context.Background(), "broken", json.RawMessage(`{}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "Tool error:")
}

func TestDispatchBuiltinRecoversPanic(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{name: "panicky", result: func(_ context.Context, _ json.RawMessage) (string, string, string, error) {
		panic("boom")
	}})
	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), "panicky", json.RawMessage(`{}`))
	})
}

func TestDispatchValidatesSchema(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{
		name:   "typed",
		schema: json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer"}},"required":["n"]}`),
		result: func(_ context.Context, _ json.RawMessage) (string, string, string, error) {
			return "ok", "", "", nil
		},
	})
	result := r.Dispatch(context.Background(), "typed", json.RawMessage(`{"n":"not a number"}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "does not match")
}

func TestAttachMCPBuiltinWinsCollision(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeTool{name: "see", result: func(_ context.Context, _ json.RawMessage) (string, string, string, error) {
		return "builtin see", "", "", nil
	}})

	mgr := NewMCPManager(nil)
	mgr.defs["see"] = models.ToolDef{Name: "see", Description: "MCP see"}
	r.AttachMCP(mgr)

	defs := r.List()
	require.Len(t, defs, 1)
	assert.Equal(t, "see", defs[0].Name)
}
