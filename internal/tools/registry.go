// Package tools implements the Tool Registry (C3): a single advertised
// tool schema and a single dispatch entry point that hides whether a
// tool is built-in or proxied through an external MCP server.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utenadev/familiar-ai/pkg/models"
)

const (
	// MaxNameLength bounds a tool name the registry will accept, guarding
	// against a runaway or malicious provider response.
	MaxNameLength = 256
	// MaxInputSize bounds a tool call's argument payload.
	MaxInputSize = 10 << 20
)

// Tool is a built-in capability. Execute reports policy problems (a bad
// argument, a memory that could not be saved) as ordinary returned text;
// infrastructure failures (a missing or failing device, an I/O error)
// come back as err, which the dispatch boundary renders as
// "Tool error: <msg>".
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, input json.RawMessage) (text string, imageB64 string, mediaType string, err error)
}

// Registry advertises a unified tool list and dispatches calls to
// built-ins or MCP-routed tools.
type Registry struct {
	mu        sync.RWMutex
	builtins  map[string]Tool
	mcpDefs   map[string]models.ToolDef
	mcp       *MCPManager
	logger    *slog.Logger
	validator *schemaValidator
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		builtins:  map[string]Tool{},
		mcpDefs:   map[string]models.ToolDef{},
		logger:    logger,
		validator: newSchemaValidator(),
	}
}

// Register adds a built-in tool, overwriting any previous registration
// under the same name (built-ins are trusted, unlike MCP registrations).
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[t.Name()] = t
}

// AttachMCP wires an already-started MCPManager into the registry. An MCP
// tool whose name collides with a built-in is dropped with a warning.
// Collisions between MCP servers are already resolved inside the manager;
// the mcpDefs check below only matters if AttachMCP is called more than
// once, and then the earlier registration wins.
func (r *Registry) AttachMCP(mgr *MCPManager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mcp = mgr
	for _, def := range mgr.ToolDefinitions() {
		if _, exists := r.builtins[def.Name]; exists {
			r.logger.Warn("tools: MCP tool name collides with a built-in, dropping", "name", def.Name)
			continue
		}
		if _, exists := r.mcpDefs[def.Name]; exists {
			r.logger.Warn("tools: MCP tool name collision, first registration wins", "name", def.Name)
			continue
		}
		r.mcpDefs[def.Name] = def
	}
}

// List returns every advertised ToolDef, built-in then MCP.
func (r *Registry) List() []models.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolDef, 0, len(r.builtins)+len(r.mcpDefs))
	for _, t := range r.builtins {
		out = append(out, models.ToolDef{Name: t.Name(), Description: t.Description(), InputSchema: t.Schema()})
	}
	for _, def := range r.mcpDefs {
		out = append(out, def)
	}
	return out
}

// Dispatch routes one tool call by name. It never panics or propagates a
// Go error upward: unknown tools, infrastructure failures and policy
// violations are all encoded in the returned text per the error-handling
// design's three error classes.
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage) models.ToolResult {
	if len(name) > MaxNameLength {
		return models.ToolResult{Text: "Tool error: name too long", IsError: true}
	}
	if len(input) > MaxInputSize {
		return models.ToolResult{Text: "Tool error: input too large", IsError: true}
	}

	r.mu.RLock()
	builtin, isBuiltin := r.builtins[name]
	_, isMCP := r.mcpDefs[name]
	mgr := r.mcp
	r.mu.RUnlock()

	switch {
	case isBuiltin:
		return r.dispatchBuiltin(ctx, builtin, input)
	case isMCP && mgr != nil:
		text, imageB64, mediaType, err := mgr.Call(ctx, name, input)
		if err != nil {
			r.logger.Warn("tools: MCP dispatch failed", "tool", name, "error", err)
			return models.ToolResult{Text: fmt.Sprintf("Tool error: %v", err), IsError: true}
		}
		return models.ToolResult{Text: text, ImageB64: imageB64, MediaType: mediaType}
	default:
		return models.ToolResult{Text: fmt.Sprintf("Tool %s not available", name), IsError: true}
	}
}

func (r *Registry) dispatchBuiltin(ctx context.Context, t Tool, input json.RawMessage) (result models.ToolResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("tools: builtin panicked", "tool", t.Name(), "panic", p)
			result = models.ToolResult{Text: fmt.Sprintf("Tool error: %v", p), IsError: true}
		}
	}()
	if err := r.validator.Validate(t.Name(), t.Schema(), input); err != nil {
		return models.ToolResult{Text: err.Error(), IsError: true}
	}
	text, imageB64, mediaType, err := t.Execute(ctx, input)
	if err != nil {
		r.logger.Warn("tools: builtin failed", "tool", t.Name(), "error", err)
		return models.ToolResult{Text: fmt.Sprintf("Tool error: %v", err), IsError: true}
	}
	return models.ToolResult{Text: text, ImageB64: imageB64, MediaType: mediaType}
}

// Close tears down any attached MCP sessions.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.RLock()
	mgr := r.mcp
	r.mu.RUnlock()
	if mgr == nil {
		return nil
	}
	return mgr.Close(ctx)
}
