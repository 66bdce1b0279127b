// Package models holds the data shapes shared across the memory store,
// backend adapters, tool registry and turn engine. They are the neutral
// wire format the rest of the system agrees on, independent of any one
// LLM provider's native representation.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleToolBatch Role = "tool-result-batch"
)

// PartType discriminates the kind of content a Part carries.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
)

// Part is one piece of a Message's content. Only the fields relevant to
// Type are populated. Meta is a slot for opaque, backend-specific data
// that must be round-tripped unchanged; no backend in this module fills
// it (Kimi's "reasoning_content" rides in Message.Raw instead).
type Part struct {
	Type      PartType        `json:"type"`
	Text      string          `json:"text,omitempty"`
	ImageB64  string          `json:"image_b64,omitempty"`
	MediaType string          `json:"media_type,omitempty"`
	ToolCall  *ToolCall       `json:"tool_call,omitempty"`
	ToolResult *ToolResult    `json:"tool_result,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// Message is one ordered record in a conversation transcript. Transcripts
// are append-only; the only way to shorten one is an explicit clear from
// the scheduler.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`

	// Raw holds the provider-native representation of this message, when
	// it originated from a backend response, so it can be reinjected
	// verbatim on the next turn instead of being reconstructed from Parts.
	Raw json.RawMessage `json:"raw,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Text concatenates every text part of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// ToolCalls returns the tool-call descriptors carried by this message, in
// the order the backend emitted them.
func (m Message) ToolCalls() []ToolCall {
	var out []ToolCall
	for _, p := range m.Parts {
		if p.Type == PartToolCall && p.ToolCall != nil {
			out = append(out, *p.ToolCall)
		}
	}
	return out
}

// ToolCall is an LLM's request to execute a tool, stable within a turn.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of dispatching a ToolCall.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Text       string `json:"text"`
	ImageB64   string `json:"image_b64,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// StopReason is why a backend turn stopped producing output.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
)

// TurnResult is the normalized outcome of one backend.StreamTurn call.
type TurnResult struct {
	StopReason StopReason
	Text       string
	ToolCalls  []ToolCall

	// RawAssistant is the provider-native assistant message, preserved so
	// it can be fed back verbatim on the following turn.
	RawAssistant json.RawMessage
}

// ToolDef is the neutral shape a tool advertises to a backend, whether it
// is a built-in or proxied through an MCP session.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}
