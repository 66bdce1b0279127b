package providers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// toolCallRe extracts <tool_call>{...}</tool_call> blocks non-greedily so
// multiple calls in one response are matched independently.
var toolCallRe = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)

// buildToolsSystem appends a tool-description block with one synthesized
// example per tool to the system prompt, for backends with no native
// function-calling.
func buildToolsSystem(system string, tools []models.ToolDef) string {
	if len(tools) == 0 {
		return system
	}
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nYou have access to the following tools. To use one, emit exactly one block of the form ")
	b.WriteString("<tool_call>{\"name\": \"...\", \"input\": {...}}</tool_call> and then stop.\n\n")
	for _, t := range tools {
		b.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
		b.WriteString("  Example: ")
		b.WriteString(synthesizeExample(t))
		b.WriteByte('\n')
	}
	return b.String()
}

// synthesizeExample builds one concrete <tool_call> example from a
// ToolDef's JSON schema, preferring enum[0], then a numeric default,
// else a placeholder string, for each required property.
func synthesizeExample(t models.ToolDef) string {
	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	_ = json.Unmarshal(t.InputSchema, &schema)

	input := map[string]any{}
	for _, name := range schema.Required {
		raw, ok := schema.Properties[name]
		if !ok {
			input[name] = "value"
			continue
		}
		input[name] = exampleValue(raw)
	}

	payload, _ := json.Marshal(map[string]any{"name": t.Name, "input": input})
	return "<tool_call>" + string(payload) + "</tool_call>"
}

func exampleValue(raw json.RawMessage) any {
	var prop struct {
		Type    string            `json:"type"`
		Enum    []json.RawMessage `json:"enum"`
		Default json.RawMessage   `json:"default"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return "value"
	}
	if len(prop.Enum) > 0 {
		var v any
		if err := json.Unmarshal(prop.Enum[0], &v); err == nil {
			return v
		}
	}
	switch prop.Type {
	case "integer", "number":
		if prop.Default != nil {
			var v any
			if err := json.Unmarshal(prop.Default, &v); err == nil {
				return v
			}
		}
		return 1
	case "boolean":
		return true
	default:
		return "value"
	}
}

// parseToolCalls extracts every well-formed <tool_call> block from text,
// returning the calls (with freshly synthesized ids) and the text with
// the tags stripped. Malformed JSON in a block yields zero calls for that
// block, not an error — a partially malformed response still surfaces
// the calls it could parse.
func parseToolCalls(text string) ([]models.ToolCall, string) {
	matches := toolCallRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	var calls []models.ToolCall
	var cleaned strings.Builder
	last := 0
	for _, m := range matches {
		cleaned.WriteString(text[last:m[0]])
		last = m[1]

		body := text[m[2]:m[3]]
		var parsed struct {
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		}
		if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed.Name == "" {
			continue
		}
		input := parsed.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		calls = append(calls, models.ToolCall{
			ID:    uuid.NewString(),
			Name:  parsed.Name,
			Input: input,
		})
	}
	cleaned.WriteString(text[last:])
	return calls, strings.TrimSpace(cleaned.String())
}

// formatToolResultsPrompt renders tool results as bracketed text parts
// for the prompt-tooling fallback, which has no native tool-result
// message shape.
func formatToolResultsPrompt(results []models.ToolResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(fmt.Sprintf("[Tool result]: %s", r.Text))
	}
	return b.String()
}
