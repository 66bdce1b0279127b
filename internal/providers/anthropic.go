package providers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// AnthropicBackend implements Backend over Anthropic's native tool-use
// protocol: tools as first-class objects, tool results as a user message
// of typed tool_result blocks, and a cache_control tag on the stable
// portion of the system prompt.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropicBackend constructs a backend bound to apiKey/model.
func NewAnthropicBackend(apiKey, baseURL, model string) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicBackend{client: anthropic.NewClient(opts...), model: model}, nil
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

// StreamTurn streams one turn. The stable system block carries an
// ephemeral cache_control tag; the variable block (interoception, plan,
// impulse) never does, since it changes every turn.
func (b *AnthropicBackend) StreamTurn(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: maxTokens,
		System:    buildAnthropicSystem(req.System),
		Messages:  buildAnthropicMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildAnthropicTools(req.Tools)
	}

	stream := b.client.Messages.NewStreaming(ctx, params)
	acc := anthropic.Message{}
	var textBuf strings.Builder

	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, NewError("anthropic", b.model, err)
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if textDelta, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && textDelta.Text != "" {
				textBuf.WriteString(textDelta.Text)
				if onText != nil {
					onText(textDelta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, NewError("anthropic", b.model, err)
	}

	result := &models.TurnResult{Text: textBuf.String(), StopReason: models.StopEndTurn}
	for _, block := range acc.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			input := tu.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			result.ToolCalls = append(result.ToolCalls, models.ToolCall{ID: tu.ID, Name: tu.Name, Input: input})
		}
	}
	if len(result.ToolCalls) > 0 {
		result.StopReason = models.StopToolUse
	}
	if raw, err := json.Marshal(acc); err == nil {
		result.RawAssistant = raw
	}
	return result, nil
}

// Complete issues a single non-streaming request and returns "" on any
// failure, so callers can treat it as "skip this step".
func (b *AnthropicBackend) Complete(ctx context.Context, prompt string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return ""
	}
	var out strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	return out.String()
}

func buildAnthropicSystem(sys System) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if sys.Stable != "" {
		block := anthropic.TextBlockParam{Text: sys.Stable}
		block.CacheControl = anthropic.NewCacheControlEphemeralParam()
		blocks = append(blocks, block)
	}
	if sys.Variable != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: sys.Variable})
	}
	return blocks
}

func buildAnthropicMessages(messages []models.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text())))
		case models.RoleAssistant:
			// Prefer the provider-native message we stored when this reply
			// was received: it carries thinking/redacted-thinking blocks
			// verbatim, which reconstructing from Parts alone would drop
			// and which Anthropic requires unchanged on the next turn.
			if len(msg.Raw) > 0 {
				var native anthropic.Message
				if err := json.Unmarshal(msg.Raw, &native); err == nil {
					out = append(out, native.ToParam())
					continue
				}
			}
			var blocks []anthropic.ContentBlockParamUnion
			if text := msg.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, tc := range msg.ToolCalls() {
				var input any
				_ = json.Unmarshal(tc.Input, &input)
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case models.RoleToolBatch:
			var blocks []anthropic.ContentBlockParamUnion
			for _, p := range msg.Parts {
				if p.Type != models.PartToolResult || p.ToolResult == nil {
					continue
				}
				tr := p.ToolResult
				if tr.ImageB64 != "" {
					blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Text, tr.IsError))
					blocks = append(blocks, anthropic.NewImageBlockBase64(tr.MediaType, tr.ImageB64))
				} else {
					blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Text, tr.IsError))
				}
			}
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func buildAnthropicTools(tools []models.ToolDef) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		_ = json.Unmarshal(t.InputSchema, &schema)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}
