package providers

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/google/uuid"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// thoughtPreamble is the literal thinking-preamble token some
// OpenAI-compatible servers prepend; a fragment beginning with it,
// up to its first blank line, is filtered from streamed text.
const thoughtPreamble = "THOUGHT"

// OpenAICompatibleBackend implements Backend over the OpenAI chat
// completions wire format, used directly for OpenAI and for Kimi
// (Moonshot), which additionally needs reasoning_content round-tripped
// across turns. When nativeTools is false it falls back to the
// shared prompt-tooling helpers instead of native function-calling.
type OpenAICompatibleBackend struct {
	client             *openai.Client
	model              string
	strictMaxTokens    bool // use max_completion_tokens instead of max_tokens
	nativeTools        bool
	preserveReasoning   bool // Kimi: concatenate + round-trip reasoning_content
	name               string
}

// OpenAIBackendConfig configures an OpenAICompatibleBackend.
type OpenAIBackendConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	NativeTools     bool
	StrictMaxTokens bool
	PreserveReasoning bool
	Name            string
}

// NewOpenAICompatibleBackend builds a backend from cfg. Name defaults to
// "openai" and is used purely for error wrapping/logging.
func NewOpenAICompatibleBackend(cfg OpenAIBackendConfig) *OpenAICompatibleBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return &OpenAICompatibleBackend{
		client:            openai.NewClientWithConfig(clientCfg),
		model:             cfg.Model,
		strictMaxTokens:   cfg.StrictMaxTokens,
		nativeTools:       cfg.NativeTools,
		preserveReasoning: cfg.PreserveReasoning,
		name:              name,
	}
}

func (b *OpenAICompatibleBackend) Name() string { return b.name }

func (b *OpenAICompatibleBackend) StreamTurn(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error) {
	if b.nativeTools {
		return b.streamNative(ctx, req, onText)
	}
	return b.streamPromptTooling(ctx, req, onText)
}

func (b *OpenAICompatibleBackend) streamNative(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: buildOpenAIMessages(req.System.Stable+"\n\n"+req.System.Variable, req.Messages, b.preserveReasoning),
		Stream:   true,
	}
	if req.MaxTokens > 0 {
		if b.strictMaxTokens {
			chatReq.MaxCompletionTokens = req.MaxTokens
		} else {
			chatReq.MaxTokens = req.MaxTokens
		}
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = buildOpenAITools(req.Tools)
	}

	stream, err := b.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, NewError(b.name, b.model, err)
	}
	defer stream.Close()

	var text, reasoning strings.Builder
	calls := map[int]*models.ToolCall{}
	var order []int
	inThought := false

	for {
		resp, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, NewError(b.name, b.model, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if b.preserveReasoning && delta.ReasoningContent != "" {
			reasoning.WriteString(delta.ReasoningContent)
		}

		if delta.Content != "" {
			fragment, _ := filterThought(delta.Content, &inThought)
			if fragment != "" {
				text.WriteString(fragment)
				if onText != nil {
					onText(fragment)
				}
			}
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			cur, ok := calls[idx]
			if !ok {
				cur = &models.ToolCall{}
				calls[idx] = cur
				order = append(order, idx)
			}
			if tc.ID != "" {
				cur.ID = tc.ID
			}
			if tc.Function.Name != "" {
				cur.Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				cur.Input = json.RawMessage(string(cur.Input) + tc.Function.Arguments)
			}
		}
	}

	result := &models.TurnResult{Text: text.String(), StopReason: models.StopEndTurn}
	for _, idx := range order {
		tc := calls[idx]
		if tc.ID == "" {
			tc.ID = uuid.NewString()
		}
		if !json.Valid(tc.Input) {
			tc.Input = json.RawMessage(`{}`)
		}
		if len(tc.Input) == 0 {
			tc.Input = json.RawMessage(`{}`)
		}
		result.ToolCalls = append(result.ToolCalls, *tc)
	}
	if len(result.ToolCalls) > 0 {
		result.StopReason = models.StopToolUse
	}

	raw := map[string]any{"content": result.Text}
	if b.preserveReasoning && reasoning.Len() > 0 {
		raw["reasoning_content"] = reasoning.String()
	}
	if rawJSON, err := json.Marshal(raw); err == nil {
		result.RawAssistant = rawJSON
	}
	return result, nil
}

// filterThought strips a "THOUGHT\n\n" preamble from a streamed text
// fragment. *inThought tracks whether we are still inside the preamble
// across chunk boundaries; filtered reports whether any of this chunk was
// swallowed as preamble. The returned fragment is always non-thinking
// text.
func filterThought(chunk string, inThought *bool) (string, bool) {
	if *inThought {
		if idx := strings.Index(chunk, "\n\n"); idx >= 0 {
			*inThought = false
			return chunk[idx+2:], true
		}
		return "", true
	}
	if strings.HasPrefix(strings.TrimLeft(chunk, " "), thoughtPreamble) {
		if idx := strings.Index(chunk, "\n\n"); idx >= 0 {
			return chunk[idx+2:], true
		}
		*inThought = true
		return "", true
	}
	return chunk, false
}

func (b *OpenAICompatibleBackend) streamPromptTooling(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error) {
	system := buildToolsSystem(req.System.Stable+"\n\n"+req.System.Variable, req.Tools)
	chatReq := openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: buildOpenAIMessages(system, req.Messages, b.preserveReasoning),
		Stream:   true,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	stream, err := b.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, NewError(b.name, b.model, err)
	}
	defer stream.Close()

	var text strings.Builder
	for {
		resp, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, NewError(b.name, b.model, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if c := resp.Choices[0].Delta.Content; c != "" {
			text.WriteString(c)
		}
	}

	calls, visible := parseToolCalls(text.String())
	if onText != nil && visible != "" {
		onText(visible)
	}
	result := &models.TurnResult{Text: visible, ToolCalls: calls, StopReason: models.StopEndTurn}
	if len(calls) > 0 {
		result.StopReason = models.StopToolUse
	}
	if raw, err := json.Marshal(map[string]string{"content": text.String()}); err == nil {
		result.RawAssistant = raw
	}
	return result, nil
}

func (b *OpenAICompatibleBackend) Complete(ctx context.Context, prompt string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	req := openai.ChatCompletionRequest{
		Model:     b.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	}
	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// rawAssistantContent is the shape streamNative marshals into
// TurnResult.RawAssistant / Message.Raw; buildOpenAIMessages unmarshals it
// back so a preserved reasoning_content is replayed verbatim rather than
// reconstructed from Parts, which would silently drop it.
type rawAssistantContent struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

func buildOpenAIMessages(system string, messages []models.Message, preserveReasoning bool) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if strings.TrimSpace(system) != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	// names of tool calls by id, so tool-role messages can report a
	// matching function name where the SDK wants one.
	toolNames := map[string]string{}
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls() {
			toolNames[tc.ID] = tc.Name
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			hasImage := false
			for _, p := range msg.Parts {
				if p.Type == models.PartImage {
					hasImage = true
					break
				}
			}
			if !hasImage {
				out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Text()})
				continue
			}
			var parts []openai.ChatMessagePart
			if t := msg.Text(); t != "" {
				parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: t})
			}
			for _, p := range msg.Parts {
				if p.Type == models.PartImage {
					parts = append(parts, openai.ChatMessagePart{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: "data:" + p.MediaType + ";base64," + p.ImageB64},
					})
				}
			}
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts})

		case models.RoleAssistant:
			assistant := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Text()}
			if preserveReasoning && len(msg.Raw) > 0 {
				var raw rawAssistantContent
				if err := json.Unmarshal(msg.Raw, &raw); err == nil && raw.ReasoningContent != "" {
					assistant.ReasoningContent = raw.ReasoningContent
				}
			}
			for _, tc := range msg.ToolCalls() {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Input),
					},
				})
			}
			out = append(out, assistant)

		case models.RoleToolBatch:
			for _, p := range msg.Parts {
				if p.Type != models.PartToolResult || p.ToolResult == nil {
					continue
				}
				tr := p.ToolResult
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    tr.Text,
					ToolCallID: tr.ToolCallID,
					Name:       toolNames[tr.ToolCallID],
				})
				// Many OpenAI-compatible servers reject images inside a
				// tool-role message; ship them as a follow-up user
				// message with a data-URL image part instead.
				if tr.ImageB64 != "" {
					out = append(out, openai.ChatCompletionMessage{
						Role: openai.ChatMessageRoleUser,
						MultiContent: []openai.ChatMessagePart{{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: "data:" + tr.MediaType + ";base64," + tr.ImageB64},
						}},
					})
				}
			}
		}
	}
	return out
}

func buildOpenAITools(tools []models.ToolDef) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		})
	}
	return out
}
