package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/google/uuid"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// GeminiBackend implements Backend over Google's GenAI protocol: function
// declarations with JSON-schema parameters, tool results as
// function_response parts, inline base64 image parts, and a thinking
// budget pinned to zero since this system manages its own plan/replan
// loop rather than delegating to provider-side reasoning.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend constructs a backend bound to apiKey/model.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, NewError("gemini", model, err)
	}
	return &GeminiBackend{client: client, model: model}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) StreamTurn(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error) {
	contents := buildGeminiContents(req.Messages)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(strings.TrimSpace(req.System.Stable+"\n\n"+req.System.Variable), genai.RoleUser),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(0))},
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: buildGeminiFunctionDecls(req.Tools)}}
	}

	stream := b.client.Models.GenerateContentStream(ctx, b.model, contents, cfg)

	var text strings.Builder
	var calls []models.ToolCall
	var lastResp *genai.GenerateContentResponse

	for resp, err := range stream {
		if err != nil {
			return nil, NewError("gemini", b.model, err)
		}
		lastResp = resp
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
					if onText != nil {
						onText(part.Text)
					}
				}
				if part.FunctionCall != nil {
					input, _ := json.Marshal(part.FunctionCall.Args)
					calls = append(calls, models.ToolCall{
						ID:    uuid.NewString(),
						Name:  part.FunctionCall.Name,
						Input: input,
					})
				}
			}
		}
	}

	result := &models.TurnResult{Text: text.String(), ToolCalls: calls, StopReason: models.StopEndTurn}
	if len(calls) > 0 {
		result.StopReason = models.StopToolUse
	}
	if lastResp != nil {
		if raw, err := json.Marshal(lastResp); err == nil {
			result.RawAssistant = raw
		}
	}
	return result, nil
}

func (b *GeminiBackend) Complete(ctx context.Context, prompt string, maxTokens int) string {
	cfg := &genai.GenerateContentConfig{ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(0))}}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), cfg)
	if err != nil || resp == nil {
		return ""
	}
	return resp.Text()
}

func buildGeminiContents(messages []models.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			out = append(out, genai.NewContentFromText(msg.Text(), genai.RoleUser))
		case models.RoleAssistant:
			var parts []*genai.Part
			if t := msg.Text(); t != "" {
				parts = append(parts, genai.NewPartFromText(t))
			}
			for _, tc := range msg.ToolCalls() {
				var args map[string]any
				_ = json.Unmarshal(tc.Input, &args)
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, args))
			}
			out = append(out, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case models.RoleToolBatch:
			var parts []*genai.Part
			for _, p := range msg.Parts {
				if p.Type != models.PartToolResult || p.ToolResult == nil {
					continue
				}
				tr := p.ToolResult
				parts = append(parts, genai.NewPartFromFunctionResponse(tr.ToolCallID, map[string]any{"output": tr.Text}))
				if tr.ImageB64 != "" {
					if img, err := base64.StdEncoding.DecodeString(tr.ImageB64); err == nil {
						parts = append(parts, genai.NewPartFromBytes(img, tr.MediaType))
					}
				}
			}
			out = append(out, &genai.Content{Role: genai.RoleUser, Parts: parts})
		}
	}
	return out
}

func buildGeminiFunctionDecls(tools []models.ToolDef) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		var schema genai.Schema
		_ = json.Unmarshal(t.InputSchema, &schema)
		out = append(out, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  &schema,
		})
	}
	return out
}
