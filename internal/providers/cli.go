package providers

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// CLIBackend is the prompt-tooling fallback that serializes the entire
// conversation to a single prompt and spawns a subprocess, reading stdout
// as the reply. MODEL is a shell command template: the literal "{}"
// token, if present, is replaced with the prompt; otherwise the prompt is
// piped to the process's stdin.
type CLIBackend struct {
	commandTemplate string
	timeout         time.Duration
}

// NewCLIBackend builds a backend around commandTemplate (the MODEL
// env var for PLATFORM=cli).
func NewCLIBackend(commandTemplate string) *CLIBackend {
	return &CLIBackend{commandTemplate: commandTemplate, timeout: 60 * time.Second}
}

func (b *CLIBackend) Name() string { return "cli" }

func (b *CLIBackend) StreamTurn(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error) {
	prompt := buildToolsSystem(strings.TrimSpace(req.System.Stable+"\n\n"+req.System.Variable), req.Tools)
	prompt += "\n\n" + serializeConversation(req.Messages)

	out, err := b.run(ctx, prompt)
	if err != nil {
		return nil, NewError("cli", b.commandTemplate, err)
	}

	calls, visible := parseToolCalls(out)
	if onText != nil && visible != "" {
		onText(visible)
	}
	result := &models.TurnResult{Text: visible, ToolCalls: calls, StopReason: models.StopEndTurn}
	if len(calls) > 0 {
		result.StopReason = models.StopToolUse
	}
	return result, nil
}

func (b *CLIBackend) Complete(ctx context.Context, prompt string, maxTokens int) string {
	out, err := b.run(ctx, prompt)
	if err != nil {
		return ""
	}
	return out
}

func (b *CLIBackend) run(ctx context.Context, prompt string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var cmd *exec.Cmd
	if strings.Contains(b.commandTemplate, "{}") {
		full := strings.ReplaceAll(b.commandTemplate, "{}", shellQuote(prompt))
		cmd = exec.CommandContext(runCtx, "sh", "-c", full)
	} else {
		cmd = exec.CommandContext(runCtx, "sh", "-c", b.commandTemplate)
		cmd.Stdin = strings.NewReader(prompt)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// serializeConversation flattens the transcript to plain text turns, the
// shape a shell-command model expects on stdin.
func serializeConversation(messages []models.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString("User: " + msg.Text() + "\n")
		case models.RoleAssistant:
			b.WriteString("Assistant: " + msg.Text() + "\n")
		case models.RoleToolBatch:
			for _, p := range msg.Parts {
				if p.Type == models.PartToolResult && p.ToolResult != nil {
					b.WriteString("[Tool result]: " + p.ToolResult.Text + "\n")
				}
			}
		}
	}
	return b.String()
}
