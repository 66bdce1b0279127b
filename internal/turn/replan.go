package turn

import (
	"context"
	"fmt"
	"strings"

	"github.com/utenadev/familiar-ai/internal/providers"
)

// checkPlanBlocked asks the backend a forced-choice question: does this
// tool result contradict the plan? Any backend failure (empty reply)
// reads as "not blocked" — the loop continues rather than stalling on an
// unreliable judgment call.
func checkPlanBlocked(ctx context.Context, backend providers.Backend, plan, toolName, toolArgs, toolResult string) bool {
	prompt := fmt.Sprintf(
		"Plan: %s\nTool called: %s\nArguments: %s\nResult: %s\n\nDoes this result mean the plan is blocked? Reply with exactly one word: \"blocked\" or \"ok\".",
		truncate(plan, 300), toolName, truncate(toolArgs, 300), truncate(toolResult, 300),
	)
	reply := strings.ToLower(strings.TrimSpace(backend.Complete(ctx, prompt, 10)))
	return strings.Contains(reply, "blocked")
}

// generateReplan asks for a one-sentence revised next step. An empty or
// failed reply means no annotation is added.
func generateReplan(ctx context.Context, backend providers.Backend, plan, toolName, toolArgs, toolResult string) string {
	prompt := fmt.Sprintf(
		"Plan: %s\nTool called: %s\nArguments: %s\nResult: %s\n\nThe plan seems blocked. Suggest a revised next step in one sentence.",
		truncate(plan, 300), toolName, truncate(toolArgs, 300), truncate(toolResult, 300),
	)
	return strings.TrimSpace(backend.Complete(ctx, prompt, 60))
}

// generatePlan produces a short numbered action plan mentioning tool
// names. An empty result on failure leaves the PlanContext inactive.
func generatePlan(ctx context.Context, backend providers.Backend, userText string) string {
	prompt := fmt.Sprintf(
		"In 2 to 4 numbered steps, sketch a plan to respond to: %q. Name the tools you expect to use (see, look, walk, say, remember, recall).",
		truncate(userText, 300),
	)
	return strings.TrimSpace(backend.Complete(ctx, prompt, 120))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
