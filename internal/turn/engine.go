// Package turn implements the Turn Engine (C4): the single place where a
// user message or an inner impulse becomes a system prompt, a sequence of
// tool calls, and finally a spoken reply. Everything it does per turn is
// bounded and logged, and a failure at any optional step (a plan, a
// self-model insight, a curiosity extraction) degrades to "skip it", never
// to aborting the turn.
package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utenadev/familiar-ai/internal/desire"
	"github.com/utenadev/familiar-ai/internal/i18n"
	"github.com/utenadev/familiar-ai/internal/memory"
	"github.com/utenadev/familiar-ai/internal/providers"
	"github.com/utenadev/familiar-ai/internal/tools"
	"github.com/utenadev/familiar-ai/pkg/models"
)

// maxToolIterations bounds how many tool-use rounds a single turn may
// take before the engine forces a summary and ends the turn regardless.
const maxToolIterations = 50

// morningRecallCount is how many self-model, curiosity and feelings
// records the once-per-session morning reconstruction asks for.
const morningRecallCount = 5

// memoryRecallCount and feelingsRecallCount are how many records the
// per-turn prefetch asks for: top-3 semantically similar memories,
// concatenated onto the user's message, and the 4 most recent feelings,
// placed in the system prompt's variable section.
const (
	memoryRecallCount   = 3
	feelingsRecallCount = 4
)

// Engine drives one agent's turns against its backend, tool registry,
// memory store and desire state. One Engine per running agent process.
type Engine struct {
	Backend  providers.Backend
	Registry *tools.Registry
	Store    *memory.Store
	Desires  *desire.State
	Session  *models.AgentSession
	// Personality returns the current personality-file text. An empty
	// return means "no personality text this turn" rather than an error;
	// callers needing a fixed string can pass a closure that always
	// returns it. Turn calls it unconditionally, so it must be non-nil;
	// NewEngine substitutes an empty-text func for a nil one.
	Personality func() string
	Locale      string
	MaxTokens   int
	Logger      *slog.Logger

	sayCalled bool
}

// NewEngine constructs an Engine; a nil Logger falls back to slog.Default
// and a nil personality reads as "no personality text".
func NewEngine(backend providers.Backend, registry *tools.Registry, store *memory.Store, desires *desire.State, session *models.AgentSession, personality func() string, locale string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if personality == nil {
		personality = func() string { return "" }
	}
	return &Engine{
		Backend:     backend,
		Registry:    registry,
		Store:       store,
		Desires:     desires,
		Session:     session,
		Personality: personality,
		Locale:      locale,
		MaxTokens:   1024,
		Logger:      logger,
	}
}

// ClearHistory resets the session's transcript, for the "/clear" command.
func (e *Engine) ClearHistory() {
	e.Session.ClearHistory()
}

// Turn runs one full turn. userText is the triggering message for a
// user-driven turn, empty for a desire-driven one; impulseText is the
// inner-drive prompt for a desire-driven turn, empty otherwise.
// interrupts delivers any user messages that arrive mid-turn so they can
// be folded in rather than silently dropped or started as a second turn.
func (e *Engine) Turn(ctx context.Context, userText, impulseText string, interrupts <-chan string) (string, error) {
	e.Session.TurnCount++
	e.sayCalled = false
	desireMode := userText == "" && impulseText != ""

	now := time.Now()
	// systemContextBlock is the variable system-prompt section: the
	// morning-reconstruction block on turn 1, or the feelings block on
	// every later non-desire turn. Recalled memories are handled
	// separately below: they are folded into the user's message itself,
	// not the system prompt, since the system prompt is not part of what
	// persists in the transcript for every backend.
	systemContextBlock := ""
	recalledMemories := ""
	planBlock := ""

	if e.Session.TurnCount == 1 && !e.Session.MorningReconstructionDone {
		systemContextBlock = e.morningReconstruction(ctx)
		e.Session.MorningReconstructionDone = true
	} else if !desireMode {
		recalledMemories, systemContextBlock = e.prefetch(ctx, userText)
	}

	if !desireMode {
		planBlock = generatePlan(ctx, e.Backend, userText)
	}

	if userText != "" {
		textWithContext := userText
		if recalledMemories != "" {
			textWithContext = userText + "\n\n" + recalledMemories
		}
		e.Session.Append(models.Message{
			Role:      models.RoleUser,
			Parts:     []models.Part{{Type: models.PartText, Text: textWithContext}},
			CreatedAt: now,
		})
	}

	policy := &policyState{}
	sawSee, cameraUsed := false, false
	var lastImageB64, lastMediaType string
	var finalText string

	for i := 0; i < maxToolIterations; i++ {
		system := buildSystem(e.Personality(), e.Session.StartedAt, e.Session.TurnCount, time.Now(), systemContextBlock, impulseText, planBlock)
		result, err := e.Backend.StreamTurn(ctx, providers.StreamTurnRequest{
			System:    system,
			Messages:  e.Session.Transcript,
			Tools:     e.Registry.List(),
			MaxTokens: e.effectiveMaxTokens(),
		}, nil)
		if err != nil {
			return "", fmt.Errorf("turn: backend stream failed: %w", err)
		}

		e.appendAssistant(result, time.Now())

		if result.StopReason == models.StopEndTurn {
			finalText = result.Text
			break
		}

		results := make([]models.Part, 0, len(result.ToolCalls))
		var nudge string
		for _, call := range result.ToolCalls {
			if call.Name == "see" {
				sawSee = true
			}
			if call.Name == "see" || call.Name == "look" {
				cameraUsed = true
			}
			if call.Name == "say" {
				e.sayCalled = true
			}

			toolResult := e.Registry.Dispatch(ctx, call.Name, call.Input)
			if call.Name == "see" && toolResult.ImageB64 != "" {
				lastImageB64, lastMediaType = toolResult.ImageB64, toolResult.MediaType
			}
			// Whether the plan is blocked is a judgment call for the
			// backend, not a function of whether the tool call itself
			// errored: a successful call can still contradict the plan,
			// and an error can be expected and harmless.
			if planBlock != "" && checkPlanBlocked(ctx, e.Backend, planBlock, call.Name, string(call.Input), toolResult.Text) {
				if suggestion := generateReplan(ctx, e.Backend, planBlock, call.Name, string(call.Input), toolResult.Text); suggestion != "" {
					toolResult.Text += "\n\n[ADAPTIVE REPLAN] " + suggestion
				}
			}

			n := policy.nudgeAfterToolCall(call.Name)
			if n != "" {
				nudge = n
			}

			toolResult.ToolCallID = call.ID
			results = append(results, models.Part{Type: models.PartToolResult, ToolResult: &toolResult})
		}

		e.Session.Append(models.Message{Role: models.RoleToolBatch, Parts: results, CreatedAt: time.Now()})

		// An interrupt takes priority over a policy nudge: both are
		// delivered as a user message so the model treats them as
		// something to act on, not just more tool-result context, but
		// only one can go out before the next backend call.
		var interrupted bool
		select {
		case interruptText := <-interrupts:
			if interruptText != "" {
				e.Session.Append(models.Message{
					Role:      models.RoleUser,
					Parts:     []models.Part{{Type: models.PartText, Text: interruptNudge(interruptText)}},
					CreatedAt: time.Now(),
				})
				interrupted = true
			}
		default:
		}
		if !interrupted && nudge != "" {
			e.Session.Append(models.Message{
				Role:      models.RoleUser,
				Parts:     []models.Part{{Type: models.PartText, Text: nudge}},
				CreatedAt: time.Now(),
			})
		}
	}

	if finalText == "" {
		finalText = e.forceSummary(ctx)
	}

	if finalText != "" && !e.sayCalled {
		e.autoSay(ctx, finalText)
	}

	postprocess(ctx, e.Backend, e.Store, e.Desires, postprocessInput{
		UserDriven:        userText != "",
		SawCall:           sawSee,
		CameraUsed:        cameraUsed,
		UserText:          userText,
		ReplyText:         finalText,
		CapturedImageB64:  lastImageB64,
		CapturedMediaType: lastMediaType,
	})

	return finalText, nil
}

// appendAssistant records the backend's reply (text and/or tool calls) as
// one assistant message, preserving the provider-native RawAssistant for
// backends that reconstruct history from it.
func (e *Engine) appendAssistant(result *models.TurnResult, now time.Time) {
	var parts []models.Part
	if result.Text != "" {
		parts = append(parts, models.Part{Type: models.PartText, Text: result.Text})
	}
	for _, tc := range result.ToolCalls {
		tc := tc
		parts = append(parts, models.Part{Type: models.PartToolCall, ToolCall: &tc})
	}
	e.Session.Append(models.Message{
		Role:      models.RoleAssistant,
		Parts:     parts,
		Raw:       result.RawAssistant,
		CreatedAt: now,
	})
}

// forceSummary is reached when maxToolIterations is exhausted without an
// end_turn: it asks once more, with tools disabled, for a plain-text
// summary of whatever was learned so far.
func (e *Engine) forceSummary(ctx context.Context) string {
	e.Session.Append(models.Message{
		Role:      models.RoleUser,
		Parts:     []models.Part{{Type: models.PartText, Text: "Please summarize and provide a final answer now."}},
		CreatedAt: time.Now(),
	})
	system := buildSystem(e.Personality(), e.Session.StartedAt, e.Session.TurnCount, time.Now(), "", "", "")
	result, err := e.Backend.StreamTurn(ctx, providers.StreamTurnRequest{
		System:    system,
		Messages:  e.Session.Transcript,
		MaxTokens: e.effectiveMaxTokens(),
	}, nil)
	if err != nil || result == nil {
		e.Logger.Warn("turn: forced summary failed", "error", err)
		return ""
	}
	e.appendAssistant(result, time.Now())
	return result.Text
}

// autoSay invokes the say tool directly when the model produced text but
// never spoke it, so a turn never silently ends with something unsaid.
func (e *Engine) autoSay(ctx context.Context, text string) {
	spoken := truncate(text, 150)
	input, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: spoken})
	if err != nil {
		return
	}
	result := e.Registry.Dispatch(ctx, "say", input)
	if result.IsError {
		e.Logger.Warn("turn: auto-say failed", "detail", result.Text)
		return
	}
	e.sayCalled = true
}

func (e *Engine) effectiveMaxTokens() int {
	if e.MaxTokens <= 0 {
		return 1024
	}
	return e.MaxTokens
}

// morningReconstruction runs once per session, on the very first turn: it
// fetches the self-model, curiosities and recent feelings concurrently and
// renders them as the opening memory block, or the first-session marker
// if nothing has ever been stored.
func (e *Engine) morningReconstruction(ctx context.Context) string {
	if e.Store == nil {
		return firstSessionMarker(e.Locale)
	}

	var selfModel, curiosities, feelings []models.MemoryRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := e.Store.RecallSelfModel(gctx, morningRecallCount)
		if err != nil {
			e.Logger.Warn("turn: self-model recall failed", "error", err)
			return nil
		}
		selfModel = records
		return nil
	})
	g.Go(func() error {
		records, err := e.Store.RecallCuriosities(gctx, morningRecallCount)
		if err != nil {
			e.Logger.Warn("turn: curiosities recall failed", "error", err)
			return nil
		}
		curiosities = records
		return nil
	})
	g.Go(func() error {
		records, err := e.Store.RecentFeelings(gctx, morningRecallCount)
		if err != nil {
			e.Logger.Warn("turn: feelings recall failed", "error", err)
			return nil
		}
		feelings = records
		return nil
	})
	_ = g.Wait()

	if len(selfModel) == 0 && len(curiosities) == 0 && len(feelings) == 0 {
		return firstSessionMarker(e.Locale)
	}

	if target := firstCuriosityTarget(curiosities); target != "" && e.Desires != nil && e.Desires.CuriosityTarget() == "" {
		e.Desires.SetCuriosityTarget(target)
	}

	var b strings.Builder
	b.WriteString(morningHeader(e.Locale))
	for _, block := range []string{
		memory.FormatSelfModelForContext(selfModel, e.Locale),
		memory.FormatCuriositiesForContext(curiosities, e.Locale),
		memory.FormatFeelingsForContext(feelings, e.Locale),
	} {
		if block != "" {
			b.WriteString("\n\n")
			b.WriteString(block)
		}
	}
	return b.String()
}

// prefetch runs on every non-desire, non-first turn: semantic recall of
// the top memoryRecallCount memories against the user's message, plus the
// feelingsRecallCount most recent feelings, fetched concurrently since
// neither depends on the other. memBlock is meant to be concatenated onto
// the user's message; feelBlock is meant for the system prompt's variable
// section.
func (e *Engine) prefetch(ctx context.Context, userText string) (memBlock, feelBlock string) {
	if e.Store == nil || strings.TrimSpace(userText) == "" {
		return "", ""
	}

	var recalled, feelings []models.MemoryRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := e.Store.Recall(gctx, userText, memoryRecallCount, "")
		if err != nil {
			e.Logger.Warn("turn: memory recall failed", "error", err)
			return nil
		}
		recalled = records
		return nil
	})
	g.Go(func() error {
		records, err := e.Store.RecentFeelings(gctx, feelingsRecallCount)
		if err != nil {
			e.Logger.Warn("turn: feelings recall failed", "error", err)
			return nil
		}
		feelings = records
		return nil
	})
	_ = g.Wait()

	return memory.FormatForContext(recalled, e.Locale), memory.FormatFeelingsForContext(feelings, e.Locale)
}

func firstSessionMarker(locale string) string {
	return i18n.T("first_session_marker", locale)
}

func morningHeader(locale string) string {
	return i18n.T("morning_header", locale)
}

func firstCuriosityTarget(records []models.MemoryRecord) string {
	if len(records) == 0 {
		return ""
	}
	return records[0].Content
}
