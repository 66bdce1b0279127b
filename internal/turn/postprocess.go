package turn

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"

	"github.com/utenadev/familiar-ai/internal/desire"
	"github.com/utenadev/familiar-ai/internal/i18n"
	"github.com/utenadev/familiar-ai/internal/memory"
	"github.com/utenadev/familiar-ai/pkg/models"
)

// thumbnailMaxWidth and thumbnailMaxHeight bound the stored copy of a
// see() capture: full frames are for the model's eyes this turn only,
// the memory record keeps a small reminder, not a photo archive.
const (
	thumbnailMaxWidth  = 320
	thumbnailMaxHeight = 260
)

// maxObservationLength truncates a see()-triggered observation before it
// is saved as a memory.
const maxObservationLength = 500

// maxCuriosityLength bounds the length of a curiosity extraction; an
// extraction longer than this reads as a full thought rather than a
// single open question and is rejected.
const maxCuriosityLength = 100

// postprocessInput carries everything the post-processing pipeline needs
// about the turn that just ended.
type postprocessInput struct {
	UserDriven bool
	SawCall    bool   // a see() tool call happened this turn
	CameraUsed bool   // see() or look() happened this turn
	UserText   string // the triggering user message, if UserDriven
	ReplyText  string // the final spoken (or would-be-spoken) text

	// CapturedImageB64/CapturedMediaType are the last see() frame this
	// turn, if any; a thumbnail of it rides along with the observation
	// memory so a later recall has more than just text to go on.
	CapturedImageB64  string
	CapturedMediaType string
}

// postprocess runs the fixed sequence of side effects that follow a
// completed turn: saving an observation memory if see() fired, a rough
// emotion classification, a conversation-summary memory, an optional
// self-model insight, an optional curiosity extraction, and worry-signal
// detection on user-driven turns. Every step is best-effort: a failure or
// an empty backend reply skips that step without aborting the others.
func postprocess(ctx context.Context, backend backendCompleter, store *memory.Store, desires *desire.State, in postprocessInput) {
	emotion := classifyEmotion(ctx, backend, in.ReplyText)

	if in.SawCall && store != nil {
		content := truncate(in.ReplyText, maxObservationLength)
		if content != "" {
			thumb := thumbnail(in.CapturedImageB64)
			_, _ = store.Save(ctx, content, "observed", models.KindObservation, emotion, "", thumb)
		}
	}

	if store != nil {
		summary := conversationSummary(in.UserText, in.ReplyText)
		if summary != "" {
			_, _ = store.Save(ctx, summary, "exchange", models.KindConversation, emotion, "", "")
		}
	}

	if emotion != models.EmotionNeutral && insightWorthy(in.ReplyText) {
		if insight := selfModelInsight(ctx, backend, in.ReplyText, emotion); insight != "" && store != nil {
			_, _ = store.Save(ctx, insight, "", models.KindSelfModel, emotion, "", "")
		}
	}

	if in.CameraUsed {
		if curiosity := extractCuriosity(ctx, backend, in.ReplyText); curiosity != "" {
			if desires != nil {
				desires.SetCuriosityTarget(curiosity)
				desires.Boost(models.DesireLookAround, 0.3)
			}
			if store != nil {
				_, _ = store.Save(ctx, curiosity, "", models.KindCuriosity, models.EmotionCurious, "", "")
			}
		}
	}

	if in.UserDriven && desires != nil {
		if score := desire.DetectWorry(in.UserText); score > 0 {
			desires.Boost(models.DesireWorryCompanion, score)
		}
	}
}

// backendCompleter is the narrow slice of providers.Backend the
// post-processing pipeline needs; a one-method interface lets tests fake
// it without constructing a real Backend.
type backendCompleter interface {
	Complete(ctx context.Context, prompt string, maxTokens int) string
}

func classifyEmotion(ctx context.Context, backend backendCompleter, text string) models.Emotion {
	if strings.TrimSpace(text) == "" {
		return models.EmotionNeutral
	}
	prompt := fmt.Sprintf(
		"Classify the emotional tone of this text in exactly one word (neutral, happy, sad, curious, excited or moved): %q",
		truncate(text, 300),
	)
	reply := strings.ToLower(strings.TrimSpace(backend.Complete(ctx, prompt, 10)))
	return models.NormalizeEmotion(firstWord(reply))
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!?\"'")
}

func conversationSummary(userText, replyText string) string {
	userText = strings.TrimSpace(userText)
	replyText = strings.TrimSpace(replyText)
	switch {
	case userText == "" && replyText == "":
		return ""
	case userText == "":
		return "Said: " + truncate(replyText, maxObservationLength)
	case replyText == "":
		return "Heard: " + truncate(userText, maxObservationLength)
	default:
		return fmt.Sprintf("Heard %q, said %q.", truncate(userText, 200), truncate(replyText, 200))
	}
}

// insightWorthy filters out replies too thin to justify asking the
// backend for a self-model insight: empty, or a bare "nothing".
func insightWorthy(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return false
	}
	return !strings.EqualFold(trimmed, "nothing")
}

func selfModelInsight(ctx context.Context, backend backendCompleter, reply string, emotion models.Emotion) string {
	prompt := fmt.Sprintf(
		"You just said this, feeling %s: %q\nIn one short sentence, what does this reveal about who you are? Reply with the sentence only, or \"nothing\" if there is no real insight.",
		emotion, truncate(reply, 300),
	)
	out := strings.TrimSpace(backend.Complete(ctx, prompt, 60))
	if out == "" || strings.EqualFold(out, "nothing") {
		return ""
	}
	return out
}

// extractCuriosity asks the backend whether this turn's exploration
// leaves behind an open question worth following up on later. Rejects
// empty answers, the locale's "none" word in any language, and answers
// too long to be a single open question.
func extractCuriosity(ctx context.Context, backend backendCompleter, reply string) string {
	prompt := fmt.Sprintf(
		"Based on what you just observed and said (%q), is there one specific thing you're curious to look into further? Reply with that single thing in one short phrase, or \"none\".",
		truncate(reply, 300),
	)
	out := strings.TrimSpace(backend.Complete(ctx, prompt, 40))
	if out == "" {
		return ""
	}
	if i18n.IsNoneWord(out) {
		return ""
	}
	if len([]rune(out)) > maxCuriosityLength {
		return ""
	}
	return out
}

// thumbnail decodes a base64 JPEG capture and scales it down to fit
// within thumbnailMaxWidth x thumbnailMaxHeight, returning a fresh
// base64 JPEG. Any failure (bad base64, bad JPEG, zero-size source)
// returns "" rather than propagating an error: a missing thumbnail just
// means the memory is text-only.
func thumbnail(b64 string) string {
	if b64 == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return ""
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return ""
	}
	scale := 1.0
	if w > thumbnailMaxWidth {
		scale = float64(thumbnailMaxWidth) / float64(w)
	}
	if h2 := float64(h) * scale; h2 > thumbnailMaxHeight {
		scale = thumbnailMaxHeight / float64(h)
	}
	dstW, dstH := int(float64(w)*scale), int(float64(h)*scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
