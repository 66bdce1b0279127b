package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utenadev/familiar-ai/pkg/models"
)

func TestFormatForContextEmpty(t *testing.T) {
	assert.Empty(t, FormatForContext(nil, "en"))
}

func TestFormatForContextRendersHeaderAndBullets(t *testing.T) {
	out := FormatForContext([]models.MemoryRecord{
		{Date: "2026-07-29", Time: "09:00", Emotion: models.EmotionCurious, Content: "the window was open"},
	}, "en")
	assert.Contains(t, out, "Relevant memories:")
	assert.Contains(t, out, "2026-07-29 09:00 [curious]: the window was open")
}

func TestFormatForContextAppendsScoreWhenScored(t *testing.T) {
	out := FormatForContext([]models.MemoryRecord{
		{Date: "2026-07-29", Time: "09:00", Emotion: models.EmotionNeutral, Content: "hello", Score: 0.812, Scored: true},
	}, "en")
	assert.Contains(t, out, "(0.81)")
}

func TestFormatForContextOmitsScoreWhenFallbackTier(t *testing.T) {
	out := FormatForContext([]models.MemoryRecord{
		{Date: "2026-07-29", Time: "09:00", Emotion: models.EmotionNeutral, Content: "hello"},
	}, "en")
	assert.NotContains(t, out, "(")
}

func TestFormatFeelingsForContextUsesFeelingsHeader(t *testing.T) {
	out := FormatFeelingsForContext([]models.MemoryRecord{
		{Date: "2026-07-29", Time: "09:00", Emotion: models.EmotionHappy, Content: "good morning"},
	}, "ja")
	assert.Contains(t, out, "最近の気持ち:")
}

func TestFormatSelfModelAndCuriositiesUseDistinctHeaders(t *testing.T) {
	record := []models.MemoryRecord{{Date: "2026-07-29", Time: "09:00", Emotion: models.EmotionNeutral, Content: "x"}}
	self := FormatSelfModelForContext(record, "en")
	curious := FormatCuriositiesForContext(record, "en")
	assert.Contains(t, self, "What I've learned about myself:")
	assert.Contains(t, curious, "Unresolved curiosities:")
}
