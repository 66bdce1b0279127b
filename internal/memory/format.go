package memory

import (
	"fmt"
	"strings"

	"github.com/utenadev/familiar-ai/internal/i18n"
	"github.com/utenadev/familiar-ai/pkg/models"
)

// FormatForContext renders records as a locale header followed by one
// bullet per record, with a similarity score appended when the record
// came from the vector recall tier.
func FormatForContext(records []models.MemoryRecord, locale string) string {
	return formatBlock(records, locale, "memory_header")
}

// FormatFeelingsForContext renders feeling/conversation records.
func FormatFeelingsForContext(records []models.MemoryRecord, locale string) string {
	return formatBlock(records, locale, "feelings_header")
}

// FormatSelfModelForContext renders self_model records.
func FormatSelfModelForContext(records []models.MemoryRecord, locale string) string {
	return formatBlock(records, locale, "self_model_header")
}

// FormatCuriositiesForContext renders curiosity records.
func FormatCuriositiesForContext(records []models.MemoryRecord, locale string) string {
	return formatBlock(records, locale, "curiosities_header")
}

func formatBlock(records []models.MemoryRecord, locale, headerKey string) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(i18n.T(headerKey, locale))
	for _, r := range records {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf("- %s %s [%s]: %s", r.Date, r.Time, r.Emotion, r.Content))
		if r.Scored {
			b.WriteString(fmt.Sprintf(" (%.2f)", r.Score))
		}
	}
	return b.String()
}
