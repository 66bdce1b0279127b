package turn

import (
	"fmt"
	"time"
)

// interoception is a pure function of (session start, turn count, wall
// clock) producing the "how I feel right now" paragraph injected
// privately into every turn's system prompt. It never appears in
// visible output.
func interoception(startedAt time.Time, turnCount int, now time.Time) string {
	hourDescriptor := hourBand(now.Hour())
	freshness := freshnessBand(now.Sub(startedAt))
	warmth := warmthBand(turnCount)

	return fmt.Sprintf(
		"(Private: do not mention these sensations directly, just let them color your tone.) %s %s %s",
		hourDescriptor, freshness, warmth,
	)
}

func hourBand(hour int) string {
	switch {
	case hour >= 5 && hour < 8:
		return "It's morning."
	case hour >= 8 && hour < 11:
		return "It's mid-morning."
	case hour >= 11 && hour < 13:
		return "It's around noon."
	case hour >= 13 && hour < 17:
		return "It's afternoon."
	case hour >= 17 && hour < 21:
		return "It's evening."
	case hour >= 21 || hour < 1:
		return "It's late night."
	default:
		return "It's the deep of night."
	}
}

func freshnessBand(uptime time.Duration) string {
	minutes := uptime.Minutes()
	switch {
	case minutes < 5:
		return "I just woke up."
	case minutes < 60:
		return "I feel settled in."
	default:
		return "I feel comfortable, like I've been here a while."
	}
}

func warmthBand(turnCount int) string {
	switch {
	case turnCount <= 2:
		return "This conversation is just starting."
	case turnCount <= 10:
		return "We've been talking for a bit now."
	default:
		return "We've built up a good rhythm together."
	}
}
