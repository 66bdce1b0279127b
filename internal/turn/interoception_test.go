package turn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInteroceptionIsPure(t *testing.T) {
	started := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)
	now := time.Date(2026, 7, 30, 8, 30, 0, 0, time.UTC)
	a := interoception(started, 3, now)
	b := interoception(started, 3, now)
	assert.Equal(t, a, b)
}

func TestInteroceptionNeverLeaksIntoVisiblePrefix(t *testing.T) {
	out := interoception(time.Now(), 1, time.Now())
	assert.Contains(t, out, "Private: do not mention")
}

func TestHourBandCoversFullDay(t *testing.T) {
	cases := map[int]string{
		6: "It's morning.", 9: "It's mid-morning.", 12: "It's around noon.",
		15: "It's afternoon.", 18: "It's evening.", 22: "It's late night.",
		2: "It's the deep of night.",
	}
	for hour, want := range cases {
		assert.Equal(t, want, hourBand(hour), "hour %d", hour)
	}
}

func TestFreshnessBandThresholds(t *testing.T) {
	assert.Equal(t, "I just woke up.", freshnessBand(1*time.Minute))
	assert.Equal(t, "I feel settled in.", freshnessBand(30*time.Minute))
	assert.Equal(t, "I feel comfortable, like I've been here a while.", freshnessBand(2*time.Hour))
}

func TestWarmthBandThresholds(t *testing.T) {
	assert.Equal(t, "This conversation is just starting.", warmthBand(1))
	assert.Equal(t, "We've been talking for a bit now.", warmthBand(5))
	assert.Equal(t, "We've built up a good rhythm together.", warmthBand(20))
}
