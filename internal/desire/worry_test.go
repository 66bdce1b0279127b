package desire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectWorryNoSignal(t *testing.T) {
	assert.Zero(t, DetectWorry("let's go look out the window"))
}

func TestDetectWorryStrongKeyword(t *testing.T) {
	assert.InDelta(t, 0.4, DetectWorry("I have a fever today"), 1e-9)
}

func TestDetectWorryWeakKeyword(t *testing.T) {
	assert.InDelta(t, 0.2, DetectWorry("I'm so tired"), 1e-9)
}

func TestDetectWorrySumsAndClamps(t *testing.T) {
	// fever(0.4) + exhausted(0.4) + stressed(0.2) + stress(0.2, matched inside
	// "stressed") + tired(0.2) = 1.4, clamped to 1.0
	assert.InDelta(t, 1.0, DetectWorry("fever, exhausted, stressed and tired"), 1e-9)
}

func TestDetectWorryIsCaseInsensitiveForASCII(t *testing.T) {
	assert.InDelta(t, 0.4, DetectWorry("FEVER all day"), 1e-9)
}

func TestDetectWorryMatchesNonASCIIKeyword(t *testing.T) {
	assert.InDelta(t, 0.4, DetectWorry("今日は熱がある"), 1e-9)
}

func TestDetectWorryIsPureFunction(t *testing.T) {
	a := DetectWorry("stressed")
	b := DetectWorry("stressed")
	assert.Equal(t, a, b)
}
