package desire

import "strings"

// strongWorryKeywords contribute 0.4 each to the worry score: sleep
// deprivation, fever and exhaustion read as acute physical distress.
var strongWorryKeywords = []string{
	"寝不足", "sleep deprivation", "didn't sleep", "couldn't sleep",
	"fever", "熱", "高熱", "exhausted", "exhaustion",
}

// weakWorryKeywords contribute 0.2 each: general fatigue or stress,
// worth noting but not urgent on their own.
var weakWorryKeywords = []string{
	"しんどい", "tired", "疲れ", "stressed", "stress", "辛い",
}

// DetectWorry is a pure function of s: the sum of every matched
// strong/weak keyword's weight, clamped to [0,1]. It never touches
// process state, satisfying the "detect_worry(s) depends only on s" law.
func DetectWorry(s string) float64 {
	lower := strings.ToLower(s)
	var score float64
	for _, kw := range strongWorryKeywords {
		if containsKeyword(s, lower, kw) {
			score += 0.4
		}
	}
	for _, kw := range weakWorryKeywords {
		if containsKeyword(s, lower, kw) {
			score += 0.2
		}
	}
	return clamp(score)
}

// containsKeyword matches kw against both the original string (for
// non-ASCII keywords, where case-folding is a no-op anyway) and the
// lowercased string (for ASCII keywords typed in any case).
func containsKeyword(original, lower, kw string) bool {
	if isASCII(kw) {
		return strings.Contains(lower, strings.ToLower(kw))
	}
	return strings.Contains(original, kw)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
