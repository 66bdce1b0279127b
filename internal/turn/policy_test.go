package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNudgeAfterToolCallNoNudgeBeforeThreshold(t *testing.T) {
	p := &policyState{}
	assert.Empty(t, p.nudgeAfterToolCall("walk"))
}

func TestNudgeAfterToolCallTwoNonSayInARow(t *testing.T) {
	p := &policyState{}
	p.nudgeAfterToolCall("walk")
	nudge := p.nudgeAfterToolCall("look")
	assert.Contains(t, nudge, "call say()")
}

func TestNudgeAfterToolCallSayResetsCounter(t *testing.T) {
	p := &policyState{}
	p.nudgeAfterToolCall("walk")
	p.nudgeAfterToolCall("say")
	nudge := p.nudgeAfterToolCall("walk")
	assert.NotContains(t, nudge, "call say()", "counter should have reset after say()")
	assert.Contains(t, nudge, "already spoke")
}

func TestNudgeAfterToolCallWarnsAfterSayThenMoreTools(t *testing.T) {
	p := &policyState{}
	p.nudgeAfterToolCall("say")
	nudge := p.nudgeAfterToolCall("walk")
	assert.Contains(t, nudge, "already spoke")
}

func TestInterruptNudgeFormatsText(t *testing.T) {
	nudge := interruptNudge("are you there?")
	assert.Contains(t, nudge, "are you there?")
	assert.Contains(t, nudge, "say() now")
}
