package turn

import "fmt"

// policyState tracks the within-turn counters the nudge rules consult.
// It is reset fresh at the start of every Turn call.
type policyState struct {
	consecutiveNonSay int
	spokeAlready      bool
}

// nudgeAfterToolCall returns a guidance line to append as a user message
// after the tool-result batch, or "" if no nudge applies this round.
// Rules, in priority order:
//  1. two or more non-say tool calls in a row — remind it that nothing
//     it writes is heard until say() is called.
//  2. the model has already called say() once and is calling another
//     tool anyway — remind it the turn should be wrapping up.
//
// Either nudge resets the non-say counter.
func (p *policyState) nudgeAfterToolCall(toolName string) string {
	if toolName == "say" {
		p.spokeAlready = true
		p.consecutiveNonSay = 0
		return ""
	}

	p.consecutiveNonSay++
	if p.consecutiveNonSay >= 2 {
		p.consecutiveNonSay = 0
		return "(Reminder: none of this is heard by anyone until you call say(). If you have something to communicate, call say() now.)"
	}
	if p.spokeAlready {
		p.consecutiveNonSay = 0
		return "(Reminder: you already spoke with say() this turn. Only keep acting if you truly need to; otherwise end the turn.)"
	}
	return ""
}

// interruptNudge formats a freshly-arrived interrupt so the model treats
// it as something to respond to immediately, not just more context.
func interruptNudge(text string) string {
	return fmt.Sprintf("[User interrupted]: %s. Respond directly with say() now.", text)
}
