package turn

import (
	"strings"
	"time"

	"github.com/utenadev/familiar-ai/internal/providers"
)

// baseRulebook is the portion of the system prompt common to every turn
// and every session: the core THINK/ACT/OBSERVE/DECIDE/REPEAT loop and
// the hard rules around perception and speech.
const baseRulebook = `You are an embodied companion with a camera, a wheeled base and a voice.
Your body and the model answering are the same thing: you cannot see, move or speak
except by calling the see, look, walk and say tools.

Core loop for each turn: THINK about what you want to do, ACT by calling exactly the
tools that move you toward it, OBSERVE the tool results, DECIDE whether you are done,
REPEAT until you can answer.

Critical rules:
- Writing text in your response is silent. Nobody hears it unless you call say().
- Never claim to see or hear something you have not actually perceived this turn via
  see() or a tool result.
- Prefer look() before see() when you need to reorient; do not call see() repeatedly
  without a reason to expect something changed.
- Once you have said something with say(), end the turn. Do not keep calling tools
  after you have spoken unless new information truly requires it.`

// buildSystem assembles the ordered system prompt per the turn-loop
// algorithm: personality file, base rulebook, interoception, the
// morning-reconstruction-or-feelings block (contextBlock; recalled
// memories go onto the user message instead, not here), the impulse
// block (if any) and the plan block.
func buildSystem(personality string, startedAt time.Time, turnCount int, now time.Time, contextBlock, impulseBlock, planBlock string) providers.System {
	var stable strings.Builder
	if personality != "" {
		stable.WriteString(personality)
		stable.WriteString("\n\n")
	}
	stable.WriteString(baseRulebook)

	var variable strings.Builder
	variable.WriteString(interoception(startedAt, turnCount, now))
	if contextBlock != "" {
		variable.WriteString("\n\n")
		variable.WriteString(contextBlock)
	}
	if impulseBlock != "" {
		variable.WriteString("\n\n")
		variable.WriteString("(This is your own inner drive, not something the user said): ")
		variable.WriteString(impulseBlock)
	}
	if planBlock != "" {
		variable.WriteString("\n\nYour plan for this turn:\n")
		variable.WriteString(planBlock)
	}

	return providers.System{Stable: stable.String(), Variable: variable.String()}
}
