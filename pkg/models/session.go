package models

import "time"

// AgentSession is the running conversation: its transcript, a monotonic
// turn counter and session-scoped flags. The Turn Engine exclusively
// mutates it; every other component reads it through narrow accessors.
type AgentSession struct {
	Transcript []Message
	TurnCount  int
	StartedAt  time.Time

	MorningReconstructionDone bool
}

// ClearHistory truncates the transcript but preserves the turn counter,
// matching the "clear history" lifecycle operation: it resets the
// conversation, not the agent's sense of how long it has been running.
func (s *AgentSession) ClearHistory() {
	s.Transcript = nil
	s.MorningReconstructionDone = false
}

// Append adds a message to the transcript. Transcripts are append-only
// outside of ClearHistory.
func (s *AgentSession) Append(m Message) {
	s.Transcript = append(s.Transcript, m)
}
