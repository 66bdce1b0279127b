// Package scheduler implements the Activity Scheduler (C5): the process
// loop that decides, between turns, whether to wait for the user, act on
// an inner desire, or drain a buffered line of stdin. It owns the single
// *desire.State value in the process and is the only caller of the Turn
// Engine.
package scheduler

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/utenadev/familiar-ai/internal/desire"
	"github.com/utenadev/familiar-ai/internal/i18n"
	"github.com/utenadev/familiar-ai/internal/tools"
	"github.com/utenadev/familiar-ai/pkg/models"
)

// idleCheckInterval is how often the scheduler wakes up to check whether
// a desire has crossed the dominant threshold while it is otherwise idle.
const idleCheckInterval = 10 * time.Second

// desireCooldown is the minimum quiet time since the last user line
// before a desire-driven turn is allowed to fire, so the agent never
// talks over someone mid-conversation.
const desireCooldown = 90 * time.Second

// Engine is the narrow slice of *turn.Engine the scheduler drives.
type Engine interface {
	Turn(ctx context.Context, userText, impulseText string, interrupts <-chan string) (string, error)
	ClearHistory()
}

// Scheduler owns the input queue, the desire clock and the turn loop.
type Scheduler struct {
	engine   Engine
	desires  *desire.State
	registry *tools.Registry
	locale   string
	logger   *slog.Logger

	input    chan string
	lastUser time.Time

	// done is closed when ReadStdin's scan loop exits (EOF or a read
	// error), so Run's select can stop instead of idling forever against
	// a reader that will never produce another line.
	done chan struct{}
}

// New constructs a Scheduler. engine is typically a *turn.Engine, taken
// as the narrow Engine interface so tests can substitute a fake.
func New(engine Engine, desires *desire.State, registry *tools.Registry, locale string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		engine:   engine,
		desires:  desires,
		registry: registry,
		locale:   locale,
		logger:   logger,
		input:    make(chan string, 256),
		lastUser: time.Now(),
		done:     make(chan struct{}),
	}
}

// ReadStdin runs a background reader pumping lines from r onto the input
// queue until r is exhausted or ctx is cancelled. It never blocks the
// caller: the queue is buffered, and a full queue drops the oldest
// pending line rather than stalling the reader. When the scan loop ends
// for any reason, it closes s.done so Run's select stops polling a
// reader that can no longer produce input.
func (s *Scheduler) ReadStdin(ctx context.Context, r io.Reader) {
	defer close(s.done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := scanner.Text()
		s.enqueue(line)
	}
}

func (s *Scheduler) enqueue(line string) {
	select {
	case s.input <- line:
	default:
		select {
		case <-s.input:
		default:
		}
		s.input <- line
	}
}

// Run is the scheduler's main loop. It returns when ctx is cancelled, a
// "/quit" line is drained from the input queue, or ReadStdin's scan loop
// has ended (s.done is closed).
func (s *Scheduler) Run(ctx context.Context) {
	defer func() {
		if err := s.registry.Close(ctx); err != nil {
			s.logger.Warn("scheduler: tool registry close failed", "error", err)
		}
	}()

	for {
		if s.drainPending(ctx) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case line := <-s.input:
			if s.handleLine(ctx, line) {
				return
			}
		case <-time.After(idleCheckInterval):
			s.maybeAct(ctx)
		}
	}
}

// drainPending processes every line already queued before falling
// through to the idle wait, so a burst of typed input is never made to
// wait out a full idleCheckInterval one line at a time. Returns true if
// the caller should stop the scheduler.
func (s *Scheduler) drainPending(ctx context.Context) bool {
	for {
		select {
		case line := <-s.input:
			if s.handleLine(ctx, line) {
				return true
			}
		default:
			return false
		}
	}
}

// handleLine dispatches one line of input: a control command, or a
// user-driven turn. Returns true if the scheduler should stop.
func (s *Scheduler) handleLine(ctx context.Context, line string) bool {
	s.lastUser = time.Now()
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "/quit":
		return true
	case "/clear":
		s.engine.ClearHistory()
		return false
	}
	if trimmed == "" {
		return false
	}

	reply, err := s.engine.Turn(ctx, trimmed, "", s.input)
	if err != nil {
		s.logger.Warn("scheduler: user-driven turn failed", "error", err)
		return false
	}
	s.logger.Info("scheduler: turn complete", "reply", reply)
	return false
}

// maybeAct runs on every idle-check tick: if enough quiet time has passed
// since the last user line and a desire has crossed the dominant
// threshold, it fires a desire-driven turn.
func (s *Scheduler) maybeAct(ctx context.Context) {
	if s.desires == nil {
		return
	}
	if time.Since(s.lastUser) < desireCooldown {
		return
	}

	dominant, ok := s.desires.GetDominant(time.Now())
	if !ok {
		return
	}

	murmur := i18n.T("murmur_"+string(dominant.Name), s.locale)
	// A look_around or explore impulse names the current curiosity target.
	if dominant.Name == models.DesireLookAround || dominant.Name == models.DesireExplore {
		if target := s.desires.CuriosityTarget(); target != "" {
			murmur += " (" + target + ")"
		}
	}

	// A user line may have arrived in the instant between the dominant
	// check and now; fold it into the impulse instead of discarding it
	// or racing a second turn against it.
	var impulse string
	select {
	case line := <-s.input:
		impulse = murmur + " (" + strings.TrimSpace(line) + ")"
	default:
		impulse = murmur
	}

	reply, err := s.engine.Turn(ctx, "", impulse, s.input)
	if err != nil {
		s.logger.Warn("scheduler: desire-driven turn failed", "error", err)
		return
	}
	s.logger.Info("scheduler: desire turn complete", "desire", dominant.Name, "reply", reply)

	s.desires.Satisfy(dominant.Name)
	s.desires.ClearCuriosityTarget()
}
