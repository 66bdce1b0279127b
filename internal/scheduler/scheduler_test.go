package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utenadev/familiar-ai/internal/desire"
	"github.com/utenadev/familiar-ai/internal/tools"
	"github.com/utenadev/familiar-ai/pkg/models"
)

type fakeEngine struct {
	turns     []turnCall
	cleared   bool
	replyText string
}

type turnCall struct {
	userText, impulseText string
}

func (f *fakeEngine) Turn(_ context.Context, userText, impulseText string, _ <-chan string) (string, error) {
	f.turns = append(f.turns, turnCall{userText, impulseText})
	return f.replyText, nil
}

func (f *fakeEngine) ClearHistory() { f.cleared = true }

func newTestScheduler(t *testing.T, engine Engine) *Scheduler {
	t.Helper()
	return New(engine, desire.Load("", nil), tools.NewRegistry(nil), "en", nil)
}

func TestHandleLineQuitStopsScheduler(t *testing.T) {
	s := newTestScheduler(t, &fakeEngine{})
	assert.True(t, s.handleLine(context.Background(), "/quit"))
}

func TestHandleLineClearDelegatesToEngine(t *testing.T) {
	fe := &fakeEngine{}
	s := newTestScheduler(t, fe)
	assert.False(t, s.handleLine(context.Background(), "/clear"))
	assert.True(t, fe.cleared)
}

func TestHandleLineEmptyLineIsNoOp(t *testing.T) {
	fe := &fakeEngine{}
	s := newTestScheduler(t, fe)
	assert.False(t, s.handleLine(context.Background(), "   "))
	assert.Empty(t, fe.turns)
}

func TestHandleLineRunsUserDrivenTurn(t *testing.T) {
	fe := &fakeEngine{replyText: "hi there"}
	s := newTestScheduler(t, fe)
	assert.False(t, s.handleLine(context.Background(), "hello"))
	require.Len(t, fe.turns, 1)
	assert.Equal(t, "hello", fe.turns[0].userText)
	assert.Empty(t, fe.turns[0].impulseText)
}

func TestMaybeActSkipsWithinCooldown(t *testing.T) {
	fe := &fakeEngine{}
	s := newTestScheduler(t, fe)
	s.lastUser = time.Now()
	s.desires.Boost(models.DesireExplore, 0.9)
	s.maybeAct(context.Background())
	assert.Empty(t, fe.turns, "should not act while within the cooldown window")
}

func TestMaybeActFiresDesireTurnAfterCooldown(t *testing.T) {
	fe := &fakeEngine{replyText: "hm"}
	s := newTestScheduler(t, fe)
	s.lastUser = time.Now().Add(-2 * desireCooldown)
	s.desires.Boost(models.DesireExplore, 0.9)

	s.maybeAct(context.Background())

	require.Len(t, fe.turns, 1)
	assert.Empty(t, fe.turns[0].userText)
	assert.Contains(t, fe.turns[0].impulseText, "explore")
	assert.InDelta(t, desire.Load("", nil).Level(models.DesireExplore), s.desires.Level(models.DesireExplore), 1e-9,
		"Satisfy should have reset explore back to its default level")
}

func TestMaybeActFoldsLateArrivingUserLine(t *testing.T) {
	fe := &fakeEngine{replyText: "ok"}
	s := newTestScheduler(t, fe)
	s.lastUser = time.Now().Add(-2 * desireCooldown)
	s.desires.Boost(models.DesireExplore, 0.9)
	s.input <- "wait, look at this"

	s.maybeAct(context.Background())

	require.Len(t, fe.turns, 1)
	assert.True(t, strings.Contains(fe.turns[0].impulseText, "wait, look at this"))
}

func TestRunStopsWhenStdinReaderExhausted(t *testing.T) {
	fe := &fakeEngine{}
	s := newTestScheduler(t, fe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.ReadStdin(ctx, strings.NewReader("hello\n"))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the stdin reader reached EOF")
	}
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	fe := &fakeEngine{}
	s := newTestScheduler(t, fe)
	for i := 0; i < cap(s.input)+5; i++ {
		s.enqueue("line")
	}
	assert.Len(t, s.input, cap(s.input))
}
