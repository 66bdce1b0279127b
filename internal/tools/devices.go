package tools

import (
	"context"
	"time"
)

// Camera captures a single still frame as JPEG bytes. The concrete PTZ
// camera implementation is an external collaborator out of this
// module's scope; only this interface is specified.
type Camera interface {
	Capture(ctx context.Context) (jpeg []byte, err error)
	// Pan adjusts the camera's orientation by degrees in direction
	// (left/right/up/down).
	Pan(ctx context.Context, direction string, degrees int) error
}

// Mobility drives the wheeled base. Direction is one of
// forward/backward/left/right/stop.
type Mobility interface {
	Move(ctx context.Context, direction string) error
}

// Speaker is the remote text-to-speech endpoint.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// sleepAndStop is the timed-walk helper: send the move, sleep for
// duration, then send stop, unless direction already is stop.
func sleepAndStop(ctx context.Context, m Mobility, direction string, duration time.Duration) error {
	if err := m.Move(ctx, direction); err != nil {
		return err
	}
	if direction == "stop" || duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return m.Move(ctx, "stop")
}
