package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickInterval matches the original client's scheduling interval.
const DefaultTickInterval = 250 * time.Millisecond

// Timer drives the session deadline. Each interval it forwards a tick to the
// session, which recomputes the remaining time from the start instant, so a
// burst of missed intervals (suspended process) still converges on the right
// deadline. The timer stops itself once the session leaves InProgress or the
// context is cancelled.
type Timer struct {
	session  *Session
	clock    clockwork.Clock
	interval time.Duration
}

// NewTimer builds a timer for the session using the session's clock.
func NewTimer(session *Session) *Timer {
	return &Timer{
		session:  session,
		clock:    session.clock,
		interval: DefaultTickInterval,
	}
}

// Run blocks until the deadline fires or ctx is cancelled. onTick, if not
// nil, receives every recomputed remaining value, including the final zero.
// Callers run it in its own goroutine and cancel ctx on teardown; a tick
// delivered after finalization is a no-op inside the session.
func (t *Timer) Run(ctx context.Context, onTick func(remaining time.Duration)) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			remaining := t.session.Tick()
			if onTick != nil {
				onTick(remaining)
			}
			if remaining <= 0 {
				return
			}
		}
	}
}
