// Package anim holds the cooperative schedulers that pace the session's
// presentation: the typewriter, the scripted loading sequence and the
// progressive image reveal.
//
// Schedulers never sleep. They return tea.Cmds that deliver tick messages
// through a Clock, and advance only when the host feeds those messages back
// into Update. Every tick is stamped with the scheduler's generation token and
// run counter so that ticks from a torn-down or restarted run are ignored,
// and every timer honors a context that is cancelled on teardown.
package anim

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
)

// Clock turns a delay into a command.
type Clock interface {
	// After returns a command that yields msg once d has elapsed, or nil if
	// ctx is cancelled first.
	After(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd
}

// RealClock waits on wall-clock timers.
type RealClock struct{}

func (RealClock) After(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if d <= 0 {
			if ctx.Err() != nil {
				return nil
			}
			return msg
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			if ctx.Err() != nil {
				return nil
			}
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}
