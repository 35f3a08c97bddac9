package anim

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
)

// fakeClock fires immediately when a command runs and records the delays it
// was asked for. Cancelled contexts yield no message, like RealClock.
type fakeClock struct {
	delays []time.Duration
}

func (c *fakeClock) After(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd {
	c.delays = append(c.delays, d)
	return func() tea.Msg {
		if ctx.Err() != nil {
			return nil
		}
		return msg
	}
}

func runAllCmdMessages(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, runAllCmdMessages(sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// pump runs cmd and feeds each message through update, first in first out,
// until nothing is left. observe sees every message after update handled it.
func pump(t *testing.T, cmd tea.Cmd, update func(tea.Msg) tea.Cmd, observe func(tea.Msg)) []tea.Msg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	var seen []tea.Msg
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10000 {
			t.Fatal("pump did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		for _, msg := range runAllCmdMessages(next) {
			seen = append(seen, msg)
			if c := update(msg); c != nil {
				queue = append(queue, c)
			}
			if observe != nil {
				observe(msg)
			}
		}
	}
	return seen
}
