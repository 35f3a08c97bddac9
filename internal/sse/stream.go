package sse

import (
	"context"
	"errors"
	"io"

	"github.com/wethinkt/go-yesand/internal/tuilog"
)

const readSize = 4096

// Stream reads r on a goroutine and delivers decoded events in order. The
// channel carries exactly one terminal event and is then closed. If ctx is
// cancelled the channel closes without a terminal event; the caller has
// already moved on and must not be told anything.
//
// r is closed when the stream ends if it implements io.Closer.
func Stream(ctx context.Context, r io.Reader) <-chan Event {
	ch := make(chan Event, 64)
	go streamLoop(ctx, r, ch)
	return ch
}

func streamLoop(ctx context.Context, r io.Reader, ch chan<- Event) {
	defer close(ch)
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	dec := NewDecoder()
	buf := make([]byte, readSize)

	send := func(events []Event) bool {
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		n, err := r.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			if !send(dec.Write(buf[:n])) {
				return
			}
			if dec.Finished() {
				return
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			send(dec.Close())
			return
		}
		tuilog.Log.Warn("Chat stream read failed", "error", err)
		send(dec.Fail(err))
		return
	}
}
