// Package sse decodes the chat stream: server-sent events whose data lines
// carry one JSON payload per event.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EventType is the payload type of a decoded event.
type EventType string

const (
	EventChunk EventType = "chunk"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

const (
	dataPrefix            = "data:"
	defaultStreamErrorMsg = "Stream error"
)

var separator = []byte("\n\n")

// Event is one decoded protocol event.
type Event struct {
	Type    EventType
	Content string // chunk text
	Message string // error description
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// payload is the JSON object carried by an event's data lines.
type payload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// Decoder turns arbitrarily fragmented stream bytes into Events. The zero
// value is ready to use. A Decoder emits at most one terminal event and
// ignores everything after it.
type Decoder struct {
	buf      []byte
	finished bool
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Finished reports whether a terminal event has been emitted.
func (d *Decoder) Finished() bool {
	return d.finished
}

// Write feeds the next fragment and returns the events it completed.
//
// The buffer is split on the ASCII separator before any text decoding, so a
// multi-byte rune split across fragments is only decoded once whole.
func (d *Decoder) Write(p []byte) []Event {
	if d.finished {
		return nil
	}
	d.buf = append(d.buf, p...)

	var out []Event
	for {
		i := bytes.Index(d.buf, separator)
		if i < 0 {
			break
		}
		raw := d.buf[:i]
		d.buf = d.buf[i+len(separator):]

		ev, ok, err := parseEvent(raw)
		if err != nil {
			out = append(out, d.finish(Event{Type: EventError, Message: err.Error()}))
			return out
		}
		if !ok {
			continue
		}
		if ev.Terminal() {
			out = append(out, d.finish(ev))
			return out
		}
		out = append(out, ev)
	}
	return out
}

// Close signals the end of the feed. If no terminal event was seen a done
// event is synthesized. Any partial event left in the buffer is dropped.
func (d *Decoder) Close() []Event {
	if d.finished {
		return nil
	}
	return []Event{d.finish(Event{Type: EventDone})}
}

// Fail signals a feed-level failure and returns the single error event, or
// nothing if the decoder already finished.
func (d *Decoder) Fail(err error) []Event {
	if d.finished {
		return nil
	}
	msg := defaultStreamErrorMsg
	if err != nil {
		msg = err.Error()
	}
	return []Event{d.finish(Event{Type: EventError, Message: msg})}
}

func (d *Decoder) finish(ev Event) Event {
	d.finished = true
	d.buf = nil
	return ev
}

// parseEvent decodes one raw event block. ok is false for blocks that carry
// no data lines or an unknown payload type. A payload that is not a JSON
// object, null included, is an error.
func parseEvent(raw []byte) (Event, bool, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return Event{}, false, nil
	}

	var data strings.Builder
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		found = true
		data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, dataPrefix)))
	}
	if !found {
		return Event{}, false, nil
	}

	body := data.String()
	if !strings.HasPrefix(body, "{") {
		return Event{}, false, fmt.Errorf("decode stream payload: want a JSON object, got %.20q", body)
	}
	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Event{}, false, fmt.Errorf("decode stream payload: %w", err)
	}

	switch EventType(p.Type) {
	case EventChunk:
		return Event{Type: EventChunk, Content: p.Content}, true, nil
	case EventDone:
		return Event{Type: EventDone}, true, nil
	case EventError:
		msg := p.Message
		if msg == "" {
			msg = defaultStreamErrorMsg
		}
		return Event{Type: EventError, Message: msg}, true, nil
	}
	return Event{}, false, nil
}
