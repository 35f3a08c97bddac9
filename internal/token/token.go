// Package token issues generation tokens: identities that tell a running
// scheduler or stream apart from the ones it replaced.
//
// Each logical slot (the loading script, the chat stream, the reveal, ...)
// holds at most one live token. Issuing a new token for a slot cancels the
// context handed out with the previous one before anything new starts, and
// messages stamped with an old token fail Current and are dropped.
//
// A Registry is owned by the bubbletea update loop and is not safe for
// concurrent use; the contexts it hands out are.
package token

import "context"

// Token identifies one scheduler or stream instance. Zero is never issued.
type Token uint64

// Slot names a logical place that runs one thing at a time.
type Slot string

const (
	SlotLoading  Slot = "loading"
	SlotStream   Slot = "stream"
	SlotGenerate Slot = "generate"
	SlotStatus   Slot = "status"
	SlotReveal   Slot = "reveal"
	SlotPrompt   Slot = "prompt"
)

type lease struct {
	tok    Token
	cancel context.CancelFunc
}

// Registry tracks the current token of each slot.
type Registry struct {
	parent context.Context
	last   Token
	slots  map[Slot]lease
}

// NewRegistry returns a registry whose contexts derive from parent.
func NewRegistry(parent context.Context) *Registry {
	if parent == nil {
		parent = context.Background()
	}
	return &Registry{parent: parent, slots: make(map[Slot]lease)}
}

// Issue cancels whatever slot was running and returns a fresh token and the
// context the new work must honor.
func (r *Registry) Issue(slot Slot) (Token, context.Context) {
	r.Revoke(slot)
	r.last++
	ctx, cancel := context.WithCancel(r.parent)
	r.slots[slot] = lease{tok: r.last, cancel: cancel}
	return r.last, ctx
}

// Current reports whether tok is the live token of slot.
func (r *Registry) Current(slot Slot, tok Token) bool {
	l, ok := r.slots[slot]
	return ok && tok != 0 && l.tok == tok
}

// Revoke cancels the slot's context and forgets its token.
func (r *Registry) Revoke(slot Slot) {
	if l, ok := r.slots[slot]; ok {
		l.cancel()
		delete(r.slots, slot)
	}
}

// RevokeAll cancels every slot.
func (r *Registry) RevokeAll() {
	for slot := range r.slots {
		r.Revoke(slot)
	}
}

// Live returns how many slots currently hold a token.
func (r *Registry) Live() int {
	return len(r.slots)
}
