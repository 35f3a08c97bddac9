// Package session holds the in-memory state of one scene and the pure
// transition function that is the only way to change it.
package session

// Phase is the discrete stage of a session.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseLoading    Phase = "LOADING"
	PhaseReady      Phase = "READY"
	PhaseChatting   Phase = "CHATTING"
	PhaseGenerating Phase = "GENERATING"
	PhaseRevealing  Phase = "REVEALING"
	PhaseDone       Phase = "DONE"
	PhaseFinished   Phase = "FINISHED"
)

// Phases lists every phase in the order a session normally visits them.
var Phases = []Phase{
	PhaseIdle,
	PhaseLoading,
	PhaseReady,
	PhaseChatting,
	PhaseGenerating,
	PhaseRevealing,
	PhaseDone,
	PhaseFinished,
}

// Role identifies who authored a message.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// Variant selects how a system message is presented.
type Variant string

const (
	VariantNone   Variant = ""
	VariantNormal Variant = "normal"
	VariantHint   Variant = "hint"
	VariantError  Variant = "error"
)

// Aesthetic describes what a persona's imagery leans toward and away from.
type Aesthetic struct {
	PullsToward   []string `json:"pulls_toward"`
	PullsAwayFrom []string `json:"pulls_away_from"`
}

// Persona is an AI scene partner as served by the persona catalog.
type Persona struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tagline   string    `json:"tagline"`
	Aesthetic Aesthetic `json:"aesthetic"`
}

// Message is one transcript entry.
type Message struct {
	Role    Role    `json:"role"`
	Content string  `json:"content"`
	Variant Variant `json:"variant,omitempty"`
}

// Session is the whole state of one scene. Values are treated as immutable:
// Apply returns a new Session and never writes through the receiver's slices.
type Session struct {
	Phase          Phase
	Persona        *Persona
	SuggestionWord string
	Messages       []Message
	ImageURL       string
	PromptUsed     string
	IsStreaming    bool
}

// Initial returns the session every program starts with and every reset returns to.
func Initial() Session {
	return Session{Phase: PhaseIdle}
}

// ChatMessages returns the human and ai turns, which is what the chat and
// image collaborators are sent.
func (s Session) ChatMessages() []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Role == RoleHuman || m.Role == RoleAI {
			out = append(out, Message{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

// AcceptsInput reports whether a submitted line would be handled.
func (s Session) AcceptsInput() bool {
	if s.IsStreaming {
		return false
	}
	switch s.Phase {
	case PhaseReady, PhaseChatting, PhaseDone, PhaseFinished:
		return true
	}
	return false
}

// CanGenerate reports whether image generation may be requested.
func (s Session) CanGenerate() bool {
	return s.Phase == PhaseChatting && !s.IsStreaming && len(s.ChatMessages()) > 0
}

// LastMessage returns the final transcript entry, if any.
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
