package session

// Apply returns the session that results from e. Events that are not valid
// in the current phase return s unchanged; late callbacks from torn-down
// schedulers rely on this.
func Apply(s Session, e Event) Session {
	switch e := e.(type) {
	case SelectPersona:
		if s.Phase != PhaseIdle {
			return s
		}
		p := e.Persona
		return Session{Phase: PhaseLoading, Persona: &p}

	case SetSuggestion:
		if s.Phase != PhaseLoading {
			return s
		}
		s.SuggestionWord = e.Word
		return s

	case LoadingComplete:
		if s.Phase != PhaseLoading {
			return s
		}
		s.Phase = PhaseReady
		return s

	case SendMessage:
		if s.Phase != PhaseReady && s.Phase != PhaseChatting {
			return s
		}
		s.Phase = PhaseChatting
		s.Messages = appendMessage(s.Messages, Message{Role: RoleHuman, Content: e.Content})
		return s

	case StartAIMessage:
		if s.Phase != PhaseReady && s.Phase != PhaseChatting {
			return s
		}
		s.Phase = PhaseChatting
		s.IsStreaming = true
		s.Messages = appendMessage(s.Messages, Message{Role: RoleAI})
		return s

	case AppendAIChunk:
		if !s.IsStreaming || len(s.Messages) == 0 {
			return s
		}
		last := len(s.Messages) - 1
		if s.Messages[last].Role != RoleAI {
			return s
		}
		msgs := make([]Message, len(s.Messages))
		copy(msgs, s.Messages)
		msgs[last].Content += e.Chunk
		s.Messages = msgs
		return s

	case EndAIMessage:
		s.IsStreaming = false
		return s

	case AddErrorMessage:
		s.Messages = appendMessage(s.Messages, Message{Role: RoleSystem, Content: e.Content, Variant: VariantError})
		return s

	case AddSystemMessage:
		v := e.Variant
		if v == VariantNone {
			v = VariantHint
		}
		s.Messages = appendMessage(s.Messages, Message{Role: RoleSystem, Content: e.Content, Variant: v})
		return s

	case Generate:
		if s.Phase != PhaseChatting {
			return s
		}
		s.Phase = PhaseGenerating
		return s

	case ImageReady:
		s.Phase = PhaseRevealing
		s.ImageURL = e.ImageURL
		s.PromptUsed = e.PromptUsed
		return s

	case RevealComplete:
		if s.Phase != PhaseRevealing {
			return s
		}
		s.Phase = PhaseDone
		return s

	case DownloadAnswered:
		if s.Phase != PhaseDone {
			return s
		}
		s.Phase = PhaseFinished
		return s

	case GenerateFailed:
		s.Phase = PhaseChatting
		s.IsStreaming = false
		return s

	case Reset:
		return Initial()
	}
	return s
}

// appendMessage appends into a fresh backing array so that sessions sharing
// the old slice never observe the new entry.
func appendMessage(msgs []Message, m Message) []Message {
	out := make([]Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}
