package session

// Event is an input to Apply. The set of events is closed: only the types
// declared in this file implement it.
type Event interface {
	// Kind returns the event's wire-style name, e.g. "SELECT_PERSONA".
	Kind() string
	sessionEvent()
}

type (
	SelectPersona    struct{ Persona Persona }
	SetSuggestion    struct{ Word string }
	LoadingComplete  struct{}
	SendMessage      struct{ Content string }
	StartAIMessage   struct{}
	AppendAIChunk    struct{ Chunk string }
	EndAIMessage     struct{}
	AddErrorMessage  struct{ Content string }
	AddSystemMessage struct {
		Content string
		Variant Variant // defaults to VariantHint
	}
	Generate   struct{}
	ImageReady struct {
		ImageURL   string
		PromptUsed string
	}
	RevealComplete   struct{}
	DownloadAnswered struct{}
	GenerateFailed   struct{}
	Reset            struct{}
)

func (SelectPersona) Kind() string    { return "SELECT_PERSONA" }
func (SetSuggestion) Kind() string    { return "SET_SUGGESTION" }
func (LoadingComplete) Kind() string  { return "LOADING_COMPLETE" }
func (SendMessage) Kind() string      { return "SEND_MESSAGE" }
func (StartAIMessage) Kind() string   { return "START_AI_MESSAGE" }
func (AppendAIChunk) Kind() string    { return "APPEND_AI_CHUNK" }
func (EndAIMessage) Kind() string     { return "END_AI_MESSAGE" }
func (AddErrorMessage) Kind() string  { return "ADD_ERROR_MESSAGE" }
func (AddSystemMessage) Kind() string { return "ADD_SYSTEM_MESSAGE" }
func (Generate) Kind() string         { return "GENERATE" }
func (ImageReady) Kind() string       { return "IMAGE_READY" }
func (RevealComplete) Kind() string   { return "REVEAL_COMPLETE" }
func (DownloadAnswered) Kind() string { return "DOWNLOAD_ANSWERED" }
func (GenerateFailed) Kind() string   { return "GENERATE_FAILED" }
func (Reset) Kind() string            { return "RESET" }

func (SelectPersona) sessionEvent()    {}
func (SetSuggestion) sessionEvent()    {}
func (LoadingComplete) sessionEvent()  {}
func (SendMessage) sessionEvent()      {}
func (StartAIMessage) sessionEvent()   {}
func (AppendAIChunk) sessionEvent()    {}
func (EndAIMessage) sessionEvent()     {}
func (AddErrorMessage) sessionEvent()  {}
func (AddSystemMessage) sessionEvent() {}
func (Generate) sessionEvent()         {}
func (ImageReady) sessionEvent()       {}
func (RevealComplete) sessionEvent()   {}
func (DownloadAnswered) sessionEvent() {}
func (GenerateFailed) sessionEvent()   {}
func (Reset) sessionEvent()            {}
