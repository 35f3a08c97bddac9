package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/sse"
)

type fakeBackend struct {
	lastChat chatRequest
}

func (b *fakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/personas", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"personas": []session.Persona{{
			ID:      "mara",
			Name:    "Mara",
			Tagline: "paints with fog",
			Aesthetic: session.Aesthetic{
				PullsToward:   []string{"mist", "lanterns"},
				PullsAwayFrom: []string{"neon"},
			},
		}}})
	})
	r.Get("/suggest", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"word": "lighthouse"})
	})
	r.Post("/chat/stream", func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&b.lastChat); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if b.lastChat.PersonaID == "ghost" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"detail": "Unknown persona: ghost"})
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Hi", " there", "!"} {
			fmt.Fprintf(w, "data: {\"type\": \"chunk\", \"content\": %q}\n\n", part)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: {\"type\": \"done\"}\n\n")
	})
	r.Post("/generate", func(w http.ResponseWriter, req *http.Request) {
		var body chatRequest
		json.NewDecoder(req.Body).Decode(&body)
		if len(body.Messages) == 0 {
			writeJSON(w, map[string]string{"prompt_used": "nothing"})
			return
		}
		writeJSON(w, Generation{ImageURL: "https://img.example/scene.png", PromptUsed: "a foggy harbor"})
	})
	r.Get("/image.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.routes())
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), fb, srv
}

func TestPersonas(t *testing.T) {
	c, _, _ := newTestClient(t)

	got, err := c.Personas(context.Background())
	if err != nil {
		t.Fatalf("Personas: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mara" || got[0].Aesthetic.PullsAwayFrom[0] != "neon" {
		t.Errorf("Personas = %+v", got)
	}
}

func TestSuggestion(t *testing.T) {
	c, _, _ := newTestClient(t)

	word, err := c.Suggestion(context.Background())
	if err != nil || word != "lighthouse" {
		t.Errorf("Suggestion = %q, %v", word, err)
	}
}

func TestStreamChat(t *testing.T) {
	c, fb, _ := newTestClient(t)
	msgs := []session.Message{
		{Role: session.RoleSystem, Content: "loading...", Variant: session.VariantHint},
		{Role: session.RoleHuman, Content: "hello"},
	}

	ch, err := c.StreamChat(context.Background(), "mara", msgs)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	var got []sse.Event
	for ev := range ch {
		got = append(got, ev)
	}

	want := []sse.Event{
		{Type: sse.EventChunk, Content: "Hi"},
		{Type: sse.EventChunk, Content: " there"},
		{Type: sse.EventChunk, Content: "!"},
		{Type: sse.EventDone},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %+v, want %+v", got, want)
	}
	wantReq := chatRequest{PersonaID: "mara", Messages: []chatMessage{{Role: "human", Content: "hello"}}}
	if !reflect.DeepEqual(fb.lastChat, wantReq) {
		t.Errorf("request = %+v, want %+v", fb.lastChat, wantReq)
	}
}

func TestStreamChatStatusError(t *testing.T) {
	c, _, _ := newTestClient(t)

	_, err := c.StreamChat(context.Background(), "ghost", nil)
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if serr.StatusCode != http.StatusNotFound || serr.Detail != "Unknown persona: ghost" {
		t.Errorf("StatusError = %+v", serr)
	}
}

func TestGenerate(t *testing.T) {
	c, _, _ := newTestClient(t)
	msgs := []session.Message{{Role: session.RoleHuman, Content: "a harbor"}}

	gen, err := c.Generate(context.Background(), "mara", msgs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.ImageURL != "https://img.example/scene.png" || gen.PromptUsed != "a foggy harbor" {
		t.Errorf("Generate = %+v", gen)
	}

	if _, err := c.Generate(context.Background(), "mara", nil); err == nil {
		t.Error("expected an error for a response without image_url")
	}
}

func TestNotFoundIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Suggestion(context.Background())
	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v", err)
	}
	if serr.Detail != "404 page not found" {
		t.Errorf("Detail = %q", serr.Detail)
	}
}

func TestProxyDownloadURL(t *testing.T) {
	c := New("http://localhost:8000/")
	got := c.ProxyDownloadURL("https://acct.blob.core.windows.net/img/a b.png?sig=x&se=1")
	want := "http://localhost:8000/proxy-image?url=https%3A%2F%2Facct.blob.core.windows.net%2Fimg%2Fa+b.png%3Fsig%3Dx%26se%3D1"
	if got != want {
		t.Errorf("ProxyDownloadURL = %q, want %q", got, want)
	}
}

func TestFetchImage(t *testing.T) {
	c, _, srv := newTestClient(t)

	data, ctype, err := c.FetchImage(context.Background(), srv.URL+"/image.png")
	if err != nil {
		t.Fatalf("FetchImage: %v", err)
	}
	if string(data) != "png-bytes" || ctype != "image/png" {
		t.Errorf("FetchImage = %q, %q", data, ctype)
	}

	if _, _, err := c.FetchImage(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("expected an error for a missing image")
	}
}
