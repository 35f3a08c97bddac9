package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestHandlerExposesCounters(t *testing.T) {
	Event("SEND_MESSAGE", true, "READY", "CHATTING")
	Event("REVEAL_COMPLETE", false, "IDLE", "IDLE")
	StreamChunk()
	StreamFinished(true)
	Generation(true, 3*time.Second)
	Generation(false, 0)
	RevealCompleted()
	Download(false)

	body := scrape(t, Handler())
	for _, want := range []string{
		`yesand_session_events_total{event="SEND_MESSAGE",outcome="applied"}`,
		`yesand_session_events_total{event="REVEAL_COMPLETE",outcome="ignored"}`,
		`yesand_session_phase_entries_total{phase="CHATTING"}`,
		`yesand_chat_stream_chunks_total`,
		`yesand_chat_streams_total{result="done"}`,
		`yesand_image_generations_total{result="error"}`,
		`yesand_image_generation_duration_seconds_count`,
		`yesand_image_reveals_completed_total`,
		`yesand_image_downloads_total{result="error"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
	if strings.Contains(body, `phase_entries_total{phase="IDLE"}`) {
		t.Error("an ignored event without a phase change counted as a phase entry")
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := Serve(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok\n" {
		t.Errorf("body = %q", body)
	}

	if _, err := Serve(ctx, addr.String()); err == nil {
		t.Error("expected a bind error for an address in use")
	}
}
