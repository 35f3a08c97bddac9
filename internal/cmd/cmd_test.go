package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/wethinkt/go-yesand/internal/api"
	"github.com/wethinkt/go-yesand/internal/session"
)

// testCommand returns a command that writes to a buffer, with the config
// rooted in a temporary home and the backend pointed at srv.
func testCommand(t *testing.T, srv *httptest.Server) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	old := apiBase
	t.Cleanup(func() { apiBase = old })
	if srv != nil {
		apiBase = srv.URL
	}

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	c.SetContext(context.Background())
	return c, &buf
}

func backend(t *testing.T, suggestStatus int) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/personas", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"personas": []session.Persona{{
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
		if suggestStatus != http.StatusOK {
			w.WriteHeader(suggestStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"word": "lighthouse"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestPersonasTable(t *testing.T) {
	c, out := testCommand(t, backend(t, http.StatusOK))
	personasJSON = false

	if err := runPersonas(c, nil); err != nil {
		t.Fatalf("runPersonas: %v", err)
	}
	got := out.String()
	for _, want := range []string{"ID", "mara", "paints with fog", "mist, lanterns", "neon", "1 persona"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPersonasJSON(t *testing.T) {
	c, out := testCommand(t, backend(t, http.StatusOK))
	personasJSON = true
	t.Cleanup(func() { personasJSON = false })

	if err := runPersonas(c, nil); err != nil {
		t.Fatalf("runPersonas: %v", err)
	}
	var got []session.Persona
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got) != 1 || got[0].ID != "mara" {
		t.Errorf("personas = %+v", got)
	}
}

func TestCheck(t *testing.T) {
	c, out := testCommand(t, backend(t, http.StatusOK))
	if err := runCheck(c, nil); err != nil {
		t.Fatalf("runCheck: %v\n%s", err, out.String())
	}
	if strings.Count(out.String(), " ok ") != 2 {
		t.Errorf("want both probes ok:\n%s", out.String())
	}
}

func TestCheckReportsFailure(t *testing.T) {
	c, out := testCommand(t, backend(t, http.StatusInternalServerError))
	err := runCheck(c, nil)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v, want one failed check", err)
	}
	var status *api.StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusInternalServerError {
		t.Errorf("err = %v, want the backend status wrapped", err)
	}
	if !strings.Contains(err.Error(), "/suggest") {
		t.Errorf("err = %v, want the failing endpoint named", err)
	}
	if !strings.Contains(out.String(), "/suggest") || !strings.Contains(out.String(), "FAIL") {
		t.Errorf("failure not reported:\n%s", out.String())
	}
}

func TestConfigPath(t *testing.T) {
	c, out := testCommand(t, nil)
	if err := configPathCmd.RunE(c, nil); err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), filepath.Join(".yesand", "config.json")) {
		t.Errorf("path = %q", out.String())
	}
}

func TestConfigShowAppliesAPIFlag(t *testing.T) {
	c, out := testCommand(t, nil)
	apiBase = "http://scene.test:9000"

	if err := configShowCmd.RunE(c, nil); err != nil {
		t.Fatalf("config show: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["api_base"] != "http://scene.test:9000" {
		t.Errorf("api_base = %v", got["api_base"])
	}
}

func TestReadLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yesand.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\nfour"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines, err := readLastLines(f, 2)
	if err != nil {
		t.Fatalf("readLastLines: %v", err)
	}
	if strings.Join(lines, "") != "three\nfour\n" {
		t.Errorf("lines = %q", lines)
	}
}

func TestTailLogFileMissing(t *testing.T) {
	err := tailLogFile(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.log"), 10, false)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestTailLogFileFollowStopsWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yesand.log")
	os.WriteFile(path, []byte("a\nb\n"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	if err := tailLogFile(ctx, &out, path, 1, true); err != nil {
		t.Fatalf("tailLogFile: %v", err)
	}
	if out.String() != "b\n" {
		t.Errorf("out = %q", out.String())
	}
}

func TestTruncateIfLarge(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.log")
	big := filepath.Join(dir, "big.log")
	os.WriteFile(small, []byte("keep\n"), 0o644)
	os.WriteFile(big, bytes.Repeat([]byte("x"), maxLogSize+1), 0o644)

	truncateIfLarge(small)
	truncateIfLarge(big)

	if info, _ := os.Stat(small); info.Size() != 5 {
		t.Errorf("small log size = %d", info.Size())
	}
	if info, _ := os.Stat(big); info.Size() != 0 {
		t.Errorf("big log size = %d", info.Size())
	}
}

func TestLogsHonorsLogFlag(t *testing.T) {
	t.Setenv("YESAND_PROFILE", "")
	path := filepath.Join(t.TempDir(), "custom.log")
	os.WriteFile(path, []byte("first\nsecond\n"), 0o644)
	t.Cleanup(func() {
		logPath = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"logs", "--log", path, "-n", "1"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("yesand logs --log: %v", err)
	}
	if out.String() != "second\n" {
		t.Errorf("out = %q, want the last line of %s", out.String(), path)
	}
}
