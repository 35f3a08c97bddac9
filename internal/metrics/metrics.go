// Package metrics counts what happens in a scene session and optionally
// serves the counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wethinkt/go-yesand/internal/tuilog"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "session",
		Name:      "events_total",
		Help:      "Session events dispatched, by event kind and outcome (applied or ignored).",
	}, []string{"event", "outcome"})

	phaseEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "session",
		Name:      "phase_entries_total",
		Help:      "Transitions into each phase.",
	}, []string{"phase"})

	streamChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "chat",
		Name:      "stream_chunks_total",
		Help:      "Chat reply chunks received.",
	})

	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "chat",
		Name:      "streams_total",
		Help:      "Chat streams finished, by result (done or error).",
	}, []string{"result"})

	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "image",
		Name:      "generations_total",
		Help:      "Image generation requests, by result.",
	}, []string{"result"})

	generationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yesand",
		Subsystem: "image",
		Name:      "generation_duration_seconds",
		Help:      "Time from generate request to image URL.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
	})

	revealsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "image",
		Name:      "reveals_completed_total",
		Help:      "Image reveals played through to full resolution.",
	})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yesand",
		Subsystem: "image",
		Name:      "downloads_total",
		Help:      "Image downloads, by result.",
	}, []string{"result"})
)

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Event records one dispatched session event. A transition into a new phase
// is counted when to differs from from.
func Event(kind string, applied bool, from, to string) {
	outcome := "ignored"
	if applied {
		outcome = "applied"
	}
	eventsTotal.WithLabelValues(kind, outcome).Inc()
	if from != to {
		phaseEntriesTotal.WithLabelValues(to).Inc()
	}
}

// StreamChunk counts one received chat chunk.
func StreamChunk() { streamChunksTotal.Inc() }

// StreamFinished counts a chat stream ending in done (ok) or error.
func StreamFinished(ok bool) {
	if ok {
		streamsTotal.WithLabelValues("done").Inc()
		return
	}
	streamsTotal.WithLabelValues("error").Inc()
}

// Generation records a finished generation request.
func Generation(ok bool, took time.Duration) {
	generationsTotal.WithLabelValues(result(ok)).Inc()
	if ok {
		generationSeconds.Observe(took.Seconds())
	}
}

// RevealCompleted counts a reveal that reached full resolution.
func RevealCompleted() { revealsTotal.Inc() }

// Download records a finished download attempt.
func Download(ok bool) { downloadsTotal.WithLabelValues(result(ok)).Inc() }

// Handler serves /metrics and a /healthz probe.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return r
}

// Serve listens on addr until ctx is done. It returns once the listener is
// up so that bind errors reach the caller; serving continues in the
// background.
func Serve(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	srv := &http.Server{Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			tuilog.Log.Error("metrics server stopped", "error", err)
		}
	}()

	tuilog.Log.Info("metrics server listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}
