// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// startServer starts s and stops it when the test ends.
func startServer(t *testing.T, s *Server) <-chan error {
	t.Helper()
	errCh, err := s.Start()
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return errCh
}

// get fetches path and returns the status code and trimmed body.
func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get("http://" + s.Addr() + path)
	if err != nil {
		t.Fatalf("failed to GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, strings.TrimSpace(string(body))
}

func TestServer_Metrics(t *testing.T) {
	server := NewServer("127.0.0.1:0", func() bool { return true })
	startServer(t, server)

	status, body := get(t, server, "/metrics")
	if status != http.StatusOK {
		t.Errorf("expected status 200, got %d", status)
	}
	for _, want := range []string{"# HELP", "# TYPE", "go_", "process_"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}

	server.Metrics().RecordParse("http", time.Millisecond, 3)
	server.Metrics().DirectivesTotal.WithLabelValues("r", "foreground").Inc()
	RecordOutputFailure("json")

	_, body = get(t, server, "/metrics")
	for _, want := range []string{
		"glyphmark_parses_total",
		"glyphmark_parse_duration_seconds",
		"glyphmark_directives_total",
		"glyphmark_output_failures_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s metric", want)
		}
	}
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{name: "ready", checker: func() bool { return true }, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "not ready", checker: func() bool { return false }, wantStatus: http.StatusServiceUnavailable, wantBody: "not ready"},
		{name: "nil checker", checker: nil, wantStatus: http.StatusOK, wantBody: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer("127.0.0.1:0", tt.checker)
			startServer(t, server)

			status, body := get(t, server, "/healthz/readiness")
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if body != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
		})
	}
}

func TestServer_Liveness(t *testing.T) {
	server := NewServer("127.0.0.1:0", func() bool { return false })
	startServer(t, server)

	status, body := get(t, server, "/healthz/liveness")
	if status != http.StatusOK || body != "ok" {
		t.Errorf("expected 200 ok, got %d %q", status, body)
	}
}

func TestServer_WithHandler(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("rendered"))
	})
	server := NewServer("127.0.0.1:0", nil, WithHandler("/render", handler))
	startServer(t, server)

	status, body := get(t, server, "/render")
	if status != http.StatusOK || body != "rendered" {
		t.Errorf("expected 200 rendered, got %d %q", status, body)
	}
}

func TestServer_Handle(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	server.Handle("/late", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	startServer(t, server)

	status, _ := get(t, server, "/late")
	if status != http.StatusTeapot {
		t.Errorf("expected 418, got %d", status)
	}
}

func TestServer_Registerer(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glyphmark_test_extra_total",
		Help: "Counter registered after construction",
	})
	server.Registerer().MustRegister(counter)
	counter.Add(3)
	startServer(t, server)

	_, body := get(t, server, "/metrics")
	if !strings.Contains(body, "glyphmark_test_extra_total 3") {
		t.Errorf("expected extra counter on /metrics, got:\n%s", body)
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	startServer(t, server)

	if _, err := server.Start(); err == nil {
		t.Error("expected error on second Start")
	}
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	if err := server.Stop(context.Background()); err != nil {
		t.Errorf("Stop on a server that never started: %v", err)
	}
	if server.Addr() != "" {
		t.Errorf("expected empty address, got %q", server.Addr())
	}
}

func TestServer_StartFailsOnBadAddress(t *testing.T) {
	server := NewServer("256.0.0.1:bad", nil)

	if _, err := server.Start(); err == nil {
		t.Fatal("expected listen error")
	}
	// A failed start leaves the server startable.
	if err := server.Stop(context.Background()); err != nil {
		t.Errorf("Stop after failed Start: %v", err)
	}
}

func TestServer_ErrorChannelClosesOnShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err, ok := <-errCh:
		if ok {
			t.Errorf("expected closed channel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error channel was not closed")
	}
}
