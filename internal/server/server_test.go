package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/pollstate/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st.Update(store.Record{ID: "run-1", Kind: "signer", ResourceID: "sig-1", Status: "pending_approval", Attempt: 2, StartedAt: base})
	st.Update(store.Record{ID: "run-2", Kind: "deployment", ResourceID: "prj_1", Status: "READY", Outcome: "success", StartedAt: base.Add(time.Second)})
	return st
}

func TestHandleList(t *testing.T) {
	srv := NewServer(seededStore(), 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var records []store.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "run-1" || records[1].ID != "run-2" {
		t.Errorf("order = [%s %s], want [run-1 run-2]", records[0].ID, records[1].ID)
	}
}

func TestHandleList_Empty(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/polls", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestHandleGet(t *testing.T) {
	srv := NewServer(seededStore(), 0, testLogger())

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantID   string
	}{
		{name: "known id", path: "/api/polls/run-2", wantCode: http.StatusOK, wantID: "run-2"},
		{name: "unknown id", path: "/api/polls/nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantID == "" {
				return
			}
			var record store.Record
			if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if record.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", record.ID, tt.wantID)
			}
			if record.Outcome != "success" {
				t.Errorf("Outcome = %q, want success", record.Outcome)
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewServer(seededStore(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/polls", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleSSE_BasicFlow(t *testing.T) {
	srv := NewServer(seededStore(), 0, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	events := parseSSEEvents(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d initial events, want 2", len(events))
	}
	if events[0].ID != "run-1" {
		t.Errorf("first event ID = %q, want run-1", events[0].ID)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	want := map[string]string{
		"Content-Type":  "text/event-stream",
		"Cache-Control": "no-cache",
		"Connection":    "keep-alive",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("header %s = %q, want %q", k, got, v)
		}
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	st := store.NewMemoryStore()
	srv := NewServer(st, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	st.Update(store.Record{ID: "late-run", Status: "BUILDING"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	if !strings.Contains(rec.Body.String(), "late-run") {
		t.Errorf("response should contain streamed update, got: %s", rec.Body.String())
	}
}

// flushlessWriter hides http.Flusher from the handler.
type flushlessWriter struct {
	header http.Header
	code   int
}

func (w *flushlessWriter) Header() http.Header         { return w.header }
func (w *flushlessWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *flushlessWriter) WriteHeader(code int)        { w.code = code }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testLogger())

	w := &flushlessWriter{header: http.Header{}}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.code)
	}
}

func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	srv := NewServer(seededStore(), 0, testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// simulates BaseContext
		srv.handleSSE(w, r.WithContext(serverCtx))
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	connDone := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL)
		if err != nil {
			connDone <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)
		connDone <- nil
	}()

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	select {
	case <-connDone:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE connection did not close after server shutdown")
	}
}

func TestHandleSSE_ConcurrentClients(t *testing.T) {
	st := seededStore()
	srv := NewServer(st, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	recs := make([]*httptest.ResponseRecorder, 5)
	for i := range recs {
		recs[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rec *httptest.ResponseRecorder) {
			defer wg.Done()
			srv.handleSSE(rec, httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx))
		}(recs[i])
	}

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not exit after cancellation")
	}

	for i, rec := range recs {
		if n := len(parseSSEEvents(rec.Body.String())); n < 2 {
			t.Errorf("client %d got %d events, want at least 2", i, n)
		}
	}
}

func parseSSEEvents(body string) []store.Record {
	var records []store.Record
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var r store.Record
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &r); err == nil {
			records = append(records, r)
		}
	}
	return records
}

func TestStart_ServesAPI(t *testing.T) {
	srv := NewServer(seededStore(), 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	port := srv.Addr().(*net.TCPAddr).Port
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/polls/run-1", port))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := NewServer(store.NewMemoryStore(), port, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), -1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}
