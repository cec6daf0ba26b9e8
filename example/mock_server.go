package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// mockAPI imitates the signer and deployment endpoints. Every resource
// advances through its lifecycle a few seconds after it is first seen.
type mockAPI struct {
	mu        sync.Mutex
	firstSeen map[string]time.Time
}

func newMockAPI() *mockAPI {
	return &mockAPI{firstSeen: make(map[string]time.Time)}
}

func (m *mockAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/v2/farcaster/signer", m.handleSigner)
	r.Get("/v6/deployments", m.handleDeployments)
	return r
}

// age returns how long ago key was first requested.
func (m *mockAPI) age(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen, ok := m.firstSeen[key]
	if !ok {
		seen = time.Now()
		m.firstSeen[key] = seen
	}
	return time.Since(seen)
}

func (m *mockAPI) handleSigner(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("signer_uuid")
	status := "pending_approval"
	if m.age("signer:"+id) > 3*time.Second {
		status = "approved"
	}
	writeJSON(w, map[string]any{"signer_uuid": id, "status": status})
}

func (m *mockAPI) handleDeployments(w http.ResponseWriter, r *http.Request) {
	// simulate small latency variance
	time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

	project := r.URL.Query().Get("projectId")
	age := m.age("deployment:" + project)
	state := "QUEUED"
	switch {
	case age > 8*time.Second:
		state = "READY"
	case age > 2*time.Second:
		state = "BUILDING"
	}
	writeJSON(w, map[string]any{
		"deployments": []map[string]any{
			{"uid": "dpl_demo", "name": project, "url": project + ".example.app", "state": state},
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// StartMockAPI serves the mock API on addr until the process exits.
func StartMockAPI(addr string) {
	if err := http.ListenAndServe(addr, newMockAPI().routes()); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
