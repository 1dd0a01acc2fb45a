package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/murli1234/Gemini-live-cam/internal/loop"
)

// fakeRunner blocks in Run until stopped, like a real loop.
type fakeRunner struct {
	mu      sync.Mutex
	texts   []string
	stop    chan struct{}
	once    sync.Once
	started time.Time
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{stop: make(chan struct{}), started: time.Now()}
}

func (f *fakeRunner) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-f.stop:
	}
	return nil
}

func (f *fakeRunner) SendText(text string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeRunner) Stop() {
	f.once.Do(func() { close(f.stop) })
}

func (f *fakeRunner) Status() loop.Status {
	return loop.Status{Running: true, Mode: "camera", StartedAt: f.started}
}

func newTestServer(t *testing.T) (*Server, *fakeRunner) {
	t.Helper()
	runner := newFakeRunner()
	factory := func(mode string, onEvent func(loop.Event)) (Runner, error) {
		return runner, nil
	}
	return New(factory), runner
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestServer_Healthz(t *testing.T) {
	s, _ := newTestServer(t)
	w, _ := doJSON(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_RunStartsSession(t *testing.T) {
	s, _ := newTestServer(t)
	w, resp := doJSON(t, s, http.MethodPost, "/run", `{"mode":"screen"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp.Status != "success" || resp.SessionID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	defer s.Shutdown()
}

func TestServer_RunConflictWhenRunning(t *testing.T) {
	s, _ := newTestServer(t)
	if w, _ := doJSON(t, s, http.MethodPost, "/run", `{"mode":"camera"}`); w.Code != http.StatusOK {
		t.Fatalf("first run failed: %d", w.Code)
	}
	defer s.Shutdown()

	w, resp := doJSON(t, s, http.MethodPost, "/run", `{"mode":"camera"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if resp.Status != "error" {
		t.Fatalf("expected error envelope, got %+v", resp)
	}
}

func TestServer_RunInvalidMode(t *testing.T) {
	s, _ := newTestServer(t)
	w, _ := doJSON(t, s, http.MethodPost, "/run", `{"mode":"hologram"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestServer_RunDefaultsToCamera(t *testing.T) {
	var gotMode string
	factory := func(mode string, onEvent func(loop.Event)) (Runner, error) {
		gotMode = mode
		return newFakeRunner(), nil
	}
	s := New(factory)
	w, _ := doJSON(t, s, http.MethodPost, "/run", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotMode != "camera" {
		t.Fatalf("expected camera default, got %q", gotMode)
	}
	s.Shutdown()
}

func TestServer_SendTextRequiresSession(t *testing.T) {
	s, _ := newTestServer(t)
	w, _ := doJSON(t, s, http.MethodPost, "/send-text", `{"text":"hi"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestServer_SendTextForwards(t *testing.T) {
	s, runner := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/run", `{"mode":"none"}`)
	defer s.Shutdown()

	w, _ := doJSON(t, s, http.MethodPost, "/send-text", `{"text":"what do you see?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.texts) != 1 || runner.texts[0] != "what do you see?" {
		t.Fatalf("text not forwarded: %v", runner.texts)
	}
}

func TestServer_StopIdempotent(t *testing.T) {
	s, _ := newTestServer(t)
	// Stop without a session is still success.
	w, resp := doJSON(t, s, http.MethodPost, "/stop", "")
	if w.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected success, got %d %+v", w.Code, resp)
	}

	doJSON(t, s, http.MethodPost, "/run", `{"mode":"none"}`)
	if w, _ := doJSON(t, s, http.MethodPost, "/stop", ""); w.Code != http.StatusOK {
		t.Fatalf("stop failed: %d", w.Code)
	}
	// Session slot is free again.
	if w, _ := doJSON(t, s, http.MethodPost, "/run", `{"mode":"none"}`); w.Code != http.StatusOK {
		t.Fatalf("expected run after stop to succeed, got %d", w.Code)
	}
	s.Shutdown()
}

func TestServer_FactoryErrorSurfaces(t *testing.T) {
	factory := func(mode string, onEvent func(loop.Event)) (Runner, error) {
		return nil, errors.New("camera not available")
	}
	s := New(factory)
	w, resp := doJSON(t, s, http.MethodPost, "/run", `{"mode":"camera"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(resp.Message, "camera not available") {
		t.Fatalf("expected cause in message, got %q", resp.Message)
	}
}

func TestServer_StatusReflectsSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	var idle statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &idle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if idle.Running {
		t.Fatalf("expected idle status")
	}

	doJSON(t, s, http.MethodPost, "/run", `{"mode":"camera"}`)
	defer s.Shutdown()

	w2 := httptest.NewRecorder()
	s.Echo.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/status", nil))
	var active statusResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !active.Running || active.SessionID == "" {
		t.Fatalf("expected running status with session id, got %+v", active)
	}
}

func TestServer_RootListsEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/send-text") {
		t.Fatalf("expected endpoint listing")
	}
}

func TestServer_UIServed(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ui", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Gemini Live Interface") {
		t.Fatalf("expected control page markup")
	}
}
