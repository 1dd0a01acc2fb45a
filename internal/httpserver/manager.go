package httpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/murli1234/Gemini-live-cam/internal/loop"
)

// Runner is the loop surface the manager drives. Satisfied by *loop.Loop.
type Runner interface {
	Run(ctx context.Context) error
	SendText(text string) error
	Stop()
	Status() loop.Status
}

// Factory builds a fresh runner with devices for the given video mode.
// Events from the runner flow through onEvent.
type Factory func(mode string, onEvent func(loop.Event)) (Runner, error)

// Manager owns at most one live session at a time, mirroring the single
// global loop instance the API drives.
type Manager struct {
	factory Factory
	hub     *Hub

	mu        sync.Mutex
	runner    Runner
	sessionID string
	mode      string
	done      chan struct{}
}

// NewManager creates a manager that builds runners via factory and fans
// events out through hub.
func NewManager(factory Factory, hub *Hub) *Manager {
	return &Manager{factory: factory, hub: hub}
}

// Run starts a session in the given mode. Returns loop.ErrRunning when a
// session is already active.
func (m *Manager) Run(mode string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runner != nil {
		return "", loop.ErrRunning
	}

	r, err := m.factory(mode, m.hub.PublishEvent)
	if err != nil {
		return "", fmt.Errorf("build session: %w", err)
	}

	id := uuid.NewString()
	done := make(chan struct{})
	m.runner = r
	m.sessionID = id
	m.mode = mode
	m.done = done

	go func() {
		defer close(done)
		if err := r.Run(context.Background()); err != nil {
			log.Errorf("[%s] session ended with error: %v", id, err)
			m.hub.PublishEvent(loop.Event{Kind: loop.EventStatus, Text: fmt.Sprintf("session error: %v", err)})
		}
		m.mu.Lock()
		if m.runner == r {
			m.runner = nil
			m.sessionID = ""
			m.mode = ""
		}
		m.mu.Unlock()
	}()

	log.Infof("[%s] session starting (mode=%s)", id, mode)
	return id, nil
}

// Stop ends the active session and waits for its loop to unwind. Stopping
// when nothing runs is not an error.
func (m *Manager) Stop() {
	m.mu.Lock()
	r := m.runner
	done := m.done
	m.mu.Unlock()
	if r == nil {
		return
	}
	r.Stop()
	if done != nil {
		<-done
	}
}

// SendText forwards a text turn to the active session.
func (m *Manager) SendText(text string) error {
	m.mu.Lock()
	r := m.runner
	m.mu.Unlock()
	if r == nil {
		return loop.ErrNotRunning
	}
	return r.SendText(text)
}

// Status reports the active session, if any.
func (m *Manager) Status() (loop.Status, string) {
	m.mu.Lock()
	r := m.runner
	id := m.sessionID
	m.mu.Unlock()
	if r == nil {
		return loop.Status{}, ""
	}
	return r.Status(), id
}
