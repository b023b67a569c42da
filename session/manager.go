package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"timeline-editor/preset"
)

var ErrBusy = errors.New("drag gesture already in progress")
var ErrNotFound = errors.New("drag gesture not found")

// Manager enforces a single active drag gesture process-wide.
type Manager struct {
	mu     sync.Mutex
	active *Session
}

func NewManager() *Manager {
	return &Manager{}
}

// Begin arms a new gesture for item on preset p. It fails with ErrBusy while
// another gesture is still armed, dragging or previewing.
func (m *Manager) Begin(p preset.Preset, item Item) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.Done() {
		return nil, ErrBusy
	}

	s := &Session{
		ID:        uuid.New().String(),
		PresetID:  p.ID,
		StartedAt: time.Now(),
	}
	if err := s.start(item, p); err != nil {
		return nil, err
	}
	m.active = s
	return s, nil
}

// Active returns the gesture in progress, if any.
func (m *Manager) Active() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.Done() {
		return nil, false
	}
	return m.active, true
}

// State reports the process-wide drag state: Idle when no gesture is live.
func (m *Manager) State() State {
	if s, ok := m.Active(); ok {
		return s.State()
	}
	return Idle
}

// Get returns the gesture with the given id if it is the current one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.ID != id {
		return nil, false
	}
	return m.active, true
}

// Cancel aborts the gesture with the given id and releases the slot.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ID != id {
		return ErrNotFound
	}
	m.active.Cancel()
	m.active = nil
	return nil
}

// Finish releases s if it is still the current gesture. Unfinished gestures
// are cancelled first.
func (m *Manager) Finish(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != s {
		return
	}
	s.Cancel()
	m.active = nil
}
