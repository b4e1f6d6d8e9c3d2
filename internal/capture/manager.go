package capture

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// StartRequest describes a new capture.
type StartRequest struct {
	OwnerID    string
	Source     Source
	Device     Device
	OnComplete func(Recording)
}

// Manager tracks live sessions. Each owner may hold one at a time since a
// client drives a single recorder.
type Manager struct {
	mu      sync.Mutex
	clock   Clock
	device  Device
	byID    map[string]*Session
	byOwner map[string]*Session
	newID   func() string
}

// NewManager returns a Manager. device is used when a request carries none.
func NewManager(device Device, clock Clock) *Manager {
	if clock == nil {
		clock = SystemClock
	}
	return &Manager{
		clock:   clock,
		device:  device,
		byID:    make(map[string]*Session),
		byOwner: make(map[string]*Session),
		newID:   func() string { return uuid.NewString() },
	}
}

// Start acquires the device and opens a session. On failure nothing is kept.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Session, Constraints, error) {
	if req.Source != SourceMicrophone && req.Source != SourceSystem {
		return nil, Constraints{}, ErrInvalidSource
	}
	constraints := ConstraintsFor(req.Source)

	m.mu.Lock()
	if _, busy := m.byOwner[req.OwnerID]; busy {
		m.mu.Unlock()
		return nil, Constraints{}, ErrRecordingInProgress
	}
	// Reserve the owner slot while the device is being acquired.
	placeholder := &Session{}
	m.byOwner[req.OwnerID] = placeholder
	m.mu.Unlock()

	device := req.Device
	if device == nil {
		device = m.device
	}
	if device == nil {
		device = ClientGrant{Granted: true}
	}
	track, err := device.Acquire(ctx, req.Source, constraints)
	if err != nil {
		m.mu.Lock()
		delete(m.byOwner, req.OwnerID)
		m.mu.Unlock()
		return nil, Constraints{}, err
	}

	now := m.clock.Now()
	s := &Session{
		id:         m.newID(),
		owner:      req.OwnerID,
		source:     req.Source,
		track:      track,
		clock:      m.clock,
		startedAt:  now,
		runningAt:  now,
		onComplete: req.OnComplete,
		release:    m.release,
	}

	m.mu.Lock()
	m.byID[s.id] = s
	m.byOwner[req.OwnerID] = s
	m.mu.Unlock()
	return s, constraints, nil
}

// Get returns the live session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Active reports the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, s.id)
	if cur, ok := m.byOwner[s.owner]; ok && cur == s {
		delete(m.byOwner, s.owner)
	}
}
