package recordings

import (
	"sync"
	"time"

	"notes-backend/internal/capture"
	"notes-backend/internal/pipeline"
	"notes-backend/internal/shared/telemetry"
)

const defaultKeep = time.Hour

// Entry is what the tracker knows about one recording.
type Entry struct {
	ID           string
	OwnerID      string
	Source       capture.Source
	MeetingTitle string
	State        pipeline.State
	Duration     int
	Session      *capture.Session
	UpdatedAt    time.Time
}

// Elapsed is the live timer while recording and the final duration after.
func (e Entry) Elapsed() int {
	if e.Session != nil && e.State.Kind == pipeline.KindRecording {
		return e.Session.Elapsed()
	}
	return e.Duration
}

// Tracker keeps the last pipeline state per recording id. Finished entries
// are dropped after Keep.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*Entry
	Keep    time.Duration
	Now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*Entry), Keep: defaultKeep, Now: time.Now}
}

// Add registers a new recording in the Recording state.
func (t *Tracker) Add(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	e.State = pipeline.Recording(false)
	e.UpdatedAt = t.Now()
	t.entries[e.ID] = &e
}

// Get returns the entry if it belongs to ownerID.
func (t *Tracker) Get(id, ownerID string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok || e.OwnerID != ownerID {
		return Entry{}, false
	}
	return *e, true
}

// Set moves the recording to next. Invalid transitions are logged and
// ignored so a late observer can never rewind a finished recording.
func (t *Tracker) Set(id string, next pipeline.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return
	}
	state, err := e.State.Transition(next)
	if err != nil {
		telemetry.Warn("recordings.transition_rejected", map[string]any{"recording_id": id, "error": err.Error()})
		return
	}
	e.State = state
	e.UpdatedAt = t.Now()
}

// Finish records the stopped duration and releases the session reference.
func (t *Tracker) Finish(id string, duration int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		e.Duration = duration
		e.Session = nil
	}
}

// Observer adapts Set for pipeline.Processor.
func (t *Tracker) Observer(id string) pipeline.Observer {
	return func(s pipeline.State) { t.Set(id, s) }
}

func (t *Tracker) pruneLocked() {
	cutoff := t.Now().Add(-t.Keep)
	for id, e := range t.entries {
		if (e.State.Terminal() || e.State.Kind == pipeline.KindIdle) && e.UpdatedAt.Before(cutoff) {
			delete(t.entries, id)
		}
	}
}
