package capture

import (
	"bytes"
	"sync"
	"time"
)

// ContentType is the container every finished recording is labelled with.
const ContentType = "audio/webm"

// Recording is a finished capture.
type Recording struct {
	ID          string
	OwnerID     string
	Source      Source
	Blob        []byte
	ContentType string
	Duration    int
	StartedAt   time.Time
	StoppedAt   time.Time
}

// Session is one in-flight capture. All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	id         string
	owner      string
	source     Source
	track      Track
	clock      Clock
	chunks     [][]byte
	size       int
	paused     bool
	closed     bool
	startedAt  time.Time
	runningAt  time.Time
	accum      time.Duration
	onComplete func(Recording)
	release    func(*Session)
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.owner }
func (s *Session) Source() Source  { return s.source }

// Append buffers an encoded chunk. Chunks that arrive while paused are
// dropped, matching a suspended encoder. Reports whether the chunk was kept.
func (s *Session) Append(chunk []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	if s.paused || len(chunk) == 0 {
		return false, nil
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.chunks = append(s.chunks, buf)
	s.size += len(buf)
	return true, nil
}

// Pause freezes the encoder and the timer. No-op unless recording.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.paused {
		return false
	}
	s.accum += s.clock.Now().Sub(s.runningAt)
	s.paused = true
	return true
}

// Resume continues from the frozen timer value. No-op unless paused.
func (s *Session) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.paused {
		return false
	}
	s.runningAt = s.clock.Now()
	s.paused = false
	return true
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Elapsed is the whole number of seconds spent recording, excluding pauses.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.elapsedLocked() / time.Second)
}

// BufferedBytes reports how much encoded audio is held.
func (s *Session) BufferedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Session) elapsedLocked() time.Duration {
	d := s.accum
	if !s.paused && !s.closed {
		d += s.clock.Now().Sub(s.runningAt)
	}
	return d
}

// Stop finalizes the buffered chunks into one blob, releases the device and
// invokes the completion callback.
func (s *Session) Stop() (Recording, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Recording{}, ErrSessionClosed
	}
	now := s.clock.Now()
	elapsed := s.elapsedLocked()
	s.closed = true
	s.accum = elapsed
	rec := Recording{
		ID:          s.id,
		OwnerID:     s.owner,
		Source:      s.source,
		Blob:        bytes.Join(s.chunks, nil),
		ContentType: ContentType,
		Duration:    int(elapsed / time.Second),
		StartedAt:   s.startedAt,
		StoppedAt:   now,
	}
	s.chunks = nil
	onComplete := s.onComplete
	s.mu.Unlock()

	s.finish()
	if onComplete != nil {
		onComplete(rec)
	}
	return rec, nil
}

// Abort discards buffered audio and releases the device.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.chunks = nil
	s.size = 0
	s.mu.Unlock()
	s.finish()
}

func (s *Session) finish() {
	if s.track != nil {
		s.track.Stop()
	}
	if s.release != nil {
		s.release(s)
	}
}
