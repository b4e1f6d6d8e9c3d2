package capture

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Track is an acquired hardware stream. Stop releases the device.
type Track interface {
	Stop()
}

// Device acquires tracks for a source.
type Device interface {
	Acquire(ctx context.Context, src Source, c Constraints) (Track, error)
}

// Clock abstracts wall time for the elapsed timer.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}

// ClientGrant is the Device used when the browser owns the hardware: the
// client reports whether the user granted access.
type ClientGrant struct {
	Granted bool
	Reason  string
}

func (g ClientGrant) Acquire(ctx context.Context, src Source, c Constraints) (Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !g.Granted {
		reason := strings.TrimSpace(g.Reason)
		if reason == "" {
			reason = "permission denied"
		}
		return nil, &PermissionError{Source: src, Reason: reason}
	}
	return &releaseTrack{}, nil
}

// releaseTrack records whether Stop was called.
type releaseTrack struct {
	once    sync.Once
	stopped bool
}

func (t *releaseTrack) Stop() {
	t.once.Do(func() { t.stopped = true })
}
