package retention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestRunSweepsAtStartAndOnTick(t *testing.T) {
	sweeper := &countingSweeper{}
	r := &Runner{Sweeper: sweeper, Interval: 10 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunKeepsGoingAfterFailure(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("store unavailable")}
	r := &Runner{Sweeper: sweeper, Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRunOnce(t *testing.T) {
	sweeper := &countingSweeper{}
	r := &Runner{Sweeper: sweeper}
	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, sweeper.calls.Load())
}
