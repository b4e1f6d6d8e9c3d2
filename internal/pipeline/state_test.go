package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffordances(t *testing.T) {
	tests := []struct {
		state State
		want  Affordances
	}{
		{Idle(), Affordances{CanStart: true}},
		{Recording(false), Affordances{CanPause: true, CanStop: true}},
		{Recording(true), Affordances{CanResume: true, CanStop: true}},
		{Processing(StageSummarizing), Affordances{Busy: true}},
		{Persisted("n1"), Affordances{CanStart: true}},
		{Failed("boom"), Affordances{CanStart: true}},
		{Queued(), Affordances{CanStart: true}},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Affordances())
		})
	}
}

func TestTransitionHappyPath(t *testing.T) {
	steps := []State{
		Recording(false),
		Recording(true),
		Recording(false),
		Processing(StageTranscribing),
		Processing(StageSummarizing),
		Processing(StageTitling),
		Processing(StagePersisting),
		Persisted("n1"),
		Idle(),
	}
	cur := Idle()
	for _, next := range steps {
		var err error
		cur, err = cur.Transition(next)
		require.NoError(t, err, "to %s", next)
	}
}

func TestTransitionRejects(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to processing", Idle(), Processing(StageTranscribing)},
		{"skip stage", Processing(StageTranscribing), Processing(StageTitling)},
		{"persist before persisting", Processing(StageSummarizing), Persisted("n1")},
		{"pause twice", Recording(true), Recording(true)},
		{"failed to recording", Failed("x"), Recording(false)},
		{"recording straight to persisted", Recording(false), Persisted("n1")},
		{"queued after processing started", Processing(StageTranscribing), Queued()},
		{"queued back to processing", Queued(), Processing(StageTranscribing)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Transition(tt.to)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, got)
		})
	}
}

func TestFailedReachableFromAnyStage(t *testing.T) {
	for _, st := range []Stage{StageTranscribing, StageSummarizing, StageTitling, StagePersisting} {
		_, err := Processing(st).Transition(Failed("x"))
		assert.NoError(t, err)
	}
}

func TestQueuedHandsOff(t *testing.T) {
	got, err := Recording(true).Transition(Queued())
	require.NoError(t, err)
	assert.True(t, got.Terminal())
	assert.Equal(t, "queued", got.String())

	_, err = got.Transition(Idle())
	assert.NoError(t, err)
}
