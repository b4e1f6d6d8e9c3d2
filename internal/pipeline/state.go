package pipeline

import (
	"errors"
	"fmt"
)

// Kind names a pipeline state.
type Kind string

const (
	KindIdle       Kind = "idle"
	KindRecording  Kind = "recording"
	KindProcessing Kind = "processing"
	KindPersisted  Kind = "persisted"
	KindFailed     Kind = "failed"
	// KindQueued means the audio was handed to the worker; this process
	// learns nothing further about it. The note appears in the list once
	// the worker persists it.
	KindQueued Kind = "queued"
)

// Stage is the step a processing pipeline is on.
type Stage string

const (
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageTitling      Stage = "titling"
	StagePersisting   Stage = "persisting"
)

var stageOrder = map[Stage]int{
	StageTranscribing: 0,
	StageSummarizing:  1,
	StageTitling:      2,
	StagePersisting:   3,
}

// ErrInvalidTransition is returned when a state change is not allowed.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// State is the single source of truth for a recording's lifecycle. Only the
// fields belonging to Kind are meaningful.
type State struct {
	Kind   Kind   `json:"kind"`
	Paused bool   `json:"paused,omitempty"`
	Stage  Stage  `json:"stage,omitempty"`
	NoteID string `json:"noteId,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func Idle() State { return State{Kind: KindIdle} }

func Recording(paused bool) State { return State{Kind: KindRecording, Paused: paused} }

func Processing(stage Stage) State { return State{Kind: KindProcessing, Stage: stage} }

func Persisted(noteID string) State { return State{Kind: KindPersisted, NoteID: noteID} }

func Failed(reason string) State { return State{Kind: KindFailed, Reason: reason} }

func Queued() State { return State{Kind: KindQueued} }

// Terminal reports whether no further transition is expected.
func (s State) Terminal() bool {
	return s.Kind == KindPersisted || s.Kind == KindFailed || s.Kind == KindQueued
}

func (s State) String() string {
	switch s.Kind {
	case KindRecording:
		if s.Paused {
			return "recording(paused)"
		}
		return "recording"
	case KindProcessing:
		return fmt.Sprintf("processing(%s)", s.Stage)
	case KindPersisted:
		return fmt.Sprintf("persisted(%s)", s.NoteID)
	case KindFailed:
		return fmt.Sprintf("failed(%s)", s.Reason)
	default:
		return string(s.Kind)
	}
}

// Affordances is what a client may offer the user in a given state.
type Affordances struct {
	CanStart  bool `json:"canStart"`
	CanPause  bool `json:"canPause"`
	CanResume bool `json:"canResume"`
	CanStop   bool `json:"canStop"`
	Busy      bool `json:"busy"`
}

// Affordances derives every control from the variant alone.
func (s State) Affordances() Affordances {
	switch s.Kind {
	case KindRecording:
		return Affordances{CanPause: !s.Paused, CanResume: s.Paused, CanStop: true}
	case KindProcessing:
		return Affordances{Busy: true}
	default:
		return Affordances{CanStart: true}
	}
}

// Transition validates moving from s to next.
func (s State) Transition(next State) (State, error) {
	ok := false
	switch s.Kind {
	case KindIdle:
		ok = next.Kind == KindRecording && !next.Paused
	case KindRecording:
		switch next.Kind {
		case KindRecording:
			ok = next.Paused != s.Paused
		case KindProcessing:
			ok = next.Stage == StageTranscribing
		case KindFailed, KindIdle, KindQueued:
			ok = true
		}
	case KindProcessing:
		switch next.Kind {
		case KindProcessing:
			ok = stageOrder[next.Stage] == stageOrder[s.Stage]+1
		case KindPersisted:
			ok = s.Stage == StagePersisting && next.NoteID != ""
		case KindFailed:
			ok = true
		}
	case KindPersisted, KindFailed, KindQueued:
		ok = next.Kind == KindIdle
	}
	if !ok {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}
