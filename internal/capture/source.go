package capture

import (
	"strings"
)

// Source selects the audio input.
type Source string

const (
	SourceMicrophone Source = "microphone"
	SourceSystem     Source = "system"
)

// ParseSource accepts "microphone"/"mic" and "system"/"screen"/"display".
func ParseSource(raw string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "microphone", "mic":
		return SourceMicrophone, nil
	case "system", "screen", "display":
		return SourceSystem, nil
	default:
		return "", ErrInvalidSource
	}
}

// Constraints are the media constraints the client must acquire the device with.
type Constraints struct {
	EchoCancellation bool `json:"echoCancellation"`
	NoiseSuppression bool `json:"noiseSuppression"`
	SampleRate       int  `json:"sampleRate"`
	Video            bool `json:"video"`
}

// ConstraintsFor returns the capture constraints for src. System capture goes
// through display media, which requires a video track.
func ConstraintsFor(src Source) Constraints {
	return Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		SampleRate:       44100,
		Video:            src == SourceSystem,
	}
}
