package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single chat completion call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatClient sends chat completions to a hosted model.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// TranscriptionRequest is a single speech-to-text upload.
type TranscriptionRequest struct {
	Model          string
	Language       string
	ResponseFormat string
	FileName       string
	Audio          io.Reader
}

// SpeechClient turns recorded audio into text.
type SpeechClient interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}

// UpstreamError carries the provider's own error message when it sent one.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s http status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Status, e.Message)
}

// UpstreamMessage returns the provider message carried by err, if any.
func UpstreamMessage(err error) string {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Message
	}
	return ""
}

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("llm provider not configured")

// Unconfigured stands in when no API key is set so the API can still serve
// stored notes; every call fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	return "", ErrNotConfigured
}
