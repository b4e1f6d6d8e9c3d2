package assist

import (
	"context"
	"io"

	"notes-backend/internal/llm"
	"notes-backend/internal/shared/config"
)

// Transcriber sends finished recordings to the speech endpoint. Single attempt.
type Transcriber struct {
	Client         llm.SpeechClient
	Model          string
	Language       string
	ResponseFormat string
}

// NewTranscriber builds a Transcriber from AI settings.
func NewTranscriber(client llm.SpeechClient, cfg config.AIConfig) *Transcriber {
	return &Transcriber{
		Client:         client,
		Model:          cfg.SpeechModel,
		Language:       cfg.Language,
		ResponseFormat: cfg.ResponseFormat,
	}
}

// Transcribe returns the transcript text or a *TranscriptionError.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	if fileName == "" {
		fileName = "audio.webm"
	}
	text, err := t.Client.Transcribe(ctx, llm.TranscriptionRequest{
		Model:          t.Model,
		Language:       t.Language,
		ResponseFormat: t.ResponseFormat,
		FileName:       fileName,
		Audio:          audio,
	})
	if err != nil {
		return "", &TranscriptionError{Message: upstreamOr(err, transcriptionFailed), Err: err}
	}
	return text, nil
}
