package assist

import (
	"notes-backend/internal/llm"
)

const (
	transcriptionFailed = "Transcription failed"
	summaryFailed       = "Summary generation failed"
	titleFailed         = "Title generation failed"
	qaFailed            = "Question answering failed"
)

// TranscriptionError is returned when the speech endpoint fails.
type TranscriptionError struct {
	Message string
	Err     error
}

func (e *TranscriptionError) Error() string { return e.Message }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// SummaryError is returned when summary generation fails.
type SummaryError struct {
	Message string
	Err     error
}

func (e *SummaryError) Error() string { return e.Message }
func (e *SummaryError) Unwrap() error { return e.Err }

// TitleError records a failed title request. It never escapes Titler.Generate
// as an error; it rides along on TitleResult.
type TitleError struct {
	Message string
	Err     error
}

func (e *TitleError) Error() string { return e.Message }
func (e *TitleError) Unwrap() error { return e.Err }

// QAError is returned when answering a question fails.
type QAError struct {
	Message string
	Err     error
}

func (e *QAError) Error() string { return e.Message }
func (e *QAError) Unwrap() error { return e.Err }

// upstreamOr prefers the provider's message and falls back to def.
func upstreamOr(err error, def string) string {
	if msg := llm.UpstreamMessage(err); msg != "" {
		return msg
	}
	return def
}
