package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"

	"notes-backend/internal/capture"
	"notes-backend/internal/notes"
	"notes-backend/internal/pipeline"
	"notes-backend/internal/queue"
	"notes-backend/internal/shared/storage/object"
	"notes-backend/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingField indicates a message without a required field.
type ErrMissingField struct {
	Meta      MessageMeta
	Field     string
	RequestID string
}

func (e ErrMissingField) Error() string { return "missing " + e.Field }

// ErrProcess indicates processing failed after successful parsing. Retryable
// failures leave the message on the queue; the rest are final.
type ErrProcess struct {
	RecordingID string
	RequestID   string
	Retryable   bool
	Err         error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process recording"
	}
	return "process recording: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	for field, value := range map[string]string{
		"recording id": msg.RecordingID,
		"user id":      msg.UserID,
		"audio path":   msg.AudioPath,
	} {
		if strings.TrimSpace(value) == "" {
			return msg, meta, ErrMissingField{Meta: meta, Field: field, RequestID: msg.RequestID}
		}
	}
	if _, err := capture.ParseSource(msg.Source); err != nil {
		return msg, meta, ErrMissingField{Meta: meta, Field: "source", RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// Processor runs a recording through the pipeline.
type Processor interface {
	Process(ctx context.Context, job pipeline.Job, observe pipeline.Observer) (notes.Note, error)
}

// Runner turns queued recordings into notes.
type Runner struct {
	Store     object.ObjectStore
	Processor Processor
}

// HandleMessage parses, validates, and processes a message payload. The
// uploaded audio is removed once the pipeline has finished with it.
func (r *Runner) HandleMessage(ctx context.Context, body string) error {
	if r == nil || r.Processor == nil || r.Store == nil {
		return errors.New("recording pipeline not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	src, err := capture.ParseSource(msg.Source)
	if err != nil {
		return ErrMissingField{Meta: ComputeMeta(body), Field: "source", RequestID: msg.RequestID}
	}

	audio, err := r.Store.Open(ctx, msg.AudioPath)
	if err != nil {
		return ErrProcess{
			RecordingID: msg.RecordingID,
			RequestID:   msg.RequestID,
			Retryable:   !errors.Is(err, object.ErrObjectNotFound),
			Err:         err,
		}
	}
	defer audio.Close()

	_, procErr := r.Processor.Process(ctx, pipeline.Job{
		RecordingID:     msg.RecordingID,
		OwnerID:         msg.UserID,
		Participant:     msg.Participant,
		Source:          src,
		DurationSeconds: msg.DurationSeconds,
		MeetingTitle:    msg.MeetingTitle,
		FileName:        path.Base(msg.AudioPath),
		Audio:           audio,
	}, nil)

	if err := r.Store.Delete(context.WithoutCancel(ctx), msg.AudioPath); err != nil {
		telemetry.Warn("worker.recording.audio_delete_failed", map[string]any{
			"recording_id": msg.RecordingID,
			"audio_path":   msg.AudioPath,
			"error":        err.Error(),
		})
	}
	if procErr != nil {
		return ErrProcess{RecordingID: msg.RecordingID, RequestID: msg.RequestID, Err: procErr}
	}
	return nil
}
