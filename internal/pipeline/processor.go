package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"notes-backend/internal/assist"
	"notes-backend/internal/capture"
	"notes-backend/internal/notes"
	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/telemetry"
)

const descriptionLength = 200

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type Titler interface {
	Generate(ctx context.Context, text string) assist.TitleResult
}

// NoteStore is the part of the note service the pipeline writes through.
type NoteStore interface {
	Create(ctx context.Context, in notes.CreateInput) (notes.Note, error)
	Get(ctx context.Context, userID, noteID, fallbackParticipant string) (notes.Note, error)
	Update(ctx context.Context, userID, noteID string, p notes.Patch) (notes.Note, error)
}

// Job is one finished recording waiting to become a note.
type Job struct {
	RecordingID     string
	OwnerID         string
	Participant     string
	Source          capture.Source
	DurationSeconds int
	MeetingTitle    string
	FileName        string
	Audio           io.Reader
}

// Processor turns recordings into notes. Steps run strictly in order and a
// failure at any step persists nothing.
type Processor struct {
	Transcriber Transcriber
	Summarizer  Summarizer
	Titler      Titler
	Notes       NoteStore
}

// Observer receives each state the pipeline enters.
type Observer func(State)

// Process runs transcribe, summarize, title and persist. It is detached from
// ctx cancellation: once started the run completes.
func (p *Processor) Process(ctx context.Context, job Job, observe Observer) (notes.Note, error) {
	ctx = context.WithoutCancel(ctx)
	if observe == nil {
		observe = func(State) {}
	}
	start := time.Now()
	metrics.IncPipelineStarted()
	fields := map[string]any{"recording_id": job.RecordingID, "user_id": job.OwnerID, "source": string(job.Source)}

	note, err := p.run(ctx, job, observe)
	metrics.ObservePipelineDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncPipelineFailed()
		fields["error"] = err.Error()
		telemetry.Error("pipeline.failed", fields)
		observe(Failed(Reason(err)))
		return notes.Note{}, err
	}
	metrics.IncPipelineCompleted()
	fields["note_id"] = note.ID
	fields["duration_ms"] = time.Since(start).Milliseconds()
	telemetry.Info("pipeline.persisted", fields)
	observe(Persisted(note.ID))
	return note, nil
}

func (p *Processor) run(ctx context.Context, job Job, observe Observer) (notes.Note, error) {
	if job.Audio == nil {
		return notes.Note{}, errors.New("recording has no audio")
	}

	observe(Processing(StageTranscribing))
	transcript, err := p.Transcriber.Transcribe(ctx, job.Audio, job.FileName)
	if err != nil {
		return notes.Note{}, err
	}

	observe(Processing(StageSummarizing))
	summary, err := p.Summarizer.Summarize(ctx, transcript)
	if err != nil {
		return notes.Note{}, err
	}

	observe(Processing(StageTitling))
	title := p.title(ctx, summary, job.MeetingTitle, job.Source == capture.SourceSystem)

	observe(Processing(StagePersisting))
	meetingType, icon := notes.MeetingTypeVoice, notes.IconVoice
	if job.Source == capture.SourceSystem {
		meetingType, icon = notes.MeetingTypeScreen, notes.IconScreen
	}
	var participants []string
	if job.Participant != "" {
		participants = []string{job.Participant}
	}
	return p.Notes.Create(ctx, notes.CreateInput{
		UserID:          job.OwnerID,
		Title:           title,
		Description:     Description(transcript),
		Transcript:      transcript,
		Summary:         summary,
		DurationSeconds: job.DurationSeconds,
		MeetingType:     meetingType,
		Icon:            icon,
		Participants:    participants,
	})
}

// Resummarize summarizes a stored transcript again, regenerates the title and
// attaches the summary, which drops any remaining audio.
func (p *Processor) Resummarize(ctx context.Context, userID, noteID string) (notes.Note, error) {
	ctx = context.WithoutCancel(ctx)
	note, err := p.Notes.Get(ctx, userID, noteID, "")
	if err != nil {
		return notes.Note{}, err
	}
	if strings.TrimSpace(note.Transcript) == "" {
		return notes.Note{}, notes.ErrNoTranscript
	}
	summary, err := p.Summarizer.Summarize(ctx, note.Transcript)
	if err != nil {
		return notes.Note{}, err
	}
	title := p.title(ctx, summary, "", note.MeetingType == notes.MeetingTypeScreen)
	return p.Notes.Update(ctx, userID, noteID, notes.Patch{Title: &title, Summary: &summary})
}

func (p *Processor) title(ctx context.Context, summary, meetingTitle string, meeting bool) string {
	res := p.Titler.Generate(ctx, summary)
	if res.Fallback {
		metrics.IncTitleFallback()
		telemetry.Warn("pipeline.title_fallback", map[string]any{"error": res.Err})
	}
	base := strings.TrimSpace(meetingTitle)
	if base == "" {
		base = res.Title
	}
	return PrefixTitle(base, meeting)
}

// PrefixTitle adds "Meeting: " or "Voice: " unless either prefix is present.
func PrefixTitle(title string, meeting bool) string {
	if strings.HasPrefix(title, "Meeting:") || strings.HasPrefix(title, "Voice:") {
		return title
	}
	if meeting {
		return "Meeting: " + title
	}
	return "Voice: " + title
}

// Description is the first 200 characters of the transcript with a
// trailing ellipsis.
func Description(transcript string) string {
	r := []rune(transcript)
	if len(r) > descriptionLength {
		r = r[:descriptionLength]
	}
	return string(r) + "..."
}

// Reason maps a pipeline error to the message shown to the user.
func Reason(err error) string {
	var (
		te *assist.TranscriptionError
		se *assist.SummaryError
		st *notes.StoreError
	)
	switch {
	case errors.As(err, &te):
		return te.Message
	case errors.As(err, &se):
		return se.Message
	case errors.As(err, &st):
		return "Failed to save note"
	default:
		return "Failed to process recording"
	}
}
