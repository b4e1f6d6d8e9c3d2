package notes

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/storage/object"
	"notes-backend/internal/shared/telemetry"
)

const (
	// DefaultSignedURLTTL is the lifetime requested for audio links.
	DefaultSignedURLTTL = 365 * 24 * time.Hour
	// DefaultRetention is how long recorded audio is kept.
	DefaultRetention = 20 * 24 * time.Hour
)

// Answerer answers a question from a transcript.
type Answerer interface {
	Answer(ctx context.Context, question, transcript string) (string, error)
}

// Service contains business logic for notes.
type Service struct {
	Repo         Repo
	Store        object.ObjectStore
	Answerer     Answerer
	SignedURLTTL time.Duration
	RetentionAge time.Duration
	Now          func() time.Time
	NewID        func() string
}

// CreateInput describes a new note. Audio is optional.
type CreateInput struct {
	UserID          string
	Title           string
	Description     string
	Transcript      string
	Summary         string
	DurationSeconds int
	MeetingType     string
	Icon            string
	Participants    []string
	Audio           io.Reader
}

// Patch carries the fields to change on a note. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Transcript  *string
	Summary     *string
	ClearAudio  bool
}

// Create stores the audio first (never overwriting), signs a link to it, then
// inserts the note with its participants. A failed insert removes the blob.
// Audio is not kept for a note that already has a summary.
func (s *Service) Create(ctx context.Context, in CreateInput) (Note, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Note{}, invalid("user id required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Note{}, invalid("title required")
	}

	now := s.now()
	note := Note{
		ID:              s.newID(),
		UserID:          in.UserID,
		Title:           in.Title,
		Description:     in.Description,
		Transcript:      in.Transcript,
		Summary:         in.Summary,
		DurationSeconds: in.DurationSeconds,
		MeetingType:     in.MeetingType,
		Icon:            in.Icon,
		Participants:    cleanParticipants(in.Participants),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if note.DurationSeconds < 0 {
		note.DurationSeconds = 0
	}

	if in.Audio != nil && note.Summary != "" {
		telemetry.Info("notes.audio_skipped", map[string]any{"note_id": note.ID, "reason": "summarized"})
	}
	if in.Audio != nil && note.Summary == "" {
		key, err := object.AudioKey(note.UserID, note.ID)
		if err != nil {
			return Note{}, invalid(err.Error())
		}
		if _, err := s.Store.Put(ctx, key, object.AudioContentType, in.Audio); err != nil {
			return Note{}, storeErr("upload audio", err)
		}
		url, err := s.Store.SignedURL(ctx, key, s.signedURLTTL())
		if err != nil {
			s.discardBlob(ctx, key)
			return Note{}, storeErr("sign audio url", err)
		}
		note.AudioPath = key
		note.AudioURL = url
	}

	if err := s.Repo.Create(ctx, note); err != nil {
		if note.AudioPath != "" {
			s.discardBlob(ctx, note.AudioPath)
		}
		return Note{}, storeErr("insert note", err)
	}
	return note, nil
}

// CreateManual stores a typed note. Title or content must be non-blank.
func (s *Service) CreateManual(ctx context.Context, userID, title, content string) (Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return Note{}, invalid("note must have a title or content")
	}
	if title == "" {
		title = "Untitled Note"
	}
	return s.Create(ctx, CreateInput{
		UserID:      userID,
		Title:       "Manual: " + title,
		Description: content,
		MeetingType: MeetingTypeManual,
		Icon:        IconManual,
	})
}

// List returns the user's notes newest first. Notes without participants
// list fallbackParticipant. Audio links that fail to sign are left empty.
func (s *Service) List(ctx context.Context, userID, fallbackParticipant string) ([]Note, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user id required")
	}
	list, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list notes", err)
	}
	for i := range list {
		s.decorate(ctx, &list[i], fallbackParticipant)
	}
	return list, nil
}

// Get returns one note.
func (s *Service) Get(ctx context.Context, userID, noteID, fallbackParticipant string) (Note, error) {
	note, err := s.Repo.GetByID(ctx, userID, noteID)
	if err != nil {
		return Note{}, storeErr("get note", err)
	}
	s.decorate(ctx, &note, fallbackParticipant)
	return note, nil
}

// Update applies p. Setting a summary always drops the audio.
func (s *Service) Update(ctx context.Context, userID, noteID string, p Patch) (Note, error) {
	note, err := s.Repo.GetByID(ctx, userID, noteID)
	if err != nil {
		return Note{}, storeErr("get note", err)
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Note{}, invalid("title cannot be empty")
		}
		note.Title = title
	}
	if p.Description != nil {
		note.Description = *p.Description
	}
	if p.Transcript != nil {
		note.Transcript = *p.Transcript
	}
	dropAudio := p.ClearAudio
	if p.Summary != nil {
		note.Summary = *p.Summary
		if note.Summary != "" {
			dropAudio = true
		}
	}
	if dropAudio && note.AudioPath != "" {
		if err := s.Store.Delete(ctx, note.AudioPath); err != nil {
			return Note{}, storeErr("delete audio", err)
		}
		note.AudioPath = ""
	}
	note.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, note); err != nil {
		return Note{}, storeErr("update note", err)
	}
	note.AudioURL = ""
	return note, nil
}

// Delete removes the blob, then the row with its participants and questions.
func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	note, err := s.Repo.GetByID(ctx, userID, noteID)
	if err != nil {
		return storeErr("get note", err)
	}
	if note.AudioPath != "" {
		if err := s.Store.Delete(ctx, note.AudioPath); err != nil {
			return storeErr("delete audio", err)
		}
	}
	if err := s.Repo.Delete(ctx, userID, noteID); err != nil {
		return storeErr("delete note", err)
	}
	return nil
}

// Ask answers question from the note's transcript and appends the pair.
// Blank questions and notes without a transcript are refused before any
// model call.
func (s *Service) Ask(ctx context.Context, userID, noteID, question string) (QAPair, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return QAPair{}, invalid("question is required")
	}
	note, err := s.Repo.GetByID(ctx, userID, noteID)
	if err != nil {
		return QAPair{}, storeErr("get note", err)
	}
	if strings.TrimSpace(note.Transcript) == "" {
		return QAPair{}, ErrNoTranscript
	}
	if s.Answerer == nil {
		return QAPair{}, errors.New("question answering not configured")
	}

	answer, err := s.Answerer.Answer(ctx, question, note.Transcript)
	if err != nil {
		return QAPair{}, err
	}
	now := s.now()
	qa := QAPair{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		NoteID:    note.ID,
		Question:  question,
		Answer:    answer,
		CreatedAt: now,
	}
	if err := s.Repo.AddQuestion(ctx, qa); err != nil {
		return QAPair{}, storeErr("save answer", err)
	}
	metrics.IncQuestionsAnswered()
	return qa, nil
}

// ListQuestions returns the note's Q&A history in creation order.
func (s *Service) ListQuestions(ctx context.Context, userID, noteID string) ([]QAPair, error) {
	if _, err := s.Repo.GetByID(ctx, userID, noteID); err != nil {
		return nil, storeErr("get note", err)
	}
	list, err := s.Repo.ListQuestions(ctx, noteID)
	if err != nil {
		return nil, storeErr("list questions", err)
	}
	return list, nil
}

func (s *Service) decorate(ctx context.Context, n *Note, fallbackParticipant string) {
	if len(n.Participants) == 0 && fallbackParticipant != "" {
		n.Participants = []string{fallbackParticipant}
	}
	if n.AudioPath == "" {
		return
	}
	url, err := s.Store.SignedURL(ctx, n.AudioPath, s.signedURLTTL())
	if err != nil {
		telemetry.Warn("notes.sign_url_failed", map[string]any{"note_id": n.ID, "error": err})
		return
	}
	n.AudioURL = url
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Error("notes.discard_audio_failed", map[string]any{"audio_path": key, "error": err})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) signedURLTTL() time.Duration {
	if s.SignedURLTTL > 0 {
		return s.SignedURLTTL
	}
	return DefaultSignedURLTTL
}

func (s *Service) retentionAge() time.Duration {
	if s.RetentionAge > 0 {
		return s.RetentionAge
	}
	return DefaultRetention
}

func cleanParticipants(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
