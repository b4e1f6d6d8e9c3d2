package notes

import (
	"context"
	"time"
)

// Repo persists notes, participants and Q&A pairs.
type Repo interface {
	// Create inserts the note and its participants atomically.
	Create(ctx context.Context, note Note) error
	GetByID(ctx context.Context, userID, noteID string) (Note, error)
	ListByUser(ctx context.Context, userID string) ([]Note, error)
	// Update writes the mutable columns of note.
	Update(ctx context.Context, note Note) error
	Delete(ctx context.Context, userID, noteID string) error
	ClearAudio(ctx context.Context, noteID string) error
	ListAudioOlderThan(ctx context.Context, cutoff time.Time) ([]AudioRef, error)
	ListSummarizedWithAudio(ctx context.Context) ([]AudioRef, error)
	AddQuestion(ctx context.Context, qa QAPair) error
	ListQuestions(ctx context.Context, noteID string) ([]QAPair, error)
}
