package notes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	notes     map[string]Note
	questions map[string][]QAPair
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		notes:     make(map[string]Note),
		questions: make(map[string][]QAPair),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, note Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	note.Participants = append([]string(nil), note.Participants...)
	note.AudioURL = ""
	r.notes[note.ID] = note
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, noteID string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return Note{}, ErrNotFound
	}
	return cloneNote(n), nil
}

// ListByUser returns the user's notes, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Note, 0)
	for _, n := range r.notes {
		if n.UserID == userID {
			out = append(out, cloneNote(n))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, note Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.notes[note.ID]
	if !ok || cur.UserID != note.UserID {
		return ErrNotFound
	}
	cur.Title = note.Title
	cur.Description = note.Description
	cur.Transcript = note.Transcript
	cur.Summary = note.Summary
	cur.AudioPath = note.AudioPath
	cur.UpdatedAt = note.UpdatedAt
	r.notes[note.ID] = cur
	return nil
}

// Delete removes the note; participants and questions go with it.
func (r *MemoryRepo) Delete(ctx context.Context, userID, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	delete(r.notes, noteID)
	delete(r.questions, noteID)
	return nil
}

func (r *MemoryRepo) ClearAudio(ctx context.Context, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return nil
	}
	n.AudioPath = ""
	r.notes[noteID] = n
	return nil
}

func (r *MemoryRepo) ListAudioOlderThan(ctx context.Context, cutoff time.Time) ([]AudioRef, error) {
	return r.audioRefs(ctx, func(n Note) bool { return n.CreatedAt.Before(cutoff) })
}

func (r *MemoryRepo) ListSummarizedWithAudio(ctx context.Context) ([]AudioRef, error) {
	return r.audioRefs(ctx, func(n Note) bool { return n.Summary != "" })
}

func (r *MemoryRepo) audioRefs(ctx context.Context, match func(Note) bool) ([]AudioRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AudioRef
	for _, n := range r.notes {
		if n.AudioPath != "" && match(n) {
			out = append(out, AudioRef{NoteID: n.ID, UserID: n.UserID, AudioPath: n.AudioPath, CreatedAt: n.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) AddQuestion(ctx context.Context, qa QAPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[qa.NoteID]; !ok {
		return ErrNotFound
	}
	r.questions[qa.NoteID] = append(r.questions[qa.NoteID], qa)
	return nil
}

// ListQuestions returns pairs in creation order.
func (r *MemoryRepo) ListQuestions(ctx context.Context, noteID string) ([]QAPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]QAPair{}, r.questions[noteID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneNote(n Note) Note {
	n.Participants = append([]string(nil), n.Participants...)
	return n
}
