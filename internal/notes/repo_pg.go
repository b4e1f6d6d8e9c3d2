package notes

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"notes-backend/internal/shared/storage/db"
)

// participantSep joins participant names inside one aggregated column.
const participantSep = "\x1f"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const noteColumns = `n.id, n.user_id, n.title, n.description, n.audio_path, n.transcript, n.summary,
  n.duration_seconds, n.meeting_type, n.icon, n.created_at, n.updated_at,
  COALESCE(string_agg(p.name, E'\x1f' ORDER BY p.id), '') AS participants`

// Create inserts the note and its participants in one transaction.
func (r *PGRepo) Create(ctx context.Context, note Note) error {
	const insertNote = `
INSERT INTO notes (
    id,
    user_id,
    title,
    description,
    audio_path,
    transcript,
    summary,
    duration_seconds,
    meeting_type,
    icon,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	const insertParticipant = `INSERT INTO note_participants (note_id, name) VALUES ($1, $2)`

	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertNote,
			note.ID,
			note.UserID,
			note.Title,
			note.Description,
			nullableString(note.AudioPath),
			nullableString(note.Transcript),
			nullableString(note.Summary),
			note.DurationSeconds,
			note.MeetingType,
			note.Icon,
			note.CreatedAt,
		); err != nil {
			return err
		}
		for _, name := range note.Participants {
			if _, err := tx.ExecContext(ctx, insertParticipant, note.ID, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID returns a note owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID, noteID string) (Note, error) {
	query := `
SELECT ` + noteColumns + `
FROM notes n
LEFT JOIN note_participants p ON p.note_id = n.id
WHERE n.id = $1 AND n.user_id = $2
GROUP BY n.id`
	note, err := scanNote(r.DB.QueryRowContext(ctx, query, noteID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	return note, nil
}

// ListByUser returns the user's notes, newest first, joined with participants.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Note, error) {
	query := `
SELECT ` + noteColumns + `
FROM notes n
LEFT JOIN note_participants p ON p.note_id = n.id
WHERE n.user_id = $1
GROUP BY n.id
ORDER BY n.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGRepo) Update(ctx context.Context, note Note) error {
	const query = `
UPDATE notes
SET title = $3,
    description = $4,
    transcript = $5,
    summary = $6,
    audio_path = $7,
    updated_at = $8
WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		note.ID,
		note.UserID,
		note.Title,
		note.Description,
		nullableString(note.Transcript),
		nullableString(note.Summary),
		nullableString(note.AudioPath),
		note.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the note row; participants and questions cascade.
func (r *PGRepo) Delete(ctx context.Context, userID, noteID string) error {
	const query = `DELETE FROM notes WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, noteID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) ClearAudio(ctx context.Context, noteID string) error {
	const query = `UPDATE notes SET audio_path = NULL, updated_at = now() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, noteID)
	return err
}

func (r *PGRepo) ListAudioOlderThan(ctx context.Context, cutoff time.Time) ([]AudioRef, error) {
	const query = `
SELECT id, user_id, audio_path, created_at
FROM notes
WHERE created_at < $1 AND audio_path IS NOT NULL
ORDER BY created_at ASC`
	return r.queryAudioRefs(ctx, query, cutoff)
}

func (r *PGRepo) ListSummarizedWithAudio(ctx context.Context) ([]AudioRef, error) {
	const query = `
SELECT id, user_id, audio_path, created_at
FROM notes
WHERE summary IS NOT NULL AND audio_path IS NOT NULL
ORDER BY created_at ASC`
	return r.queryAudioRefs(ctx, query)
}

func (r *PGRepo) queryAudioRefs(ctx context.Context, query string, args ...any) ([]AudioRef, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AudioRef
	for rows.Next() {
		var ref AudioRef
		if err := rows.Scan(&ref.NoteID, &ref.UserID, &ref.AudioPath, &ref.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *PGRepo) AddQuestion(ctx context.Context, qa QAPair) error {
	const query = `
INSERT INTO note_questions (id, note_id, question, answer, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, qa.ID, qa.NoteID, qa.Question, qa.Answer, qa.CreatedAt)
	return err
}

// ListQuestions returns pairs oldest first.
func (r *PGRepo) ListQuestions(ctx context.Context, noteID string) ([]QAPair, error) {
	const query = `
SELECT id, note_id, question, answer, created_at
FROM note_questions
WHERE note_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]QAPair, 0)
	for rows.Next() {
		var qa QAPair
		if err := rows.Scan(&qa.ID, &qa.NoteID, &qa.Question, &qa.Answer, &qa.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, qa)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var n Note
	var audioPath sql.NullString
	var transcript sql.NullString
	var summary sql.NullString
	var updatedAt sql.NullTime
	var participants string
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Description,
		&audioPath,
		&transcript,
		&summary,
		&n.DurationSeconds,
		&n.MeetingType,
		&n.Icon,
		&n.CreatedAt,
		&updatedAt,
		&participants,
	); err != nil {
		return Note{}, err
	}
	if audioPath.Valid {
		n.AudioPath = audioPath.String
	}
	if transcript.Valid {
		n.Transcript = transcript.String
	}
	if summary.Valid {
		n.Summary = summary.String
	}
	if updatedAt.Valid {
		n.UpdatedAt = updatedAt.Time
	} else {
		n.UpdatedAt = n.CreatedAt
	}
	if participants != "" {
		n.Participants = strings.Split(participants, participantSep)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
