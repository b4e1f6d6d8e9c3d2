package notes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-backend/internal/shared/storage/object"
	"notes-backend/internal/shared/storage/object/local"
)

type stubAnswerer struct {
	answer string
	err    error
	calls  int
}

func (s *stubAnswerer) Answer(ctx context.Context, question, transcript string) (string, error) {
	s.calls++
	return s.answer, s.err
}

type failingRepo struct {
	*MemoryRepo
	createErr error
}

func (r failingRepo) Create(ctx context.Context, note Note) error { return r.createErr }

func newTestService(t *testing.T) (*Service, afero.Fs, *time.Time) {
	t.Helper()
	fs := afero.NewMemMapFs()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ids := 0
	svc := &Service{
		Repo:  NewMemoryRepo(),
		Store: local.NewWithFs(fs, local.NewSigner("http://localhost:8080", "secret")),
		Now:   func() time.Time { return now },
		NewID: func() string {
			ids++
			return "note-" + string(rune('0'+ids))
		},
	}
	return svc, fs, &now
}

func TestCreateStoresAudioAndSignsURL(t *testing.T) {
	svc, fs, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, CreateInput{
		UserID:          "u1",
		Title:           "Voice: Standup",
		DurationSeconds: 65,
		MeetingType:     MeetingTypeVoice,
		Icon:            IconVoice,
		Participants:    []string{" alice@example.com ", ""},
		Audio:           strings.NewReader("webm-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1/note-1.webm", note.AudioPath)
	assert.Contains(t, note.AudioURL, "/api/v1/audio/u1/note-1.webm?")
	assert.Equal(t, []string{"alice@example.com"}, note.Participants)

	data, err := afero.ReadFile(fs, "u1/note-1.webm")
	require.NoError(t, err)
	assert.Equal(t, "webm-bytes", string(data))

	got, err := svc.Get(ctx, "u1", note.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 65, got.DurationSeconds)
	assert.NotEmpty(t, got.AudioURL)
}

func TestCreateRemovesBlobWhenInsertFails(t *testing.T) {
	svc, fs, _ := newTestService(t)
	svc.Repo = failingRepo{MemoryRepo: NewMemoryRepo(), createErr: errors.New("db down")}

	_, err := svc.Create(context.Background(), CreateInput{
		UserID: "u1",
		Title:  "t",
		Audio:  strings.NewReader("x"),
	})
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert note", storeErr.Op)

	exists, _ := afero.Exists(fs, "u1/note-1.webm")
	assert.False(t, exists)
}

func TestCreateNeverOverwritesAudio(t *testing.T) {
	svc, fs, _ := newTestService(t)
	svc.NewID = func() string { return "fixed" }
	require.NoError(t, afero.WriteFile(fs, "u1/fixed.webm", []byte("original"), 0o644))

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Title: "t", Audio: strings.NewReader("new")})
	require.Error(t, err)
	assert.ErrorIs(t, err, object.ErrObjectExists)

	data, _ := afero.ReadFile(fs, "u1/fixed.webm")
	assert.Equal(t, "original", string(data))
}

func TestCreateManual(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		title     string
		content   string
		wantTitle string
		wantErr   bool
	}{
		{name: "title and content", title: "Ideas", content: "  buy milk  ", wantTitle: "Manual: Ideas"},
		// Accepted: only a note with neither title nor content is refused.
		{name: "empty title with content is accepted", title: "  ", content: "remember", wantTitle: "Manual: Untitled Note"},
		{name: "both blank", title: " ", content: "\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := svc.CreateManual(ctx, "u1", tt.title, tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, note.Title)
			assert.Equal(t, strings.TrimSpace(tt.content), note.Description)
			assert.Equal(t, MeetingTypeManual, note.MeetingType)
			assert.Equal(t, IconManual, note.Icon)
			assert.Zero(t, note.DurationSeconds)
			assert.Empty(t, note.AudioPath)
		})
	}
}

func TestListNewestFirstWithFallbackParticipant(t *testing.T) {
	svc, _, now := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, "u1", "first", "")
	require.NoError(t, err)
	*now = now.Add(time.Minute)
	_, err = svc.Create(ctx, CreateInput{UserID: "u1", Title: "second", Participants: []string{"bob"}})
	require.NoError(t, err)
	_, err = svc.CreateManual(ctx, "u2", "other user", "")
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1", "me@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, []string{"bob"}, list[0].Participants)
	assert.Equal(t, []string{"me@example.com"}, list[1].Participants)
}

func TestUpdateSummaryDropsAudio(t *testing.T) {
	svc, fs, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "t", Audio: bytes.NewReader([]byte("a"))})
	require.NoError(t, err)

	summary := "## Summary"
	updated, err := svc.Update(ctx, "u1", note.ID, Patch{Summary: &summary})
	require.NoError(t, err)
	assert.Empty(t, updated.AudioPath)
	assert.Empty(t, updated.AudioURL)
	assert.Equal(t, summary, updated.Summary)

	exists, _ := afero.Exists(fs, note.AudioPath)
	assert.False(t, exists)

	stored, err := svc.Get(ctx, "u1", note.ID, "")
	require.NoError(t, err)
	assert.False(t, stored.HasAudio())
}

func TestUpdateRejectsEmptyTitle(t *testing.T) {
	svc, _, _ := newTestService(t)
	note, err := svc.CreateManual(context.Background(), "u1", "x", "")
	require.NoError(t, err)

	blank := "  "
	_, err = svc.Update(context.Background(), "u1", note.ID, Patch{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteRemovesBlobAndRow(t *testing.T) {
	svc, fs, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "t", Audio: strings.NewReader("a")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", note.ID))
	exists, _ := afero.Exists(fs, note.AudioPath)
	assert.False(t, exists)

	_, err = svc.Get(ctx, "u1", note.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "u1", note.ID), ErrNotFound)
}

func TestDeleteOtherOwnerNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	note, err := svc.CreateManual(context.Background(), "u1", "x", "")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(context.Background(), "u2", note.ID), ErrNotFound)
}

func TestAsk(t *testing.T) {
	svc, _, now := newTestService(t)
	ctx := context.Background()
	answerer := &stubAnswerer{answer: "Friday."}
	svc.Answerer = answerer

	withTranscript, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "t", Transcript: "We ship on Friday."})
	require.NoError(t, err)
	manual, err := svc.CreateManual(ctx, "u1", "m", "content")
	require.NoError(t, err)

	_, err = svc.Ask(ctx, "u1", withTranscript.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Ask(ctx, "u1", manual.ID, "When?")
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Zero(t, answerer.calls)

	first, err := svc.Ask(ctx, "u1", withTranscript.ID, "When do we ship?")
	require.NoError(t, err)
	assert.Equal(t, "Friday.", first.Answer)
	*now = now.Add(time.Second)
	_, err = svc.Ask(ctx, "u1", withTranscript.ID, "Who ships?")
	require.NoError(t, err)

	list, err := svc.ListQuestions(ctx, "u1", withTranscript.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "When do we ship?", list[0].Question)
	assert.Equal(t, "Who ships?", list[1].Question)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestAskUpstreamErrorNotStored(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	svc.Answerer = &stubAnswerer{err: errors.New("boom")}

	note, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "t", Transcript: "text"})
	require.NoError(t, err)
	_, err = svc.Ask(ctx, "u1", note.ID, "q?")
	require.Error(t, err)

	list, err := svc.ListQuestions(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSweepClearsExpiredAudio(t *testing.T) {
	svc, fs, now := newTestService(t)
	ctx := context.Background()
	svc.RetentionAge = 20 * 24 * time.Hour

	old, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "old", Audio: strings.NewReader("a")})
	require.NoError(t, err)
	*now = now.Add(15 * 24 * time.Hour)
	recent, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "recent", Audio: strings.NewReader("b")})
	require.NoError(t, err)
	*now = now.Add(6 * 24 * time.Hour)

	// A blob that already vanished must not fail the sweep.
	require.NoError(t, fs.Remove(old.AudioPath))

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, "u1", old.ID, "")
	require.NoError(t, err)
	assert.False(t, got.HasAudio())
	got, err = svc.Get(ctx, "u1", recent.ID, "")
	require.NoError(t, err)
	assert.True(t, got.HasAudio())

	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateWithSummaryKeepsNoAudio(t *testing.T) {
	svc, fs, _ := newTestService(t)

	note, err := svc.Create(context.Background(), CreateInput{
		UserID:     "u1",
		Title:      "Voice: Done",
		Transcript: "t",
		Summary:    "s",
		Audio:      strings.NewReader("a"),
	})
	require.NoError(t, err)
	assert.False(t, note.HasAudio())
	assert.Empty(t, note.AudioURL)

	exists, _ := afero.Exists(fs, "u1/"+note.ID+".webm")
	assert.False(t, exists)
}

func TestPurgeSummarized(t *testing.T) {
	svc, fs, _ := newTestService(t)
	ctx := context.Background()

	summarized, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "a", Audio: strings.NewReader("a")})
	require.NoError(t, err)
	pending, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "b", Audio: strings.NewReader("b")})
	require.NoError(t, err)

	// Rows written before summaries dropped audio still carry both.
	legacy, err := svc.Repo.GetByID(ctx, "u1", summarized.ID)
	require.NoError(t, err)
	legacy.Summary = "s"
	require.NoError(t, svc.Repo.Update(ctx, legacy))

	n, err := svc.PurgeSummarized(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists, _ := afero.Exists(fs, summarized.AudioPath)
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, pending.AudioPath)
	assert.True(t, exists)
}

func TestAudioRoundTripThroughStore(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, CreateInput{UserID: "u1", Title: "t", Audio: strings.NewReader("payload")})
	require.NoError(t, err)

	rc, err := svc.Store.Open(ctx, note.AudioPath)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
