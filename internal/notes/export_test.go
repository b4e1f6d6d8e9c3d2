package notes

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "same day", at: now.Add(-8 * time.Hour), want: "Today"},
		{name: "previous calendar day", at: time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC), want: "Yesterday"},
		{name: "older", at: time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), want: "Feb 28, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.at, now))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "1:05", FormatDuration(65))
	assert.Equal(t, "61:40", FormatDuration(3700))
}

func TestRenderText(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	note := Note{
		Title:           "Voice: Weekly Sync",
		DurationSeconds: 125,
		Participants:    []string{"a@example.com", "b@example.com"},
		Summary:         "## Summary\nShip it.",
		Transcript:      "we ship friday",
		CreatedAt:       now,
	}
	sep := "=================================================="
	want := "Voice: Weekly Sync\n" + sep + "\n\n" +
		"Date: Today\nDuration: 2:05\nParticipants: a@example.com, b@example.com\n\n" +
		"## Summary\nShip it.\n\n" + sep + "\nTranscript:\nwe ship friday"
	assert.Equal(t, want, RenderText(note, now))
}

func TestRenderTextPlaceholders(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got := RenderText(Note{Title: "Manual: x", CreatedAt: now.AddDate(0, 0, -1)}, now)
	assert.Contains(t, got, "Date: Yesterday\n")
	assert.Contains(t, got, "Duration: 0:00\n")
	assert.Contains(t, got, "Participants: N/A\n")
	assert.Contains(t, got, "\nNo summary available\n")
	assert.Contains(t, got, "Transcript:\nNo transcript available")
}

func TestExportFormats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, CreateInput{
		UserID:     "u1",
		Title:      "Café: Plan",
		Summary:    "**Decision**: go",
		Transcript: "hello",
	})
	require.NoError(t, err)

	txt, err := svc.Export(ctx, "u1", note.ID, "me@example.com", "txt")
	require.NoError(t, err)
	assert.Equal(t, "Cafe__Plan.txt", txt.Name)
	assert.Contains(t, string(txt.Body), "Participants: me@example.com")

	doc, err := svc.Export(ctx, "u1", note.ID, "", "docx")
	require.NoError(t, err)
	assert.Equal(t, "Cafe__Plan.docx", doc.Name)

	zr, err := zip.NewReader(bytes.NewReader(doc.Body), int64(len(doc.Body)))
	require.NoError(t, err)
	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		body = string(data)
	}
	assert.Contains(t, body, "Decision")
	assert.Contains(t, body, "hello")

	_, err = svc.Export(ctx, "u1", note.ID, "", "pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Export(ctx, "u2", note.ID, "", "txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExcerpt(t *testing.T) {
	short, more := Excerpt("short", ExcerptLength)
	assert.Equal(t, "short", short)
	assert.False(t, more)

	long := bytes.Repeat([]byte("é"), 151)
	got, more := Excerpt(string(long), ExcerptLength)
	assert.True(t, more)
	assert.Equal(t, 151, len([]rune(got)))
}
