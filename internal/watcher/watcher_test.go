package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"notes-backend/internal/capture"
	"notes-backend/internal/notes"
	"notes-backend/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingProcessor struct {
	mu    sync.Mutex
	jobs  []pipeline.Job
	audio []string
}

func (p *recordingProcessor) Process(ctx context.Context, job pipeline.Job, observe pipeline.Observer) (notes.Note, error) {
	data, _ := io.ReadAll(job.Audio)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	p.audio = append(p.audio, string(data))
	return notes.Note{ID: "n" + job.FileName}, nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func TestWatcherProcessesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "first.webm"), []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	proc := &recordingProcessor{}
	w, err := New(dir, proc, Options{OwnerID: "u1", Participant: "u1@example.com", Settle: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return proc.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	// Written under a non-audio name and renamed so the content is complete
	// when the create event fires.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.part"), []byte("two"), 0o644))
	require.NoError(t, os.Rename(filepath.Join(dir, "second.part"), filepath.Join(dir, "second.MP3")))
	require.Eventually(t, func() bool { return proc.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, ProcessedDir, "second.MP3"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, proc.audio)
	assert.Equal(t, capture.SourceMicrophone, proc.jobs[0].Source)
	assert.Zero(t, proc.jobs[0].DurationSeconds)
	assert.Equal(t, "u1@example.com", proc.jobs[0].Participant)

	_, err = os.Stat(filepath.Join(dir, "first.webm"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := New(t.TempDir(), &recordingProcessor{}, Options{})
	assert.Error(t, err)
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, isAudioFile("a.webm"))
	assert.True(t, isAudioFile("a.WAV"))
	assert.False(t, isAudioFile("a.mp4"))
	assert.False(t, isAudioFile("processed"))
}
