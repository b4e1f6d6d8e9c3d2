package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"notes-backend/internal/capture"
	"notes-backend/internal/notes"
	"notes-backend/internal/pipeline"
	"notes-backend/internal/shared/telemetry"
)

// ProcessedDir is the subdirectory finished files are moved into.
const ProcessedDir = "processed"

const defaultSettle = 500 * time.Millisecond

var audioExts = map[string]bool{
	".webm": true,
	".m4a":  true,
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
}

// Processor runs a recording through the pipeline.
type Processor interface {
	Process(ctx context.Context, job pipeline.Job, observe pipeline.Observer) (notes.Note, error)
}

// Options configures a Watcher.
type Options struct {
	OwnerID     string
	Participant string
	// Settle is how long to wait after a file appears before reading it.
	Settle time.Duration
}

// Watcher turns audio files dropped into a directory into voice notes, one
// file at a time in arrival order.
type Watcher struct {
	dir     string
	proc    Processor
	opts    Options
	watcher *fsnotify.Watcher
}

// New starts watching dir.
func New(dir string, proc Processor, opts Options) (*Watcher, error) {
	if strings.TrimSpace(opts.OwnerID) == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{dir: dir, proc: proc, opts: opts, watcher: fw}, nil
}

// Run processes files already in the directory, then new arrivals, until
// ctx is done. The file being processed when ctx ends is finished first.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(chan string, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for path := range pending {
			w.handle(ctx, path)
		}
	}()
	defer func() {
		close(pending)
		<-done
	}()

	enqueue := func(path string) bool {
		select {
		case pending <- path:
			return true
		case <-ctx.Done():
			return false
		}
	}

	existing, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	for _, e := range existing {
		if !e.IsDir() && isAudioFile(e.Name()) {
			if !enqueue(filepath.Join(w.dir, e.Name())) {
				return nil
			}
		}
	}

	telemetry.Info("watcher.started", map[string]any{"dir": w.dir, "owner": w.opts.OwnerID})
	for {
		select {
		case <-ctx.Done():
			telemetry.Info("watcher.stopped", map[string]any{"dir": w.dir})
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create == fsnotify.Create && isAudioFile(event.Name) {
				if !enqueue(event.Name) {
					return nil
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			telemetry.Error("watcher.error", map[string]any{"error": err.Error()})
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	select {
	case <-time.After(w.opts.Settle):
	case <-ctx.Done():
		return
	}
	fields := map[string]any{"file": path}

	f, err := os.Open(path)
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("watcher.open_failed", fields)
		return
	}
	note, err := w.proc.Process(ctx, pipeline.Job{
		RecordingID: filepath.Base(path),
		OwnerID:     w.opts.OwnerID,
		Participant: w.opts.Participant,
		Source:      capture.SourceMicrophone,
		FileName:    filepath.Base(path),
		Audio:       f,
	}, nil)
	f.Close()
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("watcher.process_failed", fields)
		return
	}

	dest := filepath.Join(w.dir, ProcessedDir, filepath.Base(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err == nil {
		err = os.Rename(path, dest)
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("watcher.move_failed", fields)
	}
	fields["note_id"] = note.ID
	telemetry.Info("watcher.processed", fields)
}

func isAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}
