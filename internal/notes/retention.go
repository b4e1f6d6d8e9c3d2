package notes

import (
	"context"
	"errors"
	"fmt"

	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/telemetry"
)

// Sweep deletes audio for notes older than the retention age and clears
// their references. Missing blobs are not errors, so a failed cycle can
// simply run again.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retentionAge())
	refs, err := s.Repo.ListAudioOlderThan(ctx, cutoff)
	if err != nil {
		return 0, storeErr("list expired audio", err)
	}
	n, err := s.dropAudio(ctx, refs)
	telemetry.Info("notes.sweep", map[string]any{"cutoff": cutoff, "candidates": len(refs), "cleared": n})
	return n, err
}

// PurgeSummarized drops audio from every note that already has a summary.
func (s *Service) PurgeSummarized(ctx context.Context) (int, error) {
	refs, err := s.Repo.ListSummarizedWithAudio(ctx)
	if err != nil {
		return 0, storeErr("list summarized audio", err)
	}
	n, err := s.dropAudio(ctx, refs)
	telemetry.Info("notes.purge_summarized", map[string]any{"candidates": len(refs), "cleared": n})
	return n, err
}

func (s *Service) dropAudio(ctx context.Context, refs []AudioRef) (int, error) {
	var errs []error
	cleared := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Store.Delete(ctx, ref.AudioPath); err != nil {
			errs = append(errs, fmt.Errorf("note %s: delete audio: %w", ref.NoteID, err))
			continue
		}
		if err := s.Repo.ClearAudio(ctx, ref.NoteID); err != nil {
			errs = append(errs, fmt.Errorf("note %s: clear audio: %w", ref.NoteID, err))
			continue
		}
		cleared++
	}
	metrics.AddAudioDeleted(cleared)
	if len(errs) > 0 {
		return cleared, storeErr("drop audio", errors.Join(errs...))
	}
	return cleared, nil
}
