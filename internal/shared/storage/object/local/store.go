package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"

	"notes-backend/internal/shared/storage/object"
)

// Store implements ObjectStore on an afero filesystem rooted at a base dir.
type Store struct {
	fs     afero.Fs
	signer *Signer
	now    func() time.Time
}

// New creates a local object store rooted at baseDir on the OS filesystem.
func New(baseDir string, signer *Signer) *Store {
	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), baseDir), signer)
}

// NewWithFs creates a store over an arbitrary afero filesystem.
func NewWithFs(fsys afero.Fs, signer *Signer) *Store {
	return &Store{fs: fsys, signer: signer, now: time.Now}
}

// Signer exposes the link signer so the audio route can verify requests.
func (s *Store) Signer() *Signer { return s.signer }

// Put writes r under key. An existing object is never replaced.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return 0, err
	}
	if err := s.fs.MkdirAll(path.Dir(clean), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := s.fs.OpenFile(clean, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, object.ErrObjectExists
		}
		return 0, fmt.Errorf("open file: %w", err)
	}

	written, err := io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(clean)
		return 0, fmt.Errorf("write body: %w", err)
	}
	_ = contentType
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes key. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", clean, err)
	}
	return nil
}

// SignedURL returns an HMAC-signed link served by the audio route.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	if s.signer == nil {
		return "", errors.New("local store has no url signer")
	}
	return s.signer.URL(clean, s.now().Add(ttl)), nil
}

var _ object.ObjectStore = (*Store)(nil)
