package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"notes-backend/internal/shared/util"
)

var (
	// ErrObjectExists is returned by Put when the key is already taken.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound is returned by Open when nothing is stored under the key.
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectStore is the blob store holding recorded audio.
//
// Put never overwrites an existing key. Delete of a missing key succeeds so
// retention sweeps can be retried.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AudioContentType is the MIME type recorded audio is uploaded with.
const AudioContentType = "audio/webm"

// AudioKey returns the storage key for a note's audio: {user_id}/{note_id}.webm.
func AudioKey(userID, noteID string) (string, error) {
	owner, err := util.KeySegment(userID)
	if err != nil {
		return "", fmt.Errorf("audio key owner: %w", err)
	}
	name, err := util.KeySegment(noteID)
	if err != nil {
		return "", fmt.Errorf("audio key note: %w", err)
	}
	return owner + "/" + name + ".webm", nil
}

// CleanKey rejects keys that are empty, absolute, or escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("invalid storage key %q", key)
		}
	}
	return key, nil
}
