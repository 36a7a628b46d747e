package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore persists raw archive bytes. Keys are allocated internally and
// carry no relation to the public verification code, so a leaked storage
// path reveals nothing about how to fetch the file over HTTP.
type BlobStore interface {
	// Put writes the payload atomically and returns its storage key.
	// No partial object is ever visible to a later Open.
	Put(ctx context.Context, r io.Reader, size int64) (string, error)
	// Open returns the blob content; ErrNotFound if the key is absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// fsBlobStore stores blobs as flat files under a root directory. Writes go
// to a temp file in the same directory and are renamed into place, so a
// crashed or aborted upload leaves at most a stray .tmp file and never a
// readable partial blob.
type fsBlobStore struct {
	root string
}

// NewFSBlobStore creates root if needed and returns a filesystem-backed
// blob store rooted there.
func NewFSBlobStore(root string) (BlobStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &fsBlobStore{root: root}, nil
}

func (s *fsBlobStore) Put(ctx context.Context, r io.Reader, size int64) (string, error) {
	key := uuid.New().String() + ".zip"

	tmp, err := os.CreateTemp(s.root, ".upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: got %d bytes, want %d", written, size)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write blob: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.root, key)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("publish blob: %w", err)
	}
	return key, nil
}

func (s *fsBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.Base(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *fsBlobStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.Base(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
