package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSBlobStore_RoundTrip(t *testing.T) {
	blobs, err := NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	payload := []byte("hello-file")
	key, err := blobs.Put(context.Background(), bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key == "" {
		t.Fatal("Put returned empty key")
	}

	rc, err := blobs.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}
}

func TestFSBlobStore_KeyIndependentOfContent(t *testing.T) {
	blobs, err := NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	k1, err := blobs.Put(context.Background(), strings.NewReader("same"), 4)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	k2, err := blobs.Put(context.Background(), strings.NewReader("same"), 4)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if k1 == k2 {
		t.Errorf("Expected distinct keys for separate writes, got %q twice", k1)
	}
}

func TestFSBlobStore_OpenMissing(t *testing.T) {
	blobs, err := NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	if _, err := blobs.Open(context.Background(), "no-such-key.zip"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFSBlobStore_DeleteIdempotent(t *testing.T) {
	blobs, err := NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	key, err := blobs.Put(context.Background(), strings.NewReader("x"), 1)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := blobs.Delete(context.Background(), key); err != nil {
		t.Errorf("First delete failed: %v", err)
	}
	if err := blobs.Delete(context.Background(), key); err != nil {
		t.Errorf("Second delete of same key failed: %v", err)
	}
	if err := blobs.Delete(context.Background(), "never-existed.zip"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestFSBlobStore_NoPartialFileOnShortWrite(t *testing.T) {
	root := t.TempDir()
	blobs, err := NewFSBlobStore(root)
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	// Reader delivers fewer bytes than declared: the write must fail and
	// leave no published blob behind.
	_, err = blobs.Put(context.Background(), strings.NewReader("short"), 100)
	if err == nil {
		t.Fatal("Expected error for short write")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".zip" {
			t.Errorf("Found published blob %q after failed write", e.Name())
		}
	}
}
