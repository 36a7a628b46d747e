package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory RecordStore used by handler and sweeper tests.
// Semantics mirror the Postgres implementation: the code stays taken until
// the record is deleted, even after expiry.
type memStore struct {
	mu   sync.Mutex
	recs map[string]Record // keyed by code
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]Record)}
}

func (s *memStore) Insert(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.Code]; ok {
		return ErrDuplicateCode
	}
	s.recs[rec.Code] = rec
	return nil
}

func (s *memStore) FindLive(ctx context.Context, code string, now time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[code]
	if !ok || !rec.ExpiresAt.After(now) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *memStore) IsLive(ctx context.Context, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.recs[code]
	return ok, nil
}

func (s *memStore) ListExpired(ctx context.Context, now time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.recs {
		if !rec.ExpiresAt.After(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, rec := range s.recs {
		if rec.ID == id {
			delete(s.recs, code)
		}
	}
	return nil
}

// expire forces an existing record's expiry into the past.
func (s *memStore) expire(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[code]
	if !ok {
		return
	}
	rec.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	s.recs[code] = rec
}

// testEnv bundles a full router over in-memory records and a temp-dir blob
// store.
type testEnv struct {
	cfg    Config
	store  *memStore
	blobs  BlobStore
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := Config{
		Addr:           ":0",
		BaseURL:        "http://localhost:8080",
		MaxUploadBytes: 1 << 20,
		Expiry:         24 * time.Hour,
	}

	blobs, err := NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	store := newMemStore()
	srv := httptest.NewServer(NewRouter(cfg, nil, store, blobs))
	t.Cleanup(srv.Close)

	return &testEnv{cfg: cfg, store: store, blobs: blobs, server: srv}
}

// multipartBody builds a multipart request body with a single "file" field.
func multipartBody(t *testing.T, payload []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "archive.zip")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// uploadPayload uploads payload through the test server and returns the
// decoded response and status code.
func (env *testEnv) uploadPayload(t *testing.T, payload []byte) (*http.Response, error) {
	t.Helper()
	body, contentType := multipartBody(t, payload)
	return http.Post(env.server.URL+"/upload", contentType, body)
}
