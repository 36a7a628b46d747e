package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestUpload_ReturnsCodeAndExpiry(t *testing.T) {
	env := newTestEnv(t)

	before := time.Now().UTC()
	resp, err := env.uploadPayload(t, []byte("hello-file"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	var out uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !validCode(out.Code) {
		t.Errorf("Response code %q fails format validation", out.Code)
	}

	wantExpiry := before.Add(env.cfg.Expiry)
	diff := out.ExpiresAt.Sub(wantExpiry)
	if diff < -10*time.Second || diff > 10*time.Second {
		t.Errorf("Expected expires_at near %v, got %v", wantExpiry, out.ExpiresAt)
	}
}

func TestUpload_RecordsSize(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("0123456789")
	resp, err := env.uploadPayload(t, payload)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()

	var out uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec, err := env.store.FindLive(context.Background(), out.Code, time.Now().UTC())
	if err != nil {
		t.Fatalf("FindLive: %v", err)
	}
	if rec.SizeBytes != int64(len(payload)) {
		t.Errorf("Expected size %d, got %d", len(payload), rec.SizeBytes)
	}
	if rec.ObjectKey == "" {
		t.Error("Record has empty object key")
	}
}

func TestUpload_SizeCeiling(t *testing.T) {
	env := newTestEnv(t)

	// Exactly at the ceiling: accepted.
	atLimit := bytes.Repeat([]byte("a"), int(env.cfg.MaxUploadBytes))
	resp, err := env.uploadPayload(t, atLimit)
	if err != nil {
		t.Fatalf("upload at ceiling: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 at ceiling, got %d", resp.StatusCode)
	}

	// One byte over: rejected.
	over := bytes.Repeat([]byte("a"), int(env.cfg.MaxUploadBytes)+1)
	resp, err = env.uploadPayload(t, over)
	if err != nil {
		t.Fatalf("upload over ceiling: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 one byte over ceiling, got %d", resp.StatusCode)
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/upload", "multipart/form-data; boundary=xxx",
		bytes.NewReader([]byte("--xxx--\r\n")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing file field, got %d", resp.StatusCode)
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/upload", "application/octet-stream",
		bytes.NewReader([]byte("raw bytes")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-multipart body, got %d", resp.StatusCode)
	}
}

func TestUpload_EachUploadMintsFreshCode(t *testing.T) {
	env := newTestEnv(t)

	codes := make(map[string]bool)
	for i := 0; i < 5; i++ {
		resp, err := env.uploadPayload(t, []byte("same payload"))
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		var out uploadResp
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response %d: %v", i, err)
		}
		resp.Body.Close()

		if codes[out.Code] {
			t.Fatalf("Code %q issued twice", out.Code)
		}
		codes[out.Code] = true
	}
}
