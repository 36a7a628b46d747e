package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// uploadResp is the JSON response returned after a successful upload. The
// code is the only handle the client ever gets; the storage key stays
// server-side.
type uploadResp struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// countingReader tracks how many bytes have been read through it, so the
// upload handler can detect an oversized payload after streaming it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// uploadHandler handles POST /upload. It reserves an unused verification
// code, streams the multipart "file" field into the blob store, then
// inserts the metadata record with expires_at = now + TTL. Order matters:
// the record is only inserted after the blob write completed, so no record
// ever points at a truncated or absent file.
func (cfg Config) uploadHandler(store RecordStore, blobs BlobStore, audit *AuditLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Belt and braces around the per-file ceiling below; the extra
		// 64 KiB absorbs multipart framing so a payload exactly at the
		// ceiling still fits.
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes+64<<10)

		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}

		var filePart io.Reader
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					http.Error(w, "file too large", http.StatusBadRequest)
					return
				}
				http.Error(w, "bad multipart", http.StatusBadRequest)
				return
			}
			defer func() { _ = part.Close() }()

			if part.FormName() != "file" {
				continue
			}
			filePart = part
			break
		}

		if filePart == nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}

		code, err := reserveUniqueCode(r.Context(), store, generateCode, maxCodeAttempts)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=reserve_code err=%v", rid, err)
			GetMetrics().RecordUploadError()
			http.Error(w, "upload failed", http.StatusInternalServerError)
			return
		}

		// Stream to the blob store, allowing one byte over the ceiling so
		// an oversized payload is detectable without buffering it.
		cr := &countingReader{r: io.LimitReader(filePart, cfg.MaxUploadBytes+1)}
		key, err := blobs.Put(r.Context(), cr, -1)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=blob_write err=%v", rid, err)
			GetMetrics().RecordUploadError()
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "file too large", http.StatusBadRequest)
				return
			}
			http.Error(w, "storage error", http.StatusBadGateway)
			return
		}

		if cr.n > cfg.MaxUploadBytes {
			_ = blobs.Delete(r.Context(), key)
			http.Error(w, "file too large", http.StatusBadRequest)
			return
		}

		now := time.Now().UTC()
		rec := Record{
			ID:        uuid.New(),
			Code:      code,
			ObjectKey: key,
			SizeBytes: cr.n,
			CreatedAt: now,
			ExpiresAt: now.Add(cfg.Expiry),
		}
		if err := store.Insert(r.Context(), rec); err != nil {
			// No orphan blob: if the record cannot be persisted the bytes
			// are unreachable anyway, so remove them now.
			_ = blobs.Delete(r.Context(), key)
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=record_insert err=%v", rid, err)
			GetMetrics().RecordUploadError()
			http.Error(w, "upload failed", http.StatusInternalServerError)
			return
		}

		GetMetrics().RecordUpload(rec.SizeBytes)
		audit.record(r.Context(), "upload", code, getClientIP(r), map[string]any{"size_bytes": rec.SizeBytes})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(uploadResp{
			Code:      rec.Code,
			ExpiresAt: rec.ExpiresAt,
		})
	}
}
