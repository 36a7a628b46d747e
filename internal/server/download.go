package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// notFoundMsg is the single message for a code that never existed, has
// expired, or whose blob is gone. The three cases are indistinguishable
// on purpose: nothing about a vanished archive is observable.
const notFoundMsg = "not found or expired"

// downloadHandler handles GET /download/{code}. The code is format-checked
// before any storage access; lookups and the blob read collapse every
// missing-data case into the same 404.
func (cfg Config) downloadHandler(store RecordStore, blobs BlobStore, audit *AuditLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !validCode(code) {
			http.Error(w, "invalid code", http.StatusBadRequest)
			return
		}

		rec, err := store.FindLive(r.Context(), code, time.Now().UTC())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, notFoundMsg, http.StatusNotFound)
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=record_lookup err=%v", rid, err)
			GetMetrics().RecordDownloadError()
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}

		obj, err := blobs.Open(r.Context(), rec.ObjectKey)
		if err != nil {
			// The sweeper may have raced us between lookup and read; a
			// missing blob is the same outcome as a missing record.
			if errors.Is(err, ErrNotFound) {
				http.Error(w, notFoundMsg, http.StatusNotFound)
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=blob_open err=%v", rid, err)
			GetMetrics().RecordDownloadError()
			http.Error(w, "storage error", http.StatusBadGateway)
			return
		}
		defer func() { _ = obj.Close() }()

		// The served filename is derived from the code; the uploader's
		// original filename was never stored.
		w.Header().Set("Content-Type", "application/zip")
		if rec.SizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(rec.SizeBytes, 10))
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%s.zip"`, rec.Code))

		w.WriteHeader(http.StatusOK)
		n, _ := io.Copy(w, obj)

		GetMetrics().RecordDownload(n)
		audit.record(r.Context(), "download", code, getClientIP(r), map[string]any{"size_bytes": rec.SizeBytes})
	}
}
