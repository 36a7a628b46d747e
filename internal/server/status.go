package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// statusResp reports metadata for a live upload without touching the blob.
type statusResp struct {
	Code      string    `json:"code"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// statusHandler handles GET /status/{code}. Same validation and same 404
// semantics as download; reading status is non-mutating and never extends
// the expiry.
func (cfg Config) statusHandler(store RecordStore) http.HandlerFunc {
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
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResp{
			Code:      rec.Code,
			SizeBytes: rec.SizeBytes,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
		})
	}
}
