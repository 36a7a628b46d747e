package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// healthHandler serves GET /health. The database is the only hard
// dependency worth probing; blob storage problems surface as request
// errors and are visible in /metrics.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
