package server

import (
	"context"
	"log"
	"time"
)

// SweeperConfig holds configuration and dependencies for the expiry sweeper.
type SweeperConfig struct {
	Interval time.Duration
	Store    RecordStore
	Blobs    BlobStore
	Audit    *AuditLog
}

// StartSweeper runs the expiry sweep once immediately, then on every tick
// until ctx is cancelled. Errors inside a sweep are logged and isolated to
// that iteration; the loop itself only ends on shutdown.
func StartSweeper(ctx context.Context, cfg SweeperConfig) {
	log.Printf("service=sweeper msg=%q interval=%s", "starting", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runSweep(ctx, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=sweeper msg=%q", "shutting_down")
			return
		case <-ticker.C:
			runSweep(ctx, cfg)
		}
	}
}

// RunSweepOnce performs a single sweep outside the timer loop. Used at
// startup paths and by tests that drive the clock themselves.
func RunSweepOnce(ctx context.Context, cfg SweeperConfig) {
	runSweep(ctx, cfg)
}

// runSweep performs one find-and-delete pass. The sweep's logical time is
// computed once up front and used for both the expiry query and logging, so
// a record that becomes eligible mid-sweep waits for the next pass.
func runSweep(ctx context.Context, cfg SweeperConfig) {
	start := time.Now()
	now := start.UTC()

	expired, err := cfg.Store.ListExpired(ctx, now)
	if err != nil {
		log.Printf("service=sweeper msg=%q err=%v", "query_failed", err)
		return
	}

	deleted := 0
	for _, rec := range expired {
		// Blob first, record second. A blob that is already gone is fine
		// (Delete is idempotent); any other blob error leaves the record
		// in place so the next sweep retries instead of orphaning bytes.
		if err := cfg.Blobs.Delete(ctx, rec.ObjectKey); err != nil {
			log.Printf("service=sweeper msg=%q code=%s err=%v", "blob_delete_failed", rec.Code, err)
			continue
		}

		if err := cfg.Store.Delete(ctx, rec.ID); err != nil {
			log.Printf("service=sweeper msg=%q code=%s err=%v", "record_delete_failed", rec.Code, err)
			continue
		}

		deleted++
	}

	if deleted > 0 {
		cfg.Audit.record(ctx, "cleanup", "", "", map[string]any{"deleted_count": deleted})
	}
	GetMetrics().RecordSweep(deleted)

	log.Printf("service=sweeper msg=%q expired=%d deleted=%d duration_ms=%d",
		"sweep_complete", len(expired), deleted, time.Since(start).Milliseconds())
}
