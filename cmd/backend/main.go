package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud-mover/internal/db"
	"cloud-mover/internal/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "config_invalid", err)
		os.Exit(1)
	}

	// Database
	dbConn, err := server.OpenDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Run migrations
	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	// Blob storage
	var blobs server.BlobStore
	switch cfg.StorageBackend {
	case server.StorageBackendS3:
		blobs, err = server.NewS3BlobStore(cfg)
	default:
		blobs, err = server.NewFSBlobStore(cfg.DataDir)
	}
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "blob_store_init_failed", err)
		os.Exit(1)
	}

	store := server.NewRecordStore(dbConn)

	srv := server.New(cfg, dbConn, store, blobs)

	// Expiry sweeper: runs once at startup, then on its interval, until the
	// process shuts down.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go server.StartSweeper(sweepCtx, server.SweeperConfig{
		Interval: cfg.CleanupInterval,
		Store:    store,
		Blobs:    blobs,
		Audit:    server.NewAuditLog(dbConn),
	})

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s storage=%s expiry=%s",
			"starting", cfg.Addr, cfg.StorageBackend, cfg.Expiry)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Block until either a shutdown signal is received or the server fails.
	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		stopSweeper()
		// Give the server 5 seconds to finish in-flight transfers.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}
