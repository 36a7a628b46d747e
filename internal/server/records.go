package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Record is the metadata row for one uploaded, not-yet-swept archive.
// The storage key is internal; clients only ever see the code.
type Record struct {
	ID        uuid.UUID
	Code      string
	ObjectKey string
	SizeBytes int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RecordStore is the persistent code → record mapping. FindLive and IsLive
// treat an expired-but-unswept record as absent; only ListExpired sees it.
type RecordStore interface {
	Insert(ctx context.Context, rec Record) error
	FindLive(ctx context.Context, code string, now time.Time) (Record, error)
	IsLive(ctx context.Context, code string, now time.Time) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgRecordStore implements RecordStore on PostgreSQL. Code uniqueness is
// enforced by the unique index on backups.code, so two requests that race
// to the same code cannot both insert.
type pgRecordStore struct {
	db *sql.DB
}

// NewRecordStore returns a RecordStore backed by the given database.
func NewRecordStore(db *sql.DB) RecordStore {
	return &pgRecordStore{db: db}
}

func (s *pgRecordStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (id, code, object_key, size_bytes, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Code, rec.ObjectKey, rec.SizeBytes, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *pgRecordStore) FindLive(ctx context.Context, code string, now time.Time) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, object_key, size_bytes, created_at, expires_at
		 FROM backups
		 WHERE code = $1 AND expires_at > $2`,
		code, now,
	).Scan(&rec.ID, &rec.Code, &rec.ObjectKey, &rec.SizeBytes, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

func (s *pgRecordStore) IsLive(ctx context.Context, code string, now time.Time) (bool, error) {
	// Existence check covers expired-but-unswept rows too: the unique index
	// spans them, so their codes are not yet reusable.
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM backups WHERE code = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code liveness: %w", err)
	}
	return exists, nil
}

func (s *pgRecordStore) ListExpired(ctx context.Context, now time.Time) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, object_key, size_bytes, created_at, expires_at
		 FROM backups
		 WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.ObjectKey, &rec.SizeBytes, &rec.CreatedAt, &rec.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan expired record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Idempotent: deleting an already-absent record is not an error.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// maxCodeAttempts bounds code reservation. At 36^6 possible codes the loop
// terminates on the first try in practice.
const maxCodeAttempts = 100

// codeGenerator produces candidate codes; swapped out in tests to force
// collisions.
type codeGenerator func() (string, error)

// reserveUniqueCode draws codes from gen until one is not present in the
// store, or maxAttempts is exhausted. The returned code is only truly
// claimed at Insert time; the unique index catches the window in between.
func reserveUniqueCode(ctx context.Context, store RecordStore, gen codeGenerator, maxAttempts int) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := gen()
		if err != nil {
			return "", err
		}
		taken, err := store.IsLive(ctx, code, time.Now().UTC())
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
