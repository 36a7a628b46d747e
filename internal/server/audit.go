package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
)

// AuditLog records client-facing actions (upload, download, cleanup) in the
// action_logs table. Writes are best-effort: an audit failure is logged and
// never propagated into the request path.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog returns an audit logger writing to the given database.
// A nil db disables persistence; actions are still logged to stdout.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (a *AuditLog) record(ctx context.Context, action, code, ip string, details map[string]any) {
	var payload []byte
	if details != nil {
		payload, _ = json.Marshal(details)
	}

	if a == nil || a.db == nil {
		log.Printf("service=audit action=%s code=%s ip=%s details=%s", action, code, ip, payload)
		return
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO action_logs (action, code, ip, details)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)`,
		action, code, ip, payload,
	)
	if err != nil {
		log.Printf("service=audit msg=%q action=%s err=%v", "write_failed", action, err)
	}
}
