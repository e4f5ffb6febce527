package models

import (
	"encoding/json"
	"time"
)

// Audit actions for console mutations.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// Audit outcomes.
const (
	AuditOutcomeSuccess  = "SUCCESS"
	AuditOutcomeRejected = "REJECTED"
	AuditOutcomeFailed   = "FAILED"
)

// AuditEntry records one mutation attempt made through the console.
type AuditEntry struct {
	ID             string          `db:"id" json:"id"`
	Screen         string          `db:"screen" json:"screen"`
	Entity         string          `db:"entity" json:"entity"`
	Action         string          `db:"action" json:"action"`
	RecordID       *int64          `db:"record_id" json:"record_id,omitempty"`
	Outcome        string          `db:"outcome" json:"outcome"`
	UpstreamStatus *int            `db:"upstream_status" json:"upstream_status,omitempty"`
	RequestID      string          `db:"request_id" json:"request_id,omitempty"`
	Detail         json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
