package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/yakhtimoon-console/internal/models"
)

const auditSchema = `CREATE TABLE IF NOT EXISTS console_audit_entries (
    id UUID PRIMARY KEY,
    screen TEXT NOT NULL,
    entity TEXT NOT NULL,
    action TEXT NOT NULL,
    record_id BIGINT NULL,
    outcome TEXT NOT NULL,
    upstream_status INT NULL,
    request_id TEXT NOT NULL DEFAULT '',
    detail JSONB NULL,
    created_at TIMESTAMPTZ NOT NULL
)`

// AuditRepository persists console mutation attempts.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the audit table when missing.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Create stores an audit entry, assigning its id and timestamp when unset.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO console_audit_entries (id, screen, entity, action, record_id, outcome, upstream_status, request_id, detail, created_at) VALUES (:id, :screen, :entity, :action, :record_id, :outcome, :upstream_status, :request_id, :detail, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries of a screen, newest first. A blank
// screen lists every screen.
func (r *AuditRepository) Recent(ctx context.Context, screen string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, screen, entity, action, record_id, outcome, upstream_status, request_id, detail, created_at FROM console_audit_entries`
	args := []interface{}{}
	if screen != "" {
		query += " WHERE screen = $1"
		args = append(args, screen)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
