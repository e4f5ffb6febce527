package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/internal/coordinator"
	"github.com/noah-isme/yakhtimoon-console/internal/models"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/jobs"
	"github.com/noah-isme/yakhtimoon-console/pkg/middleware/requestid"
)

const auditJobType = "audit_entry"

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	Recent(ctx context.Context, screen string, limit int) ([]models.AuditEntry, error)
}

type mutationMetrics interface {
	ObserveMutation(screen, action, outcome string)
}

// AuditService records every console mutation attempt. Entries are written
// asynchronously so a slow database never holds up a screen.
type AuditService struct {
	store   auditStore
	metrics mutationMetrics
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewAuditService wires the audit queue. A nil store keeps metrics only.
func NewAuditService(store auditStore, metrics mutationMetrics, logger *zap.Logger, cfg jobs.QueueConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{store: store, metrics: metrics, logger: logger}
	if store != nil {
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		svc.queue = jobs.NewQueue("audit", svc.handle, cfg)
	}
	return svc
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop flushes pending entries and stops the workers.
func (s *AuditService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// MutationCompleted implements coordinator.MutationObserver.
func (s *AuditService) MutationCompleted(ctx context.Context, event coordinator.MutationEvent) {
	entry := buildAuditEntry(event)
	entry.RequestID = requestid.FromContext(ctx)
	if s.metrics != nil {
		s.metrics.ObserveMutation(entry.Screen, entry.Action, entry.Outcome)
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{Type: auditJobType, Payload: entry}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("screen", entry.Screen), zap.String("action", entry.Action), zap.Error(err))
	}
}

// Recent lists the latest audit entries of a screen.
func (s *AuditService) Recent(ctx context.Context, screen string, limit int) ([]models.AuditEntry, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "audit storage is not configured")
	}
	entries, err := s.store.Recent(ctx, screen, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit entries")
	}
	return entries, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditEntry)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.store.Create(ctx, entry)
}

func buildAuditEntry(event coordinator.MutationEvent) *models.AuditEntry {
	entry := &models.AuditEntry{
		Screen:  event.Screen,
		Entity:  event.Screen,
		Action:  event.Action,
		Outcome: models.AuditOutcomeSuccess,
	}
	if event.RecordID != 0 {
		id := event.RecordID
		entry.RecordID = &id
	}
	if event.Err == nil {
		return entry
	}

	entry.Outcome = models.AuditOutcomeFailed
	if status := appErrors.UpstreamStatus(event.Err); status != 0 {
		entry.UpstreamStatus = &status
	}
	detail := map[string]interface{}{"error": event.Err.Error()}
	if appErrors.IsUnprocessable(event.Err) {
		entry.Outcome = models.AuditOutcomeRejected
		detail["fields"] = appErrors.FromError(event.Err).Fields
	}
	if body, err := json.Marshal(detail); err == nil {
		entry.Detail = body
	}
	return entry
}
