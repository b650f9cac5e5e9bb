package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/jobs"
)

type auditRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error
}

// AuditService is an append-only sink for mutating operations. Events are
// written off the request path; a failed write is logged and discarded so
// audit unavailability never blocks a primary operation.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// AuditQueueConfig sizes the background sink.
type AuditQueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NewAuditService constructs the audit service and its worker queue. Call
// Start before recording and Stop on shutdown.
func NewAuditService(repo auditRepository, cfg AuditQueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.persist, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the sink workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains pending events and shuts the workers down.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues one audit event. It never returns an error: a full queue
// is logged and the event dropped.
func (s *AuditService) Record(actorID, action, resourceType, resourceID string, details map[string]interface{}) {
	var payload []byte
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			payload = raw
		} else {
			s.logger.Warn("audit details not serializable", zap.String("action", action), zap.Error(err))
		}
	}
	event := models.AuditEvent{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      payload,
		CreatedAt:    time.Now().UTC(),
	}
	s.queue.Enqueue(jobs.Job{Type: action, Payload: event})
}

func (s *AuditService) persist(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.AuditEvent)
	if !ok {
		s.logger.Warn("unexpected audit payload", zap.String("type", job.Type))
		return nil
	}
	if err := s.repo.Create(ctx, &event); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("action", event.Action),
			zap.String("resource", event.ResourceType),
			zap.Error(err))
	}
	return nil
}
