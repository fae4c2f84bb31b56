package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListRecent(ctx context.Context, actor string, limit int) ([]models.AuditLog, error)
}

// auditRecorder is what domain services need to leave a trail.
type auditRecorder interface {
	Record(ctx context.Context, actor models.Actor, action, resource, details string)
}

// AuditConfig tunes the background writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	Retries    int
}

// AuditService writes audit entries off the request path.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the service and its worker queue. Call Start before serving.
func NewAuditService(repo auditRepository, cfg AuditConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes buffered entries.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an entry. When the queue cannot take it the entry is written inline.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, action, resource, details string) {
	entry := models.AuditLog{
		ID:        uuid.NewString(),
		Actor:     actor.MatricNumber,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry}); err != nil {
		s.logger.Warn("audit queue unavailable, writing inline", zap.String("action", action), zap.Error(err))
		if err := s.repo.Create(context.WithoutCancel(ctx), &entry); err != nil {
			s.logger.Error("failed to write audit log", zap.String("action", action), zap.Error(err))
		}
	}
}

// List returns recent entries, optionally for one actor.
func (s *AuditService) List(ctx context.Context, actor string, limit int) ([]models.AuditLog, error) {
	logs, err := s.repo.ListRecent(ctx, actor, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit logs")
	}
	return logs, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, &entry)
}
