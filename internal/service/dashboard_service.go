package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type dashboardStudentCounter interface {
	Count(ctx context.Context) (int, error)
	CountBy(ctx context.Context, column string) (map[string]int, error)
}

type dashboardRegistrationCounter interface {
	CountStudentsWithStatus(ctx context.Context, status models.RegistrationStatus) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin overview.
type DashboardService struct {
	students      dashboardStudentCounter
	registrations dashboardRegistrationCounter
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(students dashboardStudentCounter, registrations dashboardRegistrationCounter, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	return &DashboardService{students: students, registrations: registrations, cache: cache, logger: logger, cfg: cfg}
}

// Admin returns student totals, pending approvals and head counts by level and department.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	resp, err := Remember(ctx, s.cache, cacheKeyDashboard, s.cfg.CacheTTL, s.compute)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *DashboardService) compute(ctx context.Context) (dto.AdminDashboardResponse, error) {
	var resp dto.AdminDashboardResponse
	total, err := s.students.Count(ctx)
	if err != nil {
		return resp, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	pending, err := s.registrations.CountStudentsWithStatus(ctx, models.RegistrationPending)
	if err != nil {
		return resp, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending approvals")
	}
	byLevel, err := s.students.CountBy(ctx, "level")
	if err != nil {
		return resp, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group students")
	}
	byDepartment, err := s.students.CountBy(ctx, "department")
	if err != nil {
		return resp, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to group students")
	}

	resp = dto.AdminDashboardResponse{
		TotalStudents:    total,
		PendingApprovals: pending,
		ByLevel:          byLevel,
		ByDepartment:     byDepartment,
	}
	s.logger.Debug("admin dashboard computed", zap.Int("students", total), zap.Int("pending", pending))
	return resp, nil
}
