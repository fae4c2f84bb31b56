package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type approvalStudentLookup interface {
	FindByMatric(ctx context.Context, matric string) (*models.Student, error)
}

type approvalRegistrationRepository interface {
	SetStatus(ctx context.Context, studentID string, semester models.Semester, status models.RegistrationStatus, reviewer string) (bool, error)
	Reset(ctx context.Context, studentID string, semester models.Semester, reviewer string) error
}

type draftRemover interface {
	Delete(ctx context.Context, studentID string, semester models.Semester) error
}

// ApprovalService records admin decisions on submitted registrations.
type ApprovalService struct {
	students      approvalStudentLookup
	registrations approvalRegistrationRepository
	drafts        draftRemover
	cache         *CacheService
	audit         auditRecorder
	logger        *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(students approvalStudentLookup, registrations approvalRegistrationRepository, drafts draftRemover, cache *CacheService, audit auditRecorder, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{students: students, registrations: registrations, drafts: drafts, cache: cache, audit: audit, logger: logger}
}

// Approve marks a submitted registration approved.
func (s *ApprovalService) Approve(ctx context.Context, actor models.Actor, matric, semester string) error {
	return s.decide(ctx, actor, matric, semester, models.RegistrationApproved, models.AuditActionApproved)
}

// Reject marks a submitted registration rejected so the student can resubmit.
func (s *ApprovalService) Reject(ctx context.Context, actor models.Actor, matric, semester string) error {
	return s.decide(ctx, actor, matric, semester, models.RegistrationRejected, models.AuditActionRejected)
}

// Reset clears a student's registration so they can register from scratch.
func (s *ApprovalService) Reset(ctx context.Context, actor models.Actor, matric, semester string) error {
	student, sem, err := s.resolve(ctx, matric, semester)
	if err != nil {
		return err
	}
	if err := s.registrations.Reset(ctx, student.ID, sem, actor.MatricNumber); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	if err := s.drafts.Delete(ctx, student.ID, sem); err != nil {
		s.logger.Warn("failed to clear draft after reset", zap.String("student_id", student.ID), zap.Error(err))
	}
	s.cache.InvalidatePattern(ctx, cachePatternAdmin)
	s.audit.Record(ctx, actor, models.AuditActionDeleteReg, "registration", fmt.Sprintf("%s %s", student.MatricNumber, sem))
	return nil
}

func (s *ApprovalService) decide(ctx context.Context, actor models.Actor, matric, semester string, status models.RegistrationStatus, action string) error {
	student, sem, err := s.resolve(ctx, matric, semester)
	if err != nil {
		return err
	}
	updated, err := s.registrations.SetStatus(ctx, student.ID, sem, status, actor.MatricNumber)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	s.cache.InvalidatePattern(ctx, cachePatternAdmin)
	s.audit.Record(ctx, actor, action, "registration", fmt.Sprintf("%s %s", student.MatricNumber, sem))
	s.logger.Info("registration reviewed", zap.String("matric_number", student.MatricNumber), zap.String("semester", string(sem)), zap.String("status", string(status)))
	return nil
}

func (s *ApprovalService) resolve(ctx context.Context, matric, semester string) (*models.Student, models.Semester, error) {
	sem, ok := models.ParseSemester(semester)
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "invalid semester")
	}
	matric = strings.TrimSpace(matric)
	if matric == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "matric number required")
	}
	student, err := s.students.FindByMatric(ctx, matric)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, sem, nil
}
