package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.CatalogCourse, error)
	Upsert(ctx context.Context, course *models.CatalogCourse) error
	Delete(ctx context.Context, filter models.CatalogFilter, code string) (bool, error)
}

// CatalogService serves the courses offered to each department, level and semester.
type CatalogService struct {
	repo      courseRepository
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(repo courseRepository, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// ParseScope validates raw path or query values into a catalog filter.
func ParseScope(department, level, semester string) (models.CatalogFilter, error) {
	sem, ok := models.ParseSemester(semester)
	if !ok {
		return models.CatalogFilter{}, appErrors.Clone(appErrors.ErrValidation, "invalid semester")
	}
	department = strings.TrimSpace(department)
	level = strings.TrimSpace(level)
	if department == "" || level == "" {
		return models.CatalogFilter{}, appErrors.Clone(appErrors.ErrValidation, "department and level are required")
	}
	return models.CatalogFilter{Department: department, Level: level, Semester: sem}, nil
}

// List returns the courses of a scope in selection shape.
func (s *CatalogService) List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, error) {
	return Remember(ctx, s.cache, catalogCacheKey(filter), 0, func(ctx context.Context) ([]models.Course, error) {
		rows, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
		}
		courses := make([]models.Course, 0, len(rows))
		for _, row := range rows {
			courses = append(courses, row.Course())
		}
		return courses, nil
	})
}

// Find returns one course of a scope by code.
func (s *CatalogService) Find(ctx context.Context, filter models.CatalogFilter, code string) (*models.Course, error) {
	courses, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	want := models.NormalizeCode(code)
	for i := range courses {
		if models.NormalizeCode(courses[i].CourseCode) == want {
			return &courses[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s is not offered to %s level %s in the %s semester", code, filter.Department, filter.Level, filter.Semester.Label()))
}

// Upsert adds or updates a catalog course.
func (s *CatalogService) Upsert(ctx context.Context, actor models.Actor, req dto.UpsertCourseRequest) (*models.CatalogCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	filter, err := ParseScope(req.Department, req.Level, req.Semester)
	if err != nil {
		return nil, err
	}

	course := &models.CatalogCourse{
		Department:  filter.Department,
		Level:       filter.Level,
		Semester:    filter.Semester,
		CourseCode:  strings.ToUpper(strings.TrimSpace(req.CourseCode)),
		CourseTitle: strings.TrimSpace(req.CourseTitle),
		Units:       req.Units,
		IsCore:      req.IsCore,
		Lecturer:    req.Lecturer,
		Day:         req.Schedule.Day,
		Time:        req.Schedule.Time,
		Venue:       req.Schedule.Venue,
	}
	if err := s.repo.Upsert(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course")
	}
	s.cache.Invalidate(ctx, catalogCacheKey(filter))
	s.audit.Record(ctx, actor, models.AuditActionCourseUpsert, "course", fmt.Sprintf("%s %s/%s/%s", course.CourseCode, filter.Department, filter.Level, filter.Semester))
	return course, nil
}

// Delete removes a course from a scope.
func (s *CatalogService) Delete(ctx context.Context, actor models.Actor, filter models.CatalogFilter, code string) error {
	removed, err := s.repo.Delete(ctx, filter, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.cache.Invalidate(ctx, catalogCacheKey(filter))
	s.audit.Record(ctx, actor, models.AuditActionCourseDelete, "course", fmt.Sprintf("%s %s/%s/%s", code, filter.Department, filter.Level, filter.Semester))
	return nil
}
