package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateProfile(ctx context.Context, student *models.Student) error
}

type registrationLister interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.Registration, error)
}

// StudentService handles student use-cases.
type StudentService struct {
	repo          studentRepository
	registrations registrationLister
	audit         auditRecorder
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, registrations registrationLister, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, registrations: registrations, audit: audit, validator: validate, logger: logger}
}

// List returns students with their registrations and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfile, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	profiles, err := s.profiles(ctx, students)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return profiles, pagination, nil
}

// Profile returns the signed-in student's record.
func (s *StudentService) Profile(ctx context.Context, actor models.Actor) (*models.StudentProfile, error) {
	student, err := s.find(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles(ctx, []models.Student{*student})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// UpdateProfile changes the contact details a student controls.
func (s *StudentService) UpdateProfile(ctx context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	student, err := s.find(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "full_name cannot be empty")
		}
		student.FullName = name
	}
	if req.Email != nil {
		student.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		student.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := s.repo.UpdateProfile(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	s.audit.Record(ctx, actor, models.AuditActionProfileUpdate, "student", student.MatricNumber)
	return s.Profile(ctx, actor)
}

func (s *StudentService) find(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// profiles attaches registrations so every semester reports a status,
// not_started when nothing was submitted.
func (s *StudentService) profiles(ctx context.Context, students []models.Student) ([]models.StudentProfile, error) {
	out := make([]models.StudentProfile, len(students))
	if len(students) == 0 {
		return out, nil
	}
	ids := make([]string, len(students))
	index := make(map[string]int, len(students))
	for i, st := range students {
		ids[i] = st.ID
		index[st.ID] = i
		out[i] = models.StudentProfile{
			Student:            st,
			RegisteredCourses:  map[models.Semester][]models.Course{},
			RegistrationStatus: map[models.Semester]models.RegistrationStatus{},
		}
		for _, sem := range models.AllSemesters() {
			out[i].RegisteredCourses[sem] = []models.Course{}
			out[i].RegistrationStatus[sem] = models.RegistrationNotStarted
		}
	}

	regs, err := s.registrations.ListByStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	for i := range regs {
		idx, ok := index[regs[i].StudentID]
		if !ok {
			continue
		}
		courses, err := regs[i].CourseList()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registration")
		}
		out[idx].RegisteredCourses[regs[i].Semester] = courses
		out[idx].RegistrationStatus[regs[i].Semester] = regs[i].Status
	}
	return out, nil
}
