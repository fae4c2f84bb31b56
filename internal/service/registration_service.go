package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
	"github.com/noah-isme/course-registration-api/internal/repository"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type registrationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type registrationRepository interface {
	Get(ctx context.Context, studentID string, semester models.Semester) (*models.Registration, error)
	Submit(ctx context.Context, reg *models.Registration) (bool, error)
}

type draftRepository interface {
	Load(ctx context.Context, studentID string, semester models.Semester) (*registration.Session, error)
	Save(ctx context.Context, session *registration.Session) error
	Delete(ctx context.Context, studentID string, semester models.Semester) error
}

type tokenRedeemer interface {
	FindByCode(ctx context.Context, code string) (*models.RegistrationToken, error)
	MarkUsed(ctx context.Context, id string, semester models.Semester) (bool, error)
	HasRedeemed(ctx context.Context, matric string, tokenType models.TokenType, semester models.Semester) (bool, error)
}

type catalogReader interface {
	Find(ctx context.Context, filter models.CatalogFilter, code string) (*models.Course, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.RegistrationConfig, error)
}

// RegistrationService drives a student's course selection from draft to submission.
type RegistrationService struct {
	students      registrationStudentReader
	registrations registrationRepository
	drafts        draftRepository
	tokens        tokenRedeemer
	catalog       catalogReader
	settings      settingsReader
	cache         *CacheService
	metrics       *MetricsService
	audit         auditRecorder
	validator     *validator.Validate
	logger        *zap.Logger
	defaultCap    int
	now           func() time.Time
}

// RegistrationDeps groups the collaborators of RegistrationService.
type RegistrationDeps struct {
	Students      registrationStudentReader
	Registrations registrationRepository
	Drafts        draftRepository
	Tokens        tokenRedeemer
	Catalog       catalogReader
	Settings      settingsReader
	Cache         *CacheService
	Metrics       *MetricsService
	Audit         auditRecorder
	Validator     *validator.Validate
	Logger        *zap.Logger
	DefaultCap    int
}

// NewRegistrationService constructs the service.
func NewRegistrationService(deps RegistrationDeps) *RegistrationService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.DefaultCap <= 0 {
		deps.DefaultCap = registration.DefaultMaxUnits
	}
	return &RegistrationService{
		students:      deps.Students,
		registrations: deps.Registrations,
		drafts:        deps.Drafts,
		tokens:        deps.Tokens,
		catalog:       deps.Catalog,
		settings:      deps.Settings,
		cache:         deps.Cache,
		metrics:       deps.Metrics,
		audit:         deps.Audit,
		validator:     deps.Validator,
		logger:        deps.Logger,
		defaultCap:    deps.DefaultCap,
		now:           time.Now,
	}
}

// workspace is everything loaded to act on one student's semester.
type workspace struct {
	student *models.Student
	config  *models.RegistrationConfig
	status  models.RegistrationStatus
	session *registration.Session
}

// Draft returns the current draft for a semester.
func (s *RegistrationService) Draft(ctx context.Context, actor models.Actor, semester models.Semester) (*dto.DraftResponse, error) {
	ws, err := s.open(ctx, actor, semester)
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

// Toggle adds or removes a catalog course from the draft.
func (s *RegistrationService) Toggle(ctx context.Context, actor models.Actor, semester models.Semester, req dto.ToggleCourseRequest) (*dto.DraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course_code is required")
	}
	ws, err := s.open(ctx, actor, semester)
	if err != nil {
		return nil, err
	}
	if ws.status.Locked() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "already registered")
	}

	course, selected := ws.session.Selection.Find(req.CourseCode)
	if !selected {
		found, err := s.catalog.Find(ctx, models.CatalogFilter{Department: ws.student.Department, Level: ws.student.Level, Semester: semester}, req.CourseCode)
		if err != nil {
			return nil, err
		}
		course = *found
	}

	if err := ws.session.Toggle(course); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, ws.session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return s.view(ws), nil
}

// Validate checks a client-held selection against the student's cap without storing it.
func (s *RegistrationService) Validate(ctx context.Context, actor models.Actor, req dto.ValidateSelectionRequest) (*registration.Validation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course list")
	}
	student, err := s.student(ctx, actor)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	result := registration.ValidateSelection(req.Courses, cfg.MaxUnitsFor(student.Level, s.defaultCap))
	return &result, nil
}

// RedeemToken consumes a token issued to the student and applies it to the draft.
func (s *RegistrationService) RedeemToken(ctx context.Context, actor models.Actor, req dto.RedeemTokenRequest) (*dto.RedeemTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "token required")
	}
	semester, err := s.semesterOrActive(ctx, req.Semester)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.FindByCode(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load token")
	}
	if token.MatricNumber != actor.MatricNumber {
		return nil, appErrors.Clone(appErrors.ErrTokenForbidden, "token not assigned to you")
	}
	if token.Used {
		return nil, appErrors.Clone(appErrors.ErrTokenUsed, "token already used")
	}
	if !token.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token")
	}
	courses, err := token.CourseList()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read token courses")
	}

	ws, err := s.open(ctx, actor, semester)
	if err != nil {
		return nil, err
	}
	if ws.status.Locked() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "already registered")
	}

	previous := *ws.session
	previous.Selection = append(registration.Selection{}, ws.session.Selection...)

	result := models.TokenResult{Type: token.Type, Courses: courses}
	if err := ws.session.ApplyToken(result); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, ws.session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}

	// The token is spent only once the draft holds its courses.
	marked, err := s.tokens.MarkUsed(ctx, token.ID, semester)
	if err != nil || !marked {
		s.restoreDraft(ctx, &previous)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem token")
		}
		return nil, appErrors.Clone(appErrors.ErrTokenUsed, "token already used")
	}

	s.metrics.RecordTokenRedeemed(string(token.Type))
	s.audit.Record(ctx, actor, models.AuditActionTokenUsed, "token", fmt.Sprintf("%s token used for %s", token.Type, semester))
	return &dto.RedeemTokenResponse{
		Type:      token.Type,
		Courses:   courses,
		TokenUsed: true,
		Draft:     s.view(ws),
	}, nil
}

// Submit sends the selection for approval.
func (s *RegistrationService) Submit(ctx context.Context, actor models.Actor, req dto.SubmitRegistrationRequest) (*dto.SubmitRegistrationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	semester, ok := models.ParseSemester(req.Semester)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid semester")
	}

	ws, err := s.open(ctx, actor, semester)
	if err != nil {
		return nil, err
	}
	active := ws.config.ActiveSemesterKey()
	if semester != active {
		return nil, s.blocked(appErrors.Clone(appErrors.ErrRegistrationClosed,
			fmt.Sprintf("Registration closed for %s Semester. Only %s Semester is active.", semester.Label(), active.Label())))
	}
	if ws.status.Locked() {
		return nil, s.blocked(appErrors.Clone(appErrors.ErrAlreadyRegistered, "already registered"))
	}

	if req.Courses != nil {
		scope := models.CatalogFilter{Department: ws.student.Department, Level: ws.student.Level, Semester: semester}
		selection, err := s.resolveSubmitted(ctx, scope, ws.session.Selection, req.Courses)
		if err != nil {
			return nil, s.blocked(err)
		}
		ws.session.Selection = selection
	}
	if err := ws.session.CheckSubmittable(); err != nil {
		return nil, s.blocked(err)
	}

	reg := &models.Registration{
		StudentID:  ws.student.ID,
		Semester:   semester,
		TotalUnits: registration.ComputeTotalUnits(ws.session.Selection),
	}
	if err := reg.SetCourses(ws.session.Selection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode courses")
	}
	stored, err := s.registrations.Submit(ctx, reg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration")
	}
	if !stored {
		return nil, s.blocked(appErrors.Clone(appErrors.ErrAlreadyRegistered, "already registered"))
	}

	if err := s.drafts.Delete(ctx, ws.student.ID, semester); err != nil {
		s.logger.Warn("failed to clear draft after submission", zap.String("student_id", ws.student.ID), zap.Error(err))
	}
	s.cache.InvalidatePattern(ctx, cachePatternAdmin)
	s.metrics.RecordSubmission()
	s.audit.Record(ctx, actor, models.AuditActionRegisterCourses, "registration", string(semester))

	return &dto.SubmitRegistrationResponse{
		Semester:   semester,
		Status:     models.RegistrationPending,
		TotalUnits: reg.TotalUnits,
		Courses:    ws.session.Selection,
	}, nil
}

// Registered returns the stored registration of a semester for the course form page.
func (s *RegistrationService) Registered(ctx context.Context, actor models.Actor, semester models.Semester) (*dto.RegisteredCoursesResponse, error) {
	student, err := s.student(ctx, actor)
	if err != nil {
		return nil, err
	}
	resp := &dto.RegisteredCoursesResponse{
		Courses: []models.Course{},
		Status:  models.RegistrationNotStarted,
		Student: models.UserInfo{
			ID:           student.ID,
			FullName:     student.FullName,
			MatricNumber: student.MatricNumber,
			Department:   student.Department,
			Level:        student.Level,
			Role:         models.RoleStudent,
		},
	}
	reg, err := s.registrations.Get(ctx, student.ID, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resp, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	courses, err := reg.CourseList()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registration")
	}
	resp.Courses = courses
	resp.Status = reg.Status
	return resp, nil
}

func (s *RegistrationService) student(ctx context.Context, actor models.Actor) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *RegistrationService) semesterOrActive(ctx context.Context, raw string) (models.Semester, error) {
	if raw != "" {
		sem, ok := models.ParseSemester(raw)
		if !ok {
			return "", appErrors.Clone(appErrors.ErrValidation, "invalid semester")
		}
		return sem, nil
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	return cfg.ActiveSemesterKey(), nil
}

// open loads the student, settings, stored registration and draft. A missing
// draft is seeded from the stored registration. Cap and lock are always
// recomputed so admin changes apply to existing drafts.
func (s *RegistrationService) open(ctx context.Context, actor models.Actor, semester models.Semester) (*workspace, error) {
	student, err := s.student(ctx, actor)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	ws := &workspace{student: student, config: cfg, status: models.RegistrationNotStarted}
	var stored []models.Course
	reg, err := s.registrations.Get(ctx, student.ID, semester)
	switch {
	case err == nil:
		ws.status = reg.Status
		if stored, err = reg.CourseList(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registration")
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	locked := false
	if cfg.DeadlinePassed(s.now()) {
		unlocked, err := s.tokens.HasRedeemed(ctx, student.MatricNumber, models.TokenLateRegistration, semester)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check late registration")
		}
		locked = !unlocked
	}
	maxUnits := cfg.MaxUnitsFor(student.Level, s.defaultCap)

	session, err := s.drafts.Load(ctx, student.ID, semester)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDraftNotFound):
		session = registration.NewSession(student.ID, student.Level, semester, maxUnits, locked)
		for _, c := range stored {
			if !session.Selection.Contains(c.CourseCode) {
				session.Selection = append(session.Selection, c)
			}
		}
		session.CarryoverLoaded = len(session.Selection.Carryover()) > 0
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	session.Level = student.Level
	session.MaxUnits = maxUnits
	session.Locked = locked
	ws.session = session
	return ws, nil
}

func (s *RegistrationService) view(ws *workspace) *dto.DraftResponse {
	return &dto.DraftResponse{
		Semester:        ws.session.Semester,
		Status:          ws.status,
		Courses:         ws.session.Selection,
		Locked:          ws.session.Locked,
		CarryoverLoaded: ws.session.CarryoverLoaded,
		Validation:      ws.session.Validate(),
		ActiveSemester:  ws.config.ActiveSemesterKey(),
		Deadline:        ws.config.RegistrationDeadline,
	}
}

func (s *RegistrationService) blocked(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		s.metrics.RecordBlockedSubmission(appErr.Code)
	}
	return err
}

func (s *RegistrationService) restoreDraft(ctx context.Context, previous *registration.Session) {
	if err := s.drafts.Save(ctx, previous); err != nil {
		s.logger.Warn("failed to restore draft after token redemption failed",
			zap.String("student_id", previous.StudentID), zap.Error(err))
	}
}

// resolveSubmitted builds the new selection from the codes a client sent.
// Carryover entries come from the draft; every other course is read from the
// catalog of the student's scope, so client-sent units and schedules are ignored.
// Every carryover course must remain.
func (s *RegistrationService) resolveSubmitted(ctx context.Context, scope models.CatalogFilter, draft registration.Selection, submitted []models.Course) (registration.Selection, error) {
	next := make(registration.Selection, 0, len(submitted))
	for _, c := range submitted {
		if next.Contains(c.CourseCode) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s selected more than once", c.CourseCode))
		}
		if prev, ok := draft.Find(c.CourseCode); ok && prev.IsCarryover {
			next = append(next, prev)
			continue
		}
		found, err := s.catalog.Find(ctx, scope, c.CourseCode)
		if err != nil {
			return nil, err
		}
		course := *found
		course.IsCarryover = false
		next = append(next, course)
	}
	for _, c := range draft.Carryover() {
		if !next.Contains(c.CourseCode) {
			return nil, appErrors.Clone(appErrors.ErrCarryoverLocked, fmt.Sprintf("cannot remove carryover course %s", c.CourseCode))
		}
	}
	return next, nil
}
