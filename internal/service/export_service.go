package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/export"
	"github.com/noah-isme/course-registration-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type exportRegistrationReader interface {
	Get(ctx context.Context, studentID string, semester models.Semester) (*models.Registration, error)
}

type signatoryLister interface {
	Signatories(ctx context.Context) ([]models.Signature, error)
}

type studentProfileLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfile, *models.Pagination, error)
}

type signatureImages interface {
	Path(filename string) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderCourseForm(form export.CourseForm) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix   string
	ResultTTL   time.Duration
	Institution string
	Session     string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string    `json:"-"`
	Token        string    `json:"token"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExportDeps groups ExportService collaborators.
type ExportDeps struct {
	Students      exportStudentReader
	Registrations exportRegistrationReader
	Signatures    signatoryLister
	Profiles      studentProfileLister
	Images        signatureImages
	Storage       fileStorage
	Signer        *storage.SignedURLSigner
	CSV           csvRenderer
	PDF           pdfRenderer
	Audit         auditRecorder
	Logger        *zap.Logger
	Config        ExportConfig
}

// ExportService renders course forms and student lists and serves them through signed links.
type ExportService struct {
	students      exportStudentReader
	registrations exportRegistrationReader
	signatures    signatoryLister
	profiles      studentProfileLister
	images        signatureImages
	storage       fileStorage
	signer        *storage.SignedURLSigner
	csv           csvRenderer
	pdf           pdfRenderer
	audit         auditRecorder
	logger        *zap.Logger
	cfg           ExportConfig
	now           func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(deps ExportDeps) *ExportService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config.ResultTTL <= 0 {
		deps.Config.ResultTTL = 24 * time.Hour
	}
	if deps.CSV == nil {
		deps.CSV = export.NewCSVExporter()
	}
	if deps.PDF == nil {
		deps.PDF = export.NewPDFExporter()
	}
	return &ExportService{
		students:      deps.Students,
		registrations: deps.Registrations,
		signatures:    deps.Signatures,
		profiles:      deps.Profiles,
		images:        deps.Images,
		storage:       deps.Storage,
		signer:        deps.Signer,
		csv:           deps.CSV,
		pdf:           deps.PDF,
		audit:         deps.Audit,
		logger:        deps.Logger,
		cfg:           deps.Config,
		now:           time.Now,
	}
}

// CourseForm renders the student's registered courses for a semester and returns a signed link.
func (s *ExportService) CourseForm(ctx context.Context, actor models.Actor, semester models.Semester) (*ExportResult, error) {
	student, err := s.students.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	reg, err := s.registrations.Get(ctx, student.ID, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no registration for this semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	courses, err := reg.CourseList()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registration")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no registered courses for this semester")
	}

	form := export.CourseForm{
		Institution: s.cfg.Institution,
		Semester:    semester.Label(),
		Session:     s.cfg.Session,
		FullName:    student.FullName,
		Matric:      student.MatricNumber,
		Department:  student.Department,
		Level:       student.Level,
		Status:      string(reg.Status),
	}
	for _, c := range courses {
		form.Courses = append(form.Courses, export.CourseFormLine{
			Code:     c.CourseCode,
			Title:    c.CourseTitle,
			Units:    c.Units,
			Core:     c.IsCore,
			Schedule: strings.TrimSpace(c.Schedule.Day + " " + c.Schedule.Time),
		})
		form.TotalUnits += c.Units
	}
	signatories, err := s.signatures.Signatories(ctx)
	if err != nil {
		return nil, err
	}
	for _, sig := range signatories {
		line := export.Signatory{Role: sig.Role.Title(), Name: sig.Name}
		if sig.Signature != nil && s.images != nil {
			if path, err := s.images.Path(*sig.Signature); err == nil {
				if _, statErr := os.Stat(path); statErr == nil {
					line.ImagePath = path
				}
			}
		}
		form.Signatories = append(form.Signatories, line)
	}

	payload, err := s.pdf.RenderCourseForm(form)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render course form")
	}
	filename := fmt.Sprintf("course_form_%s_%s_%s.pdf", storage.SafeName(student.MatricNumber), semester.Short(), s.now().UTC().Format("20060102_150405"))
	result, err := s.store(student.ID, filename, payload)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, models.AuditActionCourseFormIssued, "registration", string(semester))
	return result, nil
}

// StudentsCSV renders the filtered student list with each semester's status.
func (s *ExportService) StudentsCSV(ctx context.Context, filter models.StudentFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 500
	columns := []export.Column{
		{Key: "matric", Label: "Matric Number"},
		{Key: "name", Label: "Full Name"},
		{Key: "department", Label: "Department"},
		{Key: "level", Label: "Level"},
		{Key: "email", Label: "Email"},
		{Key: "phone", Label: "Phone"},
	}
	for _, sem := range models.AllSemesters() {
		columns = append(columns,
			export.Column{Key: string(sem) + "_status", Label: sem.Label() + " Semester Status"},
			export.Column{Key: string(sem) + "_units", Label: sem.Label() + " Semester Units"},
		)
	}

	var rows []map[string]string
	for {
		profiles, page, err := s.profiles.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			row := map[string]string{
				"matric":     p.MatricNumber,
				"name":       p.FullName,
				"department": p.Department,
				"level":      p.Level,
				"email":      p.Email,
				"phone":      p.Phone,
			}
			for _, sem := range models.AllSemesters() {
				units := 0
				for _, c := range p.RegisteredCourses[sem] {
					units += c.Units
				}
				row[string(sem)+"_status"] = string(p.RegistrationStatus[sem])
				row[string(sem)+"_units"] = strconv.Itoa(units)
			}
			rows = append(rows, row)
		}
		if len(profiles) == 0 || page == nil || filter.Page*filter.PageSize >= page.TotalCount {
			break
		}
		filter.Page++
	}
	return s.csv.Render(export.Dataset{Columns: columns, Rows: rows})
}

// Resolve validates a download token. Students may only open their own files.
func (s *ExportService) Resolve(token string, actor models.Actor) (string, error) {
	owner, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	if actor.Role != models.RoleAdmin && owner != actor.UserID {
		return "", appErrors.Clone(appErrors.ErrForbidden, "download not permitted")
	}
	return relPath, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file not found")
	}
	return file, nil
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) store(owner, filename string, payload []byte) (*ExportResult, error) {
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(owner, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/downloads/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}
