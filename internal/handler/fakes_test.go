package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
	"github.com/noah-isme/course-registration-api/internal/service"
)

type responseEnvelope struct {
	Data    map[string]interface{} `json:"data"`
	Message string                 `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "stu-1", MatricNumber: "csc/2025/001", Role: models.RoleStudent, FullName: "Ada Obi", Department: "Computer Science", Level: "200"}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "adm-1", MatricNumber: "admin", Role: models.RoleAdmin, FullName: "Registry"}
}

// testContext builds a gin context for calling a handler method directly.
func testContext(req *http.Request, claims *models.JWTClaims, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

type fakeAuthService struct {
	registered *models.RegisterStudentRequest
	photo      []byte
	photoName  string
	adminKey   string
	err        error
}

func (f *fakeAuthService) Register(_ context.Context, req models.RegisterStudentRequest, photo *service.FileUpload, _ models.Actor) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = &req
	if photo != nil {
		f.photoName = photo.Filename
		f.photo, _ = io.ReadAll(photo.Reader)
	}
	return &models.Student{ID: "stu-1", MatricNumber: req.MatricNumber, FullName: req.FullName}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{Token: "jwt", ExpiresIn: 3600, User: models.UserInfo{MatricNumber: req.MatricNumber}}, nil
}

func (f *fakeAuthService) CreateAdmin(_ context.Context, req models.CreateAdminRequest, key string, _ models.Actor) (*models.Admin, error) {
	f.adminKey = key
	if f.err != nil {
		return nil, f.err
	}
	return &models.Admin{ID: "adm-1", MatricNumber: req.MatricNumber, FullName: req.FullName}, nil
}

type fakeCatalogService struct {
	filter  models.CatalogFilter
	courses []models.Course
	deleted string
	err     error
}

func (f *fakeCatalogService) List(_ context.Context, filter models.CatalogFilter) ([]models.Course, error) {
	f.filter = filter
	return f.courses, f.err
}

func (f *fakeCatalogService) Upsert(_ context.Context, _ models.Actor, req dto.UpsertCourseRequest) (*models.CatalogCourse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CatalogCourse{CourseCode: req.CourseCode, Department: req.Department}, nil
}

func (f *fakeCatalogService) Delete(_ context.Context, _ models.Actor, filter models.CatalogFilter, code string) error {
	f.filter = filter
	f.deleted = code
	return f.err
}

type fakeConfigService struct {
	cfg     models.RegistrationConfig
	updated *dto.UpdateConfigRequest
	err     error
}

func (f *fakeConfigService) Get(context.Context) (*models.RegistrationConfig, error) {
	return &f.cfg, f.err
}

func (f *fakeConfigService) Update(_ context.Context, _ models.Actor, req dto.UpdateConfigRequest) (*models.RegistrationConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = &req
	return &f.cfg, nil
}

type fakeRegistrationService struct {
	actor     models.Actor
	semester  models.Semester
	toggled   string
	submitted *dto.SubmitRegistrationRequest
	err       error
}

func (f *fakeRegistrationService) Draft(_ context.Context, actor models.Actor, semester models.Semester) (*dto.DraftResponse, error) {
	f.actor, f.semester = actor, semester
	if f.err != nil {
		return nil, f.err
	}
	return &dto.DraftResponse{Semester: semester, Status: models.RegistrationNotStarted, Courses: registration.Selection{}}, nil
}

func (f *fakeRegistrationService) Toggle(_ context.Context, actor models.Actor, semester models.Semester, req dto.ToggleCourseRequest) (*dto.DraftResponse, error) {
	f.actor, f.semester, f.toggled = actor, semester, req.CourseCode
	if f.err != nil {
		return nil, f.err
	}
	return &dto.DraftResponse{Semester: semester}, nil
}

func (f *fakeRegistrationService) Validate(_ context.Context, actor models.Actor, _ dto.ValidateSelectionRequest) (*registration.Validation, error) {
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &registration.Validation{}, nil
}

func (f *fakeRegistrationService) RedeemToken(_ context.Context, actor models.Actor, req dto.RedeemTokenRequest) (*dto.RedeemTokenResponse, error) {
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RedeemTokenResponse{Type: models.TokenCarryover, Courses: []models.Course{}, TokenUsed: true}, nil
}

func (f *fakeRegistrationService) Submit(_ context.Context, actor models.Actor, req dto.SubmitRegistrationRequest) (*dto.SubmitRegistrationResponse, error) {
	f.actor = actor
	f.submitted = &req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SubmitRegistrationResponse{Semester: models.SemesterFirst, Status: models.RegistrationPending, TotalUnits: 18, Courses: req.Courses}, nil
}

func (f *fakeRegistrationService) Registered(_ context.Context, actor models.Actor, semester models.Semester) (*dto.RegisteredCoursesResponse, error) {
	f.actor, f.semester = actor, semester
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RegisteredCoursesResponse{Courses: []models.Course{}, Status: models.RegistrationNotStarted}, nil
}

type fakeStudentService struct {
	filter  models.StudentFilter
	profile models.StudentProfile
	update  *models.UpdateProfileRequest
	err     error
}

func (f *fakeStudentService) List(_ context.Context, filter models.StudentFilter) ([]models.StudentProfile, *models.Pagination, error) {
	f.filter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.StudentProfile{f.profile}, &models.Pagination{Page: 1, PageSize: 100, TotalCount: 1}, nil
}

func (f *fakeStudentService) Profile(context.Context, models.Actor) (*models.StudentProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.profile, nil
}

func (f *fakeStudentService) UpdateProfile(_ context.Context, _ models.Actor, req models.UpdateProfileRequest) (*models.StudentProfile, error) {
	f.update = &req
	if f.err != nil {
		return nil, f.err
	}
	return &f.profile, nil
}

type fakeStudentExporter struct {
	filter  models.StudentFilter
	payload []byte
}

func (f *fakeStudentExporter) StudentsCSV(_ context.Context, filter models.StudentFilter) ([]byte, error) {
	f.filter = filter
	return f.payload, nil
}

type approvalCall struct {
	action   string
	matric   string
	semester string
}

type fakeApprovalService struct {
	calls []approvalCall
	err   error
}

func (f *fakeApprovalService) record(action, matric, semester string) error {
	f.calls = append(f.calls, approvalCall{action: action, matric: matric, semester: semester})
	return f.err
}

func (f *fakeApprovalService) Approve(_ context.Context, _ models.Actor, matric, semester string) error {
	return f.record("approve", matric, semester)
}

func (f *fakeApprovalService) Reject(_ context.Context, _ models.Actor, matric, semester string) error {
	return f.record("reject", matric, semester)
}

func (f *fakeApprovalService) Reset(_ context.Context, _ models.Actor, matric, semester string) error {
	return f.record("reset", matric, semester)
}

type fakeDashboardService struct {
	resp *dto.AdminDashboardResponse
	err  error
}

func (f *fakeDashboardService) Admin(context.Context) (*dto.AdminDashboardResponse, error) {
	return f.resp, f.err
}

type fakeTokenService struct {
	req    *dto.GenerateTokenRequest
	matric string
	limit  int
	err    error
}

func (f *fakeTokenService) Generate(_ context.Context, _ models.Actor, req dto.GenerateTokenRequest) (*dto.GenerateTokenResponse, error) {
	f.req = &req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.GenerateTokenResponse{Token: "code", Type: req.Type, MatricNumber: req.MatricNumber, Courses: req.Courses}, nil
}

func (f *fakeTokenService) List(_ context.Context, matric string, limit int) ([]models.RegistrationToken, error) {
	f.matric, f.limit = matric, limit
	return []models.RegistrationToken{}, f.err
}

type fakeSignatureService struct {
	role      models.SignatureRole
	name      string
	imageName string
	deleted   models.SignatureRole
	err       error
}

func (f *fakeSignatureService) List(context.Context) (map[models.SignatureRole]dto.SignatureView, error) {
	return map[models.SignatureRole]dto.SignatureView{models.SignatureHOD: {Name: "Dr. Bello"}}, f.err
}

func (f *fakeSignatureService) Save(_ context.Context, _ models.Actor, role models.SignatureRole, name string, image *service.FileUpload) (*models.Signature, error) {
	f.role, f.name = role, name
	if image != nil {
		f.imageName = image.Filename
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Signature{Role: role, Name: name}, nil
}

func (f *fakeSignatureService) Delete(_ context.Context, _ models.Actor, role models.SignatureRole) error {
	f.deleted = role
	return f.err
}

type fakeExportService struct {
	result   *service.ExportResult
	path     string
	dir      string
	resolved models.Actor
	err      error
}

func (f *fakeExportService) CourseForm(context.Context, models.Actor, models.Semester) (*service.ExportResult, error) {
	return f.result, f.err
}

func (f *fakeExportService) Resolve(_ string, actor models.Actor) (string, error) {
	f.resolved = actor
	return f.path, f.err
}

func (f *fakeExportService) Open(relPath string) (*os.File, error) {
	return os.Open(f.dir + "/" + relPath)
}

type fakeAuditLister struct {
	actor string
	limit int
}

func (f *fakeAuditLister) List(_ context.Context, actor string, limit int) ([]models.AuditLog, error) {
	f.actor, f.limit = actor, limit
	return []models.AuditLog{}, nil
}
