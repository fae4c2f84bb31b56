package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type routerFixture struct {
	router        *gin.Engine
	registrations *fakeRegistrationService
	approvals     *fakeApprovalService
}

func buildRouter() routerFixture {
	gin.SetMode(gin.TestMode)
	registrations := &fakeRegistrationService{}
	approvals := &fakeApprovalService{}

	// X-Test-Role stands in for a verified bearer token.
	authn := func(c *gin.Context) {
		switch models.UserRole(c.GetHeader("X-Test-Role")) {
		case models.RoleAdmin:
			c.Set(middleware.ContextUserKey, adminClaims())
		case models.RoleStudent:
			c.Set(middleware.ContextUserKey, studentClaims())
		default:
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}

	router := gin.New()
	Handlers{
		Auth:          NewAuthHandler(&fakeAuthService{}),
		Catalog:       NewCatalogHandler(&fakeCatalogService{}),
		Configuration: NewConfigurationHandler(&fakeConfigService{cfg: models.RegistrationConfig{ActiveSemester: "first"}}),
		Registration:  NewRegistrationHandler(registrations),
		Students:      NewStudentHandler(&fakeStudentService{}, &fakeStudentExporter{}),
		Approvals:     NewApprovalHandler(approvals),
		Dashboard:     NewDashboardHandler(&fakeDashboardService{resp: &dto.AdminDashboardResponse{TotalStudents: 3}}),
		Tokens:        NewTokenHandler(&fakeTokenService{}),
		Signatures:    NewSignatureHandler(&fakeSignatureService{}),
		Exports:       NewExportHandler(&fakeExportService{}),
		Audit:         NewAuditHandler(&fakeAuditLister{}),
		Metrics:       NewMetricsHandler(service.NewMetricsService()),
	}.Register(router.Group("/api"), authn)

	return routerFixture{router: router, registrations: registrations, approvals: approvals}
}

func TestRoutesAccessControl(t *testing.T) {
	f := buildRouter()

	cases := []struct {
		name   string
		method string
		path   string
		role   models.UserRole
		status int
	}{
		{"public config", http.MethodGet, "/api/config", "", http.StatusOK},
		{"public catalog", http.MethodGet, "/api/courses/cs/200/first", "", http.StatusOK},
		{"public signatures", http.MethodGet, "/api/public/signatures", "", http.StatusOK},
		{"me requires auth", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{"draft requires auth", http.MethodGet, "/api/student/registration/first", "", http.StatusUnauthorized},
		{"admin cannot use student routes", http.MethodGet, "/api/student/registration/first", models.RoleAdmin, http.StatusForbidden},
		{"student draft", http.MethodGet, "/api/student/registration/first", models.RoleStudent, http.StatusOK},
		{"student cannot see dashboard", http.MethodGet, "/api/admin/dashboard", models.RoleStudent, http.StatusForbidden},
		{"admin dashboard", http.MethodGet, "/api/admin/dashboard", models.RoleAdmin, http.StatusOK},
		{"admin logs", http.MethodGet, "/api/admin/logs", models.RoleAdmin, http.StatusOK},
		{"admin metrics", http.MethodGet, "/api/admin/metrics", models.RoleAdmin, http.StatusOK},
		{"student cannot list tokens", http.MethodGet, "/api/admin/tokens", models.RoleStudent, http.StatusForbidden},
		{"admin deletes course", http.MethodDelete, "/api/admin/courses/CSC201?department=cs&level=200&semester=second", models.RoleAdmin, http.StatusNoContent},
		{"admin deletes signature", http.MethodDelete, "/api/admin/signatures/hod", models.RoleAdmin, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, tc.path, nil)
			if tc.role != "" {
				req.Header.Set("X-Test-Role", string(tc.role))
			}
			resp := performRequest(f.router, req)
			assert.Equal(t, tc.status, resp.Code, resp.Body.String())
		})
	}
}

func TestRoutesApproveEncodedMatric(t *testing.T) {
	f := buildRouter()

	req, _ := http.NewRequest(http.MethodPost, "/api/admin/approve/csc%2F2025%2F001/first", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(f.router, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, f.approvals.calls, 1)
	assert.Equal(t, "csc/2025/001", f.approvals.calls[0].matric)
	assert.Equal(t, "first", f.approvals.calls[0].semester)
}

func TestRoutesStaticAndParamSiblings(t *testing.T) {
	f := buildRouter()

	req, _ := http.NewRequest(http.MethodPost, "/api/student/registration/validate", bytes.NewBufferString(`{"courses":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	resp := performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	req, _ = http.NewRequest(http.MethodPost, "/api/student/registration/second/toggle", bytes.NewBufferString(`{"course_code":"CSC202"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	resp = performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, models.SemesterSecond, f.registrations.semester)
	assert.Equal(t, "CSC202", f.registrations.toggled)
}
