package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
)

func TestStudentHandlerListFilters(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc, nil)

	c, w := testContext(httptest.NewRequest(http.MethodGet, "/admin/students?department=cs&level=200&status=PENDING&page=2&limit=50", nil), adminClaims())
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StudentFilter{Department: "cs", Level: "200", Status: models.RegistrationPending, Page: 2, PageSize: 50}, svc.filter)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestStudentHandlerListInvalidStatus(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{}, nil)

	c, w := testContext(httptest.NewRequest(http.MethodGet, "/admin/students?status=done", nil), adminClaims())
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentHandlerExportCSV(t *testing.T) {
	exporter := &fakeStudentExporter{payload: []byte("Matric Number,Full Name\ncsc/2025/001,Ada Obi\n")}
	h := NewStudentHandler(&fakeStudentService{}, exporter)

	c, w := testContext(httptest.NewRequest(http.MethodGet, "/admin/students/export?level=200", nil), adminClaims())
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students_")
	assert.Equal(t, "200", exporter.filter.Level)
	assert.Contains(t, w.Body.String(), "csc/2025/001")
}

func TestStudentHandlerUpdateProfile(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/student/profile", bytes.NewBufferString(`{"phone":"08030000000"}`))
	req.Header.Set("Content-Type", "application/json")
	c, w := testContext(req, studentClaims())
	h.UpdateProfile(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.update)
	require.NotNil(t, svc.update.Phone)
	assert.Equal(t, "08030000000", *svc.update.Phone)
	assert.Nil(t, svc.update.FullName)
}
