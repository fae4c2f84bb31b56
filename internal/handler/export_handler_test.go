package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func TestExportHandlerCourseForm(t *testing.T) {
	svc := &fakeExportService{result: &service.ExportResult{Token: "tok", URL: "/api/downloads/tok", ExpiresAt: time.Now().Add(time.Hour)}}
	h := NewExportHandler(svc)

	c, w := testContext(httptest.NewRequest(http.MethodGet, "/student/course-form/first", nil), studentClaims(), gin.Param{Key: "semester", Value: "first"})
	h.CourseForm(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"url":"/api/downloads/tok"`)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course_form.pdf"), []byte("%PDF-1.3"), 0o600))
	svc := &fakeExportService{path: "course_form.pdf", dir: dir}
	h := NewExportHandler(svc)

	c, w := testContext(httptest.NewRequest(http.MethodGet, "/downloads/tok", nil), studentClaims(), gin.Param{Key: "token", Value: "tok"})
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "course_form.pdf")
	assert.Equal(t, "%PDF-1.3", w.Body.String())
	assert.Equal(t, models.RoleStudent, svc.resolved.Role)
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	h := NewExportHandler(&fakeExportService{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")})

	c, w := testContext(httptest.NewRequest(http.MethodGet, "/downloads/bad", nil), studentClaims(), gin.Param{Key: "token", Value: "bad"})
	h.Download(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
