package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func TestSignatureHandlerSaveWithImage(t *testing.T) {
	svc := &fakeSignatureService{}
	h := NewSignatureHandler(svc)

	req := multipartRequest(t, "/admin/signatures", map[string]string{"role": " HOD ", "name": "Dr. Bello"}, "signature", "bello.png", "image/png", []byte("img"))
	c, w := testContext(req, adminClaims())
	h.Save(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SignatureHOD, svc.role)
	assert.Equal(t, "Dr. Bello", svc.name)
	assert.Equal(t, "bello.png", svc.imageName)
}

func TestSignatureHandlerSaveNameOnly(t *testing.T) {
	svc := &fakeSignatureService{}
	h := NewSignatureHandler(svc)

	req := multipartRequest(t, "/admin/signatures", map[string]string{"role": "dean", "name": "Prof. Ade"}, "", "", "", nil)
	c, w := testContext(req, adminClaims())
	h.Save(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SignatureDean, svc.role)
	assert.Empty(t, svc.imageName)
}

func TestSignatureHandlerDeleteMissing(t *testing.T) {
	svc := &fakeSignatureService{err: appErrors.Clone(appErrors.ErrNotFound, "signature not found")}
	h := NewSignatureHandler(svc)

	c, w := testContext(httptest.NewRequest(http.MethodDelete, "/admin/signatures/registrar", nil), adminClaims(), gin.Param{Key: "role", Value: "Registrar"})
	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.SignatureRegistrar, svc.deleted)
}
