package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type signatureService interface {
	List(ctx context.Context) (map[models.SignatureRole]dto.SignatureView, error)
	Save(ctx context.Context, actor models.Actor, role models.SignatureRole, name string, image *service.FileUpload) (*models.Signature, error)
	Delete(ctx context.Context, actor models.Actor, role models.SignatureRole) error
}

// SignatureHandler manages the officers printed on course forms.
type SignatureHandler struct {
	service signatureService
}

// NewSignatureHandler constructs SignatureHandler.
func NewSignatureHandler(svc signatureService) *SignatureHandler {
	return &SignatureHandler{service: svc}
}

// List godoc
// @Summary Signatories
// @Tags Signatures
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/signatures [get]
// @Router /admin/signatures [get]
func (h *SignatureHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Save godoc
// @Summary Create or update a signatory
// @Tags Signatures
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param role formData string true "course_advisor, hod, dean or registrar"
// @Param name formData string true "Officer name"
// @Param signature formData file false "Signature image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/signatures [post]
func (h *SignatureHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	image, closeFn, err := formUpload(c, "signature")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	role := models.SignatureRole(strings.ToLower(strings.TrimSpace(c.PostForm("role"))))
	sig, err := h.service.Save(c.Request.Context(), actor, role, c.PostForm("name"), image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Signature saved", sig)
}

// Delete godoc
// @Summary Remove a signatory
// @Tags Signatures
// @Produce json
// @Security BearerAuth
// @Param role path string true "Signature role"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/signatures/{role} [delete]
func (h *SignatureHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	role := models.SignatureRole(strings.ToLower(c.Param("role")))
	if err := h.service.Delete(c.Request.Context(), actor, role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
