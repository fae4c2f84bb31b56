package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, actor string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	service auditLister
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(svc auditLister) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary Latest audit entries
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param actor query string false "Filter by matric number"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /admin/logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.service.List(c.Request.Context(), c.Query("actor"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
