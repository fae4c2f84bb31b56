package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type approvalService interface {
	Approve(ctx context.Context, actor models.Actor, matric, semester string) error
	Reject(ctx context.Context, actor models.Actor, matric, semester string) error
	Reset(ctx context.Context, actor models.Actor, matric, semester string) error
}

// ApprovalHandler lets admins decide on submitted registrations.
// Routes take a catch-all "path" of the form <matric_number>/<semester>.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs ApprovalHandler.
func NewApprovalHandler(svc approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Approve godoc
// @Summary Approve a registration
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param path path string true "URL-encoded matric number followed by /semester"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/approve/{path} [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.act(c, h.service.Approve, "Registration approved")
}

// Reject godoc
// @Summary Reject a registration
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param path path string true "URL-encoded matric number followed by /semester"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reject/{path} [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.act(c, h.service.Reject, "Registration rejected")
}

// Reset godoc
// @Summary Delete a registration
// @Description Clears the courses and returns the student to not_started
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param path path string true "URL-encoded matric number followed by /semester"
// @Success 200 {object} response.Envelope
// @Router /admin/delete-registration/{path} [delete]
func (h *ApprovalHandler) Reset(c *gin.Context) {
	h.act(c, h.service.Reset, "Registration deleted")
}

func (h *ApprovalHandler) act(c *gin.Context, fn func(context.Context, models.Actor, string, string) error, message string) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	matric, semester, err := splitMatricPath(c.Param("path"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := fn(c.Request.Context(), actor, matric, semester); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, message, gin.H{"matric_number": matric, "semester": semester})
}
