package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type registrationService interface {
	Draft(ctx context.Context, actor models.Actor, semester models.Semester) (*dto.DraftResponse, error)
	Toggle(ctx context.Context, actor models.Actor, semester models.Semester, req dto.ToggleCourseRequest) (*dto.DraftResponse, error)
	Validate(ctx context.Context, actor models.Actor, req dto.ValidateSelectionRequest) (*registration.Validation, error)
	RedeemToken(ctx context.Context, actor models.Actor, req dto.RedeemTokenRequest) (*dto.RedeemTokenResponse, error)
	Submit(ctx context.Context, actor models.Actor, req dto.SubmitRegistrationRequest) (*dto.SubmitRegistrationResponse, error)
	Registered(ctx context.Context, actor models.Actor, semester models.Semester) (*dto.RegisteredCoursesResponse, error)
}

// RegistrationHandler serves the student registration workflow.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Draft godoc
// @Summary Current registration draft
// @Description Returns the stored selection with its validation, cap and lock state
// @Tags Registration
// @Produce json
// @Security BearerAuth
// @Param semester path string true "first or second"
// @Success 200 {object} response.Envelope
// @Router /student/registration/{semester} [get]
func (h *RegistrationHandler) Draft(c *gin.Context) {
	actor, semester, ok := h.scope(c)
	if !ok {
		return
	}
	draft, err := h.service.Draft(c.Request.Context(), actor, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Toggle godoc
// @Summary Add or remove a course
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param semester path string true "first or second"
// @Param payload body dto.ToggleCourseRequest true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/registration/{semester}/toggle [post]
func (h *RegistrationHandler) Toggle(c *gin.Context) {
	actor, semester, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.ToggleCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	draft, err := h.service.Toggle(c.Request.Context(), actor, semester, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Validate godoc
// @Summary Validate a selection
// @Description Checks units and clashes without saving anything
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ValidateSelectionRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Router /student/registration/validate [post]
func (h *RegistrationHandler) Validate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ValidateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RedeemToken godoc
// @Summary Redeem a registration token
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RedeemTokenRequest true "Token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/validate-token [post]
func (h *RegistrationHandler) RedeemToken(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RedeemTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}
	result, err := h.service.RedeemToken(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Submit course registration
// @Description Submits the draft (or the given courses) for approval
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitRegistrationRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/register-courses [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Courses registered successfully", result)
}

// Registered godoc
// @Summary Registered courses
// @Tags Registration
// @Produce json
// @Security BearerAuth
// @Param semester path string true "first or second"
// @Success 200 {object} response.Envelope
// @Router /student/registered-courses/{semester} [get]
func (h *RegistrationHandler) Registered(c *gin.Context) {
	actor, semester, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.service.Registered(c.Request.Context(), actor, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *RegistrationHandler) scope(c *gin.Context) (models.Actor, models.Semester, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, "", false
	}
	semester, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return models.Actor{}, "", false
	}
	return actor, semester, true
}
