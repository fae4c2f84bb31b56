package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type tokenService interface {
	Generate(ctx context.Context, actor models.Actor, req dto.GenerateTokenRequest) (*dto.GenerateTokenResponse, error)
	List(ctx context.Context, matric string, limit int) ([]models.RegistrationToken, error)
}

// TokenHandler lets admins issue registration tokens.
type TokenHandler struct {
	service tokenService
}

// NewTokenHandler constructs TokenHandler.
func NewTokenHandler(svc tokenService) *TokenHandler {
	return &TokenHandler{service: svc}
}

// Generate godoc
// @Summary Issue a registration token
// @Description Carryover tokens add courses to the draft; late registration tokens lift the deadline
// @Tags Tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateTokenRequest true "Token request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/generate-token [post]
func (h *TokenHandler) Generate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.GenerateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List issued tokens
// @Tags Tokens
// @Produce json
// @Security BearerAuth
// @Param matric_number query string false "Filter by student"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /admin/tokens [get]
func (h *TokenHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	tokens, err := h.service.List(c.Request.Context(), strings.TrimSpace(c.Query("matric_number")), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokens, nil)
}
