package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, error)
	Upsert(ctx context.Context, actor models.Actor, req dto.UpsertCourseRequest) (*models.CatalogCourse, error)
	Delete(ctx context.Context, actor models.Actor, filter models.CatalogFilter, code string) error
}

// CatalogHandler serves the course catalog.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds a catalog handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary Courses offered to a department and level
// @Tags Catalog
// @Produce json
// @Param department path string true "Department"
// @Param level path string true "Level"
// @Param semester path string true "first or second"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{department}/{level}/{semester} [get]
func (h *CatalogHandler) List(c *gin.Context) {
	filter, err := service.ParseScope(c.Param("department"), c.Param("level"), c.Param("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}

	courses, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(courses))
	response.JSON(c, http.StatusOK, courses, nil, middleware.ExtractMeta(c))
}

// Upsert godoc
// @Summary Add or update a catalog course
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpsertCourseRequest true "Course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/courses [post]
func (h *CatalogHandler) Upsert(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Upsert(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Remove a catalog course
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param department query string true "Department"
// @Param level query string true "Level"
// @Param semester query string true "Semester"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{code} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.CourseScopeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course scope"))
		return
	}
	filter, err := service.ParseScope(query.Department, query.Level, query.Semester)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, filter, c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
