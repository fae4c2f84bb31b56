package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

// BootstrapKeyHeader carries the key required to create admins when one is configured.
const BootstrapKeyHeader = "X-Bootstrap-Key"

type authService interface {
	Register(ctx context.Context, req models.RegisterStudentRequest, photo *service.FileUpload, meta models.Actor) (*models.Student, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	CreateAdmin(ctx context.Context, req models.CreateAdminRequest, key string, meta models.Actor) (*models.Admin, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register godoc
// @Summary Register a student
// @Description Create a student account. Accepts multipart form data with an optional photo.
// @Tags Authentication
// @Accept multipart/form-data
// @Produce json
// @Param full_name formData string true "Full name"
// @Param matric_number formData string true "Matric number"
// @Param department formData string true "Department"
// @Param level formData string true "Level"
// @Param email formData string false "Email"
// @Param phone formData string false "Phone"
// @Param password formData string true "Password"
// @Param photo formData file false "Passport photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	photo, closeFn, err := formUpload(c, "photo")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	student, err := h.service.Register(c.Request.Context(), req, photo, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "Registration successful", student)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate an admin or student by matric number and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// CreateAdmin godoc
// @Summary Create an admin
// @Tags Authentication
// @Accept json
// @Produce json
// @Param X-Bootstrap-Key header string false "Bootstrap key"
// @Param payload body models.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /create-admin [post]
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}

	admin, err := h.service.CreateAdmin(c.Request.Context(), req, c.GetHeader(BootstrapKeyHeader), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "Admin created", admin)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, models.UserInfo{
		ID:           claims.UserID,
		FullName:     claims.FullName,
		MatricNumber: claims.MatricNumber,
		Department:   claims.Department,
		Level:        claims.Level,
		Role:         claims.Role,
		IsAdmin:      claims.IsAdmin(),
	}, nil)
}
