package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type tokenStore interface {
	Create(ctx context.Context, token *models.RegistrationToken) error
	List(ctx context.Context, matric string, limit int) ([]models.RegistrationToken, error)
}

type tokenStudentLookup interface {
	ExistsByMatric(ctx context.Context, matric string) (bool, error)
}

// TokenService issues carryover and late registration tokens.
type TokenService struct {
	repo      tokenStore
	students  tokenStudentLookup
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	generate  func() (string, error)
}

// NewTokenService constructs the service.
func NewTokenService(repo tokenStore, students tokenStudentLookup, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *TokenService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{repo: repo, students: students, audit: audit, validator: validate, logger: logger, generate: newTokenCode}
}

// Generate issues a token to one student. Carryover tokens must carry courses.
func (s *TokenService) Generate(ctx context.Context, actor models.Actor, req dto.GenerateTokenRequest) (*dto.GenerateTokenResponse, error) {
	req.MatricNumber = strings.TrimSpace(req.MatricNumber)
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid type")
	}
	if req.MatricNumber == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "matric number required")
	}
	if req.Type == models.TokenCarryover && len(req.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "carryover courses required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token payload")
	}

	exists, err := s.students.ExistsByMatric(ctx, req.MatricNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	courses := []models.Course{}
	if req.Type == models.TokenCarryover {
		courses = req.Courses
	}
	encoded, err := json.Marshal(courses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode courses")
	}
	code, err := s.generate()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}

	token := &models.RegistrationToken{
		Code:         code,
		Type:         req.Type,
		MatricNumber: req.MatricNumber,
		Courses:      encoded,
		CreatedBy:    actor.MatricNumber,
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store token")
	}

	s.audit.Record(ctx, actor, models.AuditActionTokenGenerated, "token", fmt.Sprintf("%s for %s", req.Type, req.MatricNumber))
	s.logger.Info("registration token issued", zap.String("type", string(req.Type)), zap.String("matric_number", req.MatricNumber))
	return &dto.GenerateTokenResponse{Token: code, Type: req.Type, MatricNumber: req.MatricNumber, Courses: courses}, nil
}

// List returns issued tokens, newest first.
func (s *TokenService) List(ctx context.Context, matric string, limit int) ([]models.RegistrationToken, error) {
	tokens, err := s.repo.List(ctx, strings.TrimSpace(matric), limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tokens")
	}
	return tokens, nil
}

func newTokenCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
