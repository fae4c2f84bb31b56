package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/storage"
)

type authStudentRepository interface {
	FindByMatric(ctx context.Context, matric string) (*models.Student, error)
	ExistsByMatric(ctx context.Context, matric string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

type authAdminRepository interface {
	FindByMatric(ctx context.Context, matric string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	BootstrapKey      string
	PhotoPolicy       UploadPolicy
}

// AuthService provides signup, login and token verification.
type AuthService struct {
	students  authStudentRepository
	admins    authAdminRepository
	photos    fileSaver
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students authStudentRepository, admins authAdminRepository, photos fileSaver, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{students: students, admins: admins, photos: photos, audit: audit, validator: validate, logger: logger, config: config}
}

// Register creates a student account. The photo is optional.
func (s *AuthService) Register(ctx context.Context, req models.RegisterStudentRequest, photo *FileUpload, meta models.Actor) (*models.Student, error) {
	req.MatricNumber = strings.TrimSpace(req.MatricNumber)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	exists, err := s.students.ExistsByMatric(ctx, req.MatricNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check matric number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "matric number already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		MatricNumber: req.MatricNumber,
		FullName:     req.FullName,
		Department:   strings.TrimSpace(req.Department),
		Level:        req.Level,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	}

	if photo != nil {
		if err := s.config.PhotoPolicy.check(photo); err != nil {
			return nil, err
		}
		name, err := s.photos.SaveStream(storage.SafeName(req.MatricNumber, "photo")+uploadExt(photo.Filename), photo.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		student.Photo = &name
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	meta.MatricNumber = student.MatricNumber
	s.audit.Record(ctx, meta, models.AuditActionRegister, "student", student.MatricNumber)
	return student, nil
}

// Login authenticates an admin or a student. Admin accounts take precedence.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "credentials required")
	}

	admin, err := s.admins.FindByMatric(ctx, req.MatricNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}
	if admin != nil && bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) == nil {
		info := models.UserInfo{ID: admin.ID, FullName: admin.FullName, MatricNumber: admin.MatricNumber, Role: models.RoleAdmin, IsAdmin: true}
		return s.issue(ctx, info, req)
	}

	student, err := s.students.FindByMatric(ctx, req.MatricNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}

	info := models.UserInfo{
		ID:           student.ID,
		FullName:     student.FullName,
		MatricNumber: student.MatricNumber,
		Department:   student.Department,
		Level:        student.Level,
		Role:         models.RoleStudent,
	}
	return s.issue(ctx, info, req)
}

// CreateAdmin bootstraps an admin account. When a bootstrap key is configured the caller must present it.
func (s *AuthService) CreateAdmin(ctx context.Context, req models.CreateAdminRequest, key string, meta models.Actor) (*models.Admin, error) {
	if s.config.BootstrapKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.config.BootstrapKey)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid bootstrap key")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing fields")
	}

	existing, err := s.admins.FindByMatric(ctx, req.MatricNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admin")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admin exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	admin := &models.Admin{MatricNumber: req.MatricNumber, FullName: req.FullName, PasswordHash: string(hash)}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}

	meta.MatricNumber = admin.MatricNumber
	meta.Role = models.RoleAdmin
	s.audit.Record(ctx, meta, models.AuditActionAdminCreate, "admin", admin.MatricNumber)
	return admin, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, info models.UserInfo, req models.LoginRequest) (*models.LoginResponse, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:       info.ID,
		MatricNumber: info.MatricNumber,
		Role:         info.Role,
		FullName:     info.FullName,
		Department:   info.Department,
		Level:        info.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   info.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.audit.Record(ctx, models.Actor{
		UserID:       info.ID,
		MatricNumber: info.MatricNumber,
		Role:         info.Role,
		IP:           req.IP,
		UserAgent:    req.UserAgent,
	}, models.AuditActionLogin, "auth", string(info.Role))

	return &models.LoginResponse{
		Token:     signed,
		ExpiresIn: int64(s.config.AccessTokenExpiry.Seconds()),
		User:      info,
	}, nil
}
