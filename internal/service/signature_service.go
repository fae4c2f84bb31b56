package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/storage"
)

type signatureRepository interface {
	List(ctx context.Context) ([]models.Signature, error)
	Get(ctx context.Context, role models.SignatureRole) (*models.Signature, error)
	Upsert(ctx context.Context, sig *models.Signature) error
	Delete(ctx context.Context, role models.SignatureRole) (bool, error)
}

type signatureFiles interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// SignatureService manages the officer signatures printed on course forms.
type SignatureService struct {
	repo      signatureRepository
	files     signatureFiles
	audit     auditRecorder
	policy    UploadPolicy
	urlPrefix string
	logger    *zap.Logger
}

// NewSignatureService constructs the service. urlPrefix is where stored images are served.
func NewSignatureService(repo signatureRepository, files signatureFiles, audit auditRecorder, policy UploadPolicy, urlPrefix string, logger *zap.Logger) *SignatureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if urlPrefix == "" {
		urlPrefix = "/signatures"
	}
	return &SignatureService{repo: repo, files: files, audit: audit, policy: policy, urlPrefix: strings.TrimRight(urlPrefix, "/"), logger: logger}
}

// List returns signatures keyed by role.
func (s *SignatureService) List(ctx context.Context) (map[models.SignatureRole]dto.SignatureView, error) {
	sigs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signatures")
	}
	out := make(map[models.SignatureRole]dto.SignatureView, len(sigs))
	for _, sig := range sigs {
		view := dto.SignatureView{Name: sig.Name, UpdatedAt: sig.UpdatedAt.UTC().Format(time.RFC3339)}
		if sig.Signature != nil && *sig.Signature != "" {
			view.Signature = s.urlPrefix + "/" + *sig.Signature
		}
		out[sig.Role] = view
	}
	return out, nil
}

// Signatories returns stored signatures in form order. Roles without a record are skipped.
func (s *SignatureService) Signatories(ctx context.Context) ([]models.Signature, error) {
	sigs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signatures")
	}
	byRole := make(map[models.SignatureRole]models.Signature, len(sigs))
	for _, sig := range sigs {
		byRole[sig.Role] = sig
	}
	ordered := make([]models.Signature, 0, len(sigs))
	for _, role := range models.SignatureRoles() {
		if sig, ok := byRole[role]; ok {
			ordered = append(ordered, sig)
		}
	}
	return ordered, nil
}

// Save stores the name for a role and, when an image is given, replaces its file.
// Without an image the previous file is kept.
func (s *SignatureService) Save(ctx context.Context, actor models.Actor, role models.SignatureRole, name string, image *FileUpload) (*models.Signature, error) {
	name = strings.TrimSpace(name)
	if role == "" || name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role and name are required")
	}
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown signature role")
	}

	existing, err := s.repo.Get(ctx, role)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signature")
	}

	sig := &models.Signature{Role: role, Name: name, UpdatedBy: actor.MatricNumber}
	if existing != nil {
		sig.Signature = existing.Signature
	}

	if image != nil {
		if err := s.policy.check(image); err != nil {
			return nil, err
		}
		stored, err := s.files.SaveStream(storage.SafeName(string(role), strings.TrimSuffix(image.Filename, filepath.Ext(image.Filename)))+uploadExt(image.Filename), image.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store signature")
		}
		if existing != nil && existing.Signature != nil && *existing.Signature != stored {
			s.removeFile(*existing.Signature)
		}
		sig.Signature = &stored
	}

	if err := s.repo.Upsert(ctx, sig); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save signature")
	}
	s.audit.Record(ctx, actor, models.AuditActionSignatureUpdate, "signature", string(role))
	return sig, nil
}

// Delete removes the signature for a role and its image.
func (s *SignatureService) Delete(ctx context.Context, actor models.Actor, role models.SignatureRole) error {
	existing, err := s.repo.Get(ctx, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "signature not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signature")
	}
	deleted, err := s.repo.Delete(ctx, role)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete signature")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "signature not found")
	}
	if existing.Signature != nil {
		s.removeFile(*existing.Signature)
	}
	s.audit.Record(ctx, actor, models.AuditActionSignatureDelete, "signature", string(role))
	return nil
}

func (s *SignatureService) removeFile(name string) {
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("failed to remove signature file", zap.String("file", name), zap.Error(err))
	}
}
