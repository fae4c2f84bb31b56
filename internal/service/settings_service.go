package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type settingsRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	BulkUpsert(ctx context.Context, settings []models.Setting) error
}

// SettingsDefaults seed the registration config before any admin override.
type SettingsDefaults struct {
	ActiveSemester string
	Deadline       string
	MaxUnits       int
	Levels         []string
}

// SettingsService exposes the registration configuration.
type SettingsService struct {
	repo      settingsRepository
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	defaults  SettingsDefaults
}

// NewSettingsService constructs the service.
func NewSettingsService(repo settingsRepository, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, defaults SettingsDefaults) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.MaxUnits <= 0 {
		defaults.MaxUnits = registration.DefaultMaxUnits
	}
	if _, ok := models.ParseSemester(defaults.ActiveSemester); !ok {
		defaults.ActiveSemester = models.SemesterFirst.Short()
	}
	return &SettingsService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, defaults: defaults}
}

// Get returns stored settings layered over the defaults.
func (s *SettingsService) Get(ctx context.Context) (*models.RegistrationConfig, error) {
	cfg, err := Remember(ctx, s.cache, cacheKeySettings, 0, s.load)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MaxUnitsFor returns the unit cap of a level.
func (s *SettingsService) MaxUnitsFor(ctx context.Context, level string) (int, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.MaxUnitsFor(level, s.defaults.MaxUnits), nil
}

// Update applies a partial update. Max unit entries are merged per level.
func (s *SettingsService) Update(ctx context.Context, actor models.Actor, req dto.UpdateConfigRequest) (*models.RegistrationConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid configuration payload")
	}

	updatedBy := actor.MatricNumber
	var rows []models.Setting
	var changes []string
	if req.ActiveSemester != nil {
		sem, _ := models.ParseSemester(*req.ActiveSemester)
		rows = append(rows, models.Setting{Key: models.SettingActiveSemester, Value: sem.Short(), Type: models.SettingTypeString, UpdatedBy: &updatedBy})
		changes = append(changes, "active_semester="+sem.Short())
	}
	if req.RegistrationDeadline != nil {
		rows = append(rows, models.Setting{Key: models.SettingRegistrationDeadline, Value: *req.RegistrationDeadline, Type: models.SettingTypeDate, UpdatedBy: &updatedBy})
		changes = append(changes, "registration_deadline="+*req.RegistrationDeadline)
	}
	levels := make([]string, 0, len(req.MaxUnits))
	for level := range req.MaxUnits {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	for _, level := range levels {
		value := strconv.Itoa(req.MaxUnits[level])
		rows = append(rows, models.Setting{Key: models.SettingMaxUnitsPrefix + level, Value: value, Type: models.SettingTypeInteger, UpdatedBy: &updatedBy})
		changes = append(changes, fmt.Sprintf("max_units[%s]=%s", level, value))
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no configuration changes provided")
	}

	if err := s.repo.BulkUpsert(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update configuration")
	}
	s.cache.Invalidate(ctx, cacheKeySettings)
	s.audit.Record(ctx, actor, models.AuditActionConfigUpdate, "settings", strings.Join(changes, ", "))
	s.logger.Info("registration settings updated", zap.String("by", updatedBy), zap.Strings("changes", changes))

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SettingsService) load(ctx context.Context) (models.RegistrationConfig, error) {
	cfg := models.RegistrationConfig{
		ActiveSemester:       s.defaults.ActiveSemester,
		RegistrationDeadline: s.defaults.Deadline,
		MaxUnits:             make(map[string]int, len(s.defaults.Levels)),
	}
	for _, level := range s.defaults.Levels {
		cfg.MaxUnits[level] = s.defaults.MaxUnits
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return cfg, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load configuration")
	}
	for _, row := range rows {
		switch {
		case row.Key == models.SettingActiveSemester:
			if sem, ok := models.ParseSemester(row.Value); ok {
				cfg.ActiveSemester = sem.Short()
			}
		case row.Key == models.SettingRegistrationDeadline:
			if _, err := time.Parse(time.DateOnly, row.Value); err == nil {
				cfg.RegistrationDeadline = row.Value
			}
		case strings.HasPrefix(row.Key, models.SettingMaxUnitsPrefix):
			level := strings.TrimPrefix(row.Key, models.SettingMaxUnitsPrefix)
			if v, err := strconv.Atoi(row.Value); err == nil && v > 0 {
				cfg.MaxUnits[level] = v
			} else {
				s.logger.Warn("ignoring invalid max units setting", zap.String("key", row.Key), zap.String("value", row.Value))
			}
		}
	}
	return cfg, nil
}
