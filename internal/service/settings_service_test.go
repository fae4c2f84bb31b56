package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type stubSettingsRepo struct {
	rows    []models.Setting
	written [][]models.Setting
	lists   int
}

func (r *stubSettingsRepo) List(context.Context) ([]models.Setting, error) {
	r.lists++
	return append([]models.Setting(nil), r.rows...), nil
}

func (r *stubSettingsRepo) BulkUpsert(_ context.Context, settings []models.Setting) error {
	r.written = append(r.written, settings)
	for _, s := range settings {
		replaced := false
		for i := range r.rows {
			if r.rows[i].Key == s.Key {
				r.rows[i] = s
				replaced = true
			}
		}
		if !replaced {
			r.rows = append(r.rows, s)
		}
	}
	return nil
}

func newSettingsForTest(repo *stubSettingsRepo, cache *CacheService, audit *recordingAudit) *SettingsService {
	return NewSettingsService(repo, cache, audit, nil, nil, SettingsDefaults{
		ActiveSemester: "first",
		Deadline:       "2025-12-31",
		MaxUnits:       24,
		Levels:         []string{"100", "200"},
	})
}

func TestSettingsGetUsesDefaults(t *testing.T) {
	svc := newSettingsForTest(&stubSettingsRepo{}, nil, &recordingAudit{})
	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.ActiveSemester)
	assert.Equal(t, "2025-12-31", cfg.RegistrationDeadline)
	assert.Equal(t, map[string]int{"100": 24, "200": 24}, cfg.MaxUnits)

	limit, err := svc.MaxUnitsFor(context.Background(), "700")
	require.NoError(t, err)
	assert.Equal(t, 24, limit)
}

func TestSettingsStoredRowsOverrideDefaults(t *testing.T) {
	repo := &stubSettingsRepo{rows: []models.Setting{
		{Key: models.SettingActiveSemester, Value: "second_semester"},
		{Key: models.SettingMaxUnitsPrefix + "200", Value: "30"},
		{Key: models.SettingMaxUnitsPrefix + "300", Value: "oops"},
		{Key: models.SettingRegistrationDeadline, Value: "not-a-date"},
	}}
	svc := newSettingsForTest(repo, nil, &recordingAudit{})
	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.ActiveSemester)
	assert.Equal(t, 30, cfg.MaxUnits["200"])
	assert.NotContains(t, cfg.MaxUnits, "300")
	assert.Equal(t, "2025-12-31", cfg.RegistrationDeadline)
}

func TestSettingsUpdateMergesAndInvalidates(t *testing.T) {
	repo := &stubSettingsRepo{}
	mem := newMemCache()
	cache := NewCacheService(mem, nil, 0, nil, true)
	audit := &recordingAudit{}
	svc := newSettingsForTest(repo, cache, audit)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)

	sem := "second"
	deadline := "2026-01-15"
	cfg, err := svc.Update(ctx, models.Actor{MatricNumber: "admin/1"}, dto.UpdateConfigRequest{
		ActiveSemester:       &sem,
		RegistrationDeadline: &deadline,
		MaxUnits:             map[string]int{"200": 28},
	})
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.ActiveSemester)
	assert.Equal(t, "2026-01-15", cfg.RegistrationDeadline)
	assert.Equal(t, 28, cfg.MaxUnits["200"])
	assert.Equal(t, 24, cfg.MaxUnits["100"])
	assert.Contains(t, mem.deleted, cacheKeySettings)
	assert.Equal(t, []string{models.AuditActionConfigUpdate}, audit.actions())
}

func TestSettingsUpdateValidation(t *testing.T) {
	svc := newSettingsForTest(&stubSettingsRepo{}, nil, &recordingAudit{})
	ctx := context.Background()

	bad := "third"
	_, err := svc.Update(ctx, models.Actor{}, dto.UpdateConfigRequest{ActiveSemester: &bad})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	badDate := "31/12/2025"
	_, err = svc.Update(ctx, models.Actor{}, dto.UpdateConfigRequest{RegistrationDeadline: &badDate})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(ctx, models.Actor{}, dto.UpdateConfigRequest{MaxUnits: map[string]int{"200": 0}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(ctx, models.Actor{}, dto.UpdateConfigRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
