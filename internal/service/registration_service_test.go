package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type registrationFixture struct {
	svc     *RegistrationService
	regs    *fakeRegistrationStore
	drafts  *fakeDraftStore
	tokens  *fakeTokenStore
	audit   *recordingAudit
	metrics *MetricsService
	actor   models.Actor
}

func newRegistrationFixture(t *testing.T, cfg models.RegistrationConfig, tokens ...models.RegistrationToken) *registrationFixture {
	t.Helper()
	student := models.Student{ID: "stu-1", MatricNumber: "csc/2025/001", FullName: "Ada Obi", Department: "Computer Science", Level: "200"}
	f := &registrationFixture{
		regs:    newFakeRegistrationStore(),
		drafts:  newFakeDraftStore(),
		tokens:  newFakeTokenStore(tokens...),
		audit:   &recordingAudit{},
		metrics: NewMetricsService(),
		actor:   models.Actor{UserID: student.ID, MatricNumber: student.MatricNumber, Role: models.RoleStudent},
	}
	f.svc = NewRegistrationService(RegistrationDeps{
		Students:      newFakeStudentStore(student),
		Registrations: f.regs,
		Drafts:        f.drafts,
		Tokens:        f.tokens,
		Catalog: fakeCatalog{courses: []models.Course{
			course("CSC201", 3, "Monday", "9-11"),
			course("CSC203", 3, "Monday", "9-11"),
			course("MTH201", 4, "Tuesday", "8-10"),
			course("GST201", 2, "Friday", "12-2"),
			course("BIG301", 12, "Wednesday", "8-10"),
			course("BIG302", 12, "Thursday", "8-10"),
		}},
		Settings: fakeSettings{cfg: cfg},
		Metrics:  f.metrics,
		Audit:    f.audit,
	})
	f.svc.now = func() time.Time { return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func openConfig() models.RegistrationConfig {
	return models.RegistrationConfig{
		ActiveSemester:       "first",
		RegistrationDeadline: "2025-12-31",
		MaxUnits:             map[string]int{"200": 24},
	}
}

func carryoverToken(code string, courses ...models.Course) models.RegistrationToken {
	tok := models.RegistrationToken{ID: "id-" + code, Code: code, Type: models.TokenCarryover, MatricNumber: "csc/2025/001"}
	reg := models.Registration{}
	_ = reg.SetCourses(courses)
	tok.Courses = reg.Courses
	return tok
}

func TestRegistrationDraftStartsEmpty(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	draft, err := f.svc.Draft(context.Background(), f.actor, models.SemesterFirst)
	require.NoError(t, err)
	assert.Empty(t, draft.Courses)
	assert.Equal(t, models.RegistrationNotStarted, draft.Status)
	assert.False(t, draft.Locked)
	assert.Equal(t, 24, draft.Validation.MaxUnits)
	assert.Equal(t, models.SemesterFirst, draft.ActiveSemester)
}

func TestRegistrationToggleAddsAndRemoves(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	ctx := context.Background()

	draft, err := f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "csc201"})
	require.NoError(t, err)
	require.Len(t, draft.Courses, 1)
	assert.Equal(t, 3, draft.Validation.TotalUnits)

	draft, err = f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "CSC201"})
	require.NoError(t, err)
	assert.Empty(t, draft.Courses)
}

func TestRegistrationToggleUnknownCourse(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	_, err := f.svc.Toggle(context.Background(), f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "XYZ999"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRegistrationToggleReportsClash(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	ctx := context.Background()
	_, err := f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "CSC201"})
	require.NoError(t, err)
	draft, err := f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "CSC203"})
	require.NoError(t, err)
	require.Len(t, draft.Validation.Clashes, 1)
	assert.Equal(t, "Monday 9-11", draft.Validation.Clashes[0].Time)
}

func TestRegistrationCarryoverTokenLocksCourses(t *testing.T) {
	f := newRegistrationFixture(t, openConfig(), carryoverToken("carry-1", course("CSC101", 3, "Thursday", "10-12")))
	ctx := context.Background()

	resp, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-1"})
	require.NoError(t, err)
	assert.True(t, resp.TokenUsed)
	assert.Equal(t, models.TokenCarryover, resp.Type)
	require.Len(t, resp.Draft.Courses, 1)
	assert.True(t, resp.Draft.Courses[0].IsCarryover)
	assert.True(t, resp.Draft.CarryoverLoaded)

	_, err = f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "CSC101"})
	assert.True(t, errors.Is(err, appErrors.ErrCarryoverLocked))

	_, err = f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-1"})
	assert.True(t, errors.Is(err, appErrors.ErrTokenUsed))
	assert.Contains(t, f.audit.actions(), models.AuditActionTokenUsed)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().TokensRedeemed)
}

func TestRegistrationRedeemTokenErrors(t *testing.T) {
	other := carryoverToken("other", course("CSC101", 3, "Thursday", "10-12"))
	other.MatricNumber = "csc/2025/999"
	f := newRegistrationFixture(t, openConfig(), other)
	ctx := context.Background()

	_, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "missing"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidToken))

	_, err = f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "other"})
	assert.True(t, errors.Is(err, appErrors.ErrTokenForbidden))

	_, err = f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: ""})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRegistrationDeadlineLocksUntilLateToken(t *testing.T) {
	cfg := openConfig()
	cfg.RegistrationDeadline = "2025-09-01"
	late := models.RegistrationToken{ID: "id-late", Code: "late-1", Type: models.TokenLateRegistration, MatricNumber: "csc/2025/001"}
	f := newRegistrationFixture(t, cfg, late)
	ctx := context.Background()

	_, err := f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "MTH201"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{Semester: "first_semester"})
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))

	resp, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "late-1"})
	require.NoError(t, err)
	assert.False(t, resp.Draft.Locked)
	assert.Len(t, resp.Draft.Courses, 1)

	out, err := f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{Semester: "first_semester"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, out.Status)
}

func TestRegistrationSubmitStoresPendingAndClearsDraft(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	ctx := context.Background()
	for _, code := range []string{"CSC201", "MTH201"} {
		_, err := f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: code})
		require.NoError(t, err)
	}

	out, err := f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{Semester: "first"})
	require.NoError(t, err)
	assert.Equal(t, 7, out.TotalUnits)
	assert.Equal(t, models.RegistrationPending, out.Status)

	stored, err := f.regs.Get(ctx, "stu-1", models.SemesterFirst)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, stored.Status)
	assert.Empty(t, f.drafts.sessions)
	assert.Contains(t, f.audit.actions(), models.AuditActionRegisterCourses)

	_, err = f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{Semester: "first"})
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyRegistered))

	_, err = f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "GST201"})
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyRegistered))
}

func TestRegistrationSubmitRejectsInactiveSemester(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	_, err := f.svc.Submit(context.Background(), f.actor, dto.SubmitRegistrationRequest{
		Semester: "second_semester",
		Courses:  []models.Course{course("GST201", 2, "Friday", "12-2")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))
	assert.Equal(t, "Registration closed for Second Semester. Only First Semester is active.", appErrors.FromError(err).Message)
}

func TestRegistrationSubmitChecks(t *testing.T) {
	cases := []struct {
		name    string
		courses []models.Course
		want    *appErrors.Error
		message string
	}{
		{name: "empty", courses: []models.Course{}, want: appErrors.ErrValidation, message: "please select at least one course"},
		{
			name:    "overload",
			courses: []models.Course{course("BIG301", 12, "Wednesday", "8-10"), course("BIG302", 12, "Thursday", "8-10"), course("MTH201", 4, "Tuesday", "8-10")},
			want:    appErrors.ErrOverload,
			message: "total units (28) exceed maximum allowed (24)",
		},
		{
			name:    "clash",
			courses: []models.Course{course("CSC201", 3, "Monday", "9-11"), course("CSC203", 3, "Mon", "9-11")},
			want:    appErrors.ErrClash,
			message: "timetable clash detected: CSC201 and CSC203 at Monday 9-11",
		},
		{
			name:    "duplicate",
			courses: []models.Course{course("CSC201", 3, "Monday", "9-11"), course("csc201", 3, "Monday", "9-11")},
			want:    appErrors.ErrValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRegistrationFixture(t, openConfig())
			_, err := f.svc.Submit(context.Background(), f.actor, dto.SubmitRegistrationRequest{Semester: "first", Courses: tc.courses})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
			if tc.message != "" {
				assert.Equal(t, tc.message, appErrors.FromError(err).Message)
			}
		})
	}
}

func TestRegistrationSubmitKeepsCarryoverCourses(t *testing.T) {
	f := newRegistrationFixture(t, openConfig(), carryoverToken("carry-2", course("CSC101", 3, "Thursday", "10-12")))
	ctx := context.Background()
	_, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-2"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses:  []models.Course{course("MTH201", 4, "Tuesday", "8-10")},
	})
	assert.True(t, errors.Is(err, appErrors.ErrCarryoverLocked))

	out, err := f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses:  []models.Course{course("CSC101", 3, "Thursday", "10-12"), course("MTH201", 4, "Tuesday", "8-10")},
	})
	require.NoError(t, err)
	require.Len(t, out.Courses, 2)
	assert.True(t, out.Courses[0].IsCarryover)
	assert.False(t, out.Courses[1].IsCarryover)
}

func TestRegistrationRejectedCanResubmit(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	f.regs.put("stu-1", models.SemesterFirst, models.RegistrationRejected, []models.Course{course("GST201", 2, "Friday", "12-2")})

	draft, err := f.svc.Draft(context.Background(), f.actor, models.SemesterFirst)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, draft.Status)
	require.Len(t, draft.Courses, 1)

	_, err = f.svc.Submit(context.Background(), f.actor, dto.SubmitRegistrationRequest{Semester: "first"})
	require.NoError(t, err)
}

func TestRegistrationValidateUsesLevelCap(t *testing.T) {
	cfg := openConfig()
	cfg.MaxUnits["200"] = 5
	f := newRegistrationFixture(t, cfg)
	result, err := f.svc.Validate(context.Background(), f.actor, dto.ValidateSelectionRequest{
		Courses: []models.Course{course("MTH201", 4, "Tuesday", "8-10"), course("GST201", 2, "Friday", "12-2")},
	})
	require.NoError(t, err)
	assert.True(t, result.Overloaded)
	assert.Equal(t, 6, result.TotalUnits)
	assert.Equal(t, 5, result.MaxUnits)
}

func TestRegistrationRegisteredDefaultsToNotStarted(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	resp, err := f.svc.Registered(context.Background(), f.actor, models.SemesterSecond)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationNotStarted, resp.Status)
	assert.Empty(t, resp.Courses)
	assert.Equal(t, "csc/2025/001", resp.Student.MatricNumber)
}

func TestRegistrationSubmitTakesCarryoverFlagFromDraft(t *testing.T) {
	f := newRegistrationFixture(t, openConfig(), carryoverToken("carry-3", course("CSC101", 3, "Thursday", "10-12")))
	ctx := context.Background()
	_, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-3"})
	require.NoError(t, err)

	spoofed := course("MTH201", 4, "Tuesday", "8-10")
	spoofed.IsCarryover = true
	out, err := f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses:  []models.Course{course("CSC101", 3, "Thursday", "10-12"), spoofed},
	})
	require.NoError(t, err)
	require.Len(t, out.Courses, 2)
	assert.True(t, out.Courses[0].IsCarryover)
	assert.False(t, out.Courses[1].IsCarryover)
}

func TestRegistrationSubmitUsesCatalogCourseData(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses: []models.Course{
			course("BIG301", 1, "Wednesday", "8-10"),
			course("BIG302", 1, "Thursday", "8-10"),
			course("MTH201", 1, "Tuesday", "8-10"),
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOverload))
	assert.Equal(t, "total units (28) exceed maximum allowed (24)", appErrors.FromError(err).Message)

	_, err = f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses:  []models.Course{course("CSC201", 3, "Monday", "9-11"), course("CSC203", 3, "Friday", "4-6")},
	})
	assert.True(t, errors.Is(err, appErrors.ErrClash))

	out, err := f.svc.Submit(ctx, f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses:  []models.Course{course("BIG301", 1, "Saturday", "7-8"), course("MTH201", 1, "Tuesday", "8-10")},
	})
	require.NoError(t, err)
	assert.Equal(t, 16, out.TotalUnits)
	require.Len(t, out.Courses, 2)
	assert.Equal(t, 12, out.Courses[0].Units)
	assert.Equal(t, "Wednesday", out.Courses[0].Schedule.Day)
}

func TestRegistrationSubmitRejectsUnknownCourse(t *testing.T) {
	f := newRegistrationFixture(t, openConfig())
	_, err := f.svc.Submit(context.Background(), f.actor, dto.SubmitRegistrationRequest{
		Semester: "first",
		Courses:  []models.Course{course("MTH201", 4, "Tuesday", "8-10"), course("FAKE999", 1, "Friday", "8-9")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = f.regs.Get(context.Background(), "stu-1", models.SemesterFirst)
	assert.Error(t, err)
}

func TestRegistrationRedeemKeepsTokenWhenDraftSaveFails(t *testing.T) {
	f := newRegistrationFixture(t, openConfig(), carryoverToken("carry-4", course("CSC101", 3, "Thursday", "10-12")))
	ctx := context.Background()

	f.drafts.saveErr = errors.New("redis down")
	_, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.False(t, f.tokens.tokens["carry-4"].Used)
	assert.Equal(t, uint64(0), f.metrics.Snapshot().TokensRedeemed)

	f.drafts.saveErr = nil
	resp, err := f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-4"})
	require.NoError(t, err)
	require.Len(t, resp.Draft.Courses, 1)
	assert.True(t, f.tokens.tokens["carry-4"].Used)
}

type spentTokenStore struct {
	*fakeTokenStore
}

func (spentTokenStore) MarkUsed(context.Context, string, models.Semester) (bool, error) {
	return false, nil
}

func TestRegistrationRedeemRestoresDraftWhenTokenAlreadySpent(t *testing.T) {
	f := newRegistrationFixture(t, openConfig(), carryoverToken("carry-5", course("CSC101", 3, "Thursday", "10-12")))
	f.svc.tokens = spentTokenStore{f.tokens}
	ctx := context.Background()

	_, err := f.svc.Toggle(ctx, f.actor, models.SemesterFirst, dto.ToggleCourseRequest{CourseCode: "MTH201"})
	require.NoError(t, err)

	_, err = f.svc.RedeemToken(ctx, f.actor, dto.RedeemTokenRequest{Token: "carry-5"})
	assert.True(t, errors.Is(err, appErrors.ErrTokenUsed))

	draft, err := f.svc.Draft(ctx, f.actor, models.SemesterFirst)
	require.NoError(t, err)
	require.Len(t, draft.Courses, 1)
	assert.Equal(t, "MTH201", draft.Courses[0].CourseCode)
	assert.False(t, draft.CarryoverLoaded)
}
