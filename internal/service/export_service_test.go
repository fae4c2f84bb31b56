package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *fakeRegistrationStore) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	sigStore, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	student := models.Student{ID: "stu-1", MatricNumber: "csc/2025/001", FullName: "Ada Obi", Department: "Computer Science", Level: "200", Email: "ada@uni.edu"}
	students := newFakeStudentStore(student)
	regs := newFakeRegistrationStore()
	signatures, _, _, _ := newSignatureForTest()
	_, err = signatures.Save(context.Background(), models.Actor{}, models.SignatureHOD, "Prof. Eze", nil)
	require.NoError(t, err)

	svc := NewExportService(ExportDeps{
		Students:      students,
		Registrations: regs,
		Signatures:    signatures,
		Profiles:      NewStudentService(students, regs, &recordingAudit{}, nil, nil),
		Images:        sigStore,
		Storage:       store,
		Signer:        storage.NewSignedURLSigner("secret", time.Hour),
		Audit:         &recordingAudit{},
		Config:        ExportConfig{APIPrefix: "/api", Institution: "Test University", Session: "2025/2026"},
	})
	return svc, regs
}

func TestExportCourseFormSignedDownload(t *testing.T) {
	svc, regs := newExportServiceForTest(t)
	regs.put("stu-1", models.SemesterFirst, models.RegistrationApproved, []models.Course{
		course("CSC201", 3, "Monday", "9-11"),
		course("MTH201", 4, "Tuesday", "8-10"),
	})
	owner := models.Actor{UserID: "stu-1", MatricNumber: "csc/2025/001", Role: models.RoleStudent}

	result, err := svc.CourseForm(context.Background(), owner, models.SemesterFirst)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/downloads/"))
	assert.True(t, strings.HasPrefix(result.RelativePath, "course_form_csc_2025_001_first_"))

	relPath, err := svc.Resolve(result.Token, owner)
	require.NoError(t, err)
	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))

	_, err = svc.Resolve(result.Token, models.Actor{UserID: "stu-2", Role: models.RoleStudent})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	_, err = svc.Resolve(result.Token, models.Actor{UserID: "adm-1", Role: models.RoleAdmin})
	assert.NoError(t, err)
	_, err = svc.Resolve(result.Token+"x", owner)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestExportCourseFormRequiresRegistration(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	_, err := svc.CourseForm(context.Background(), models.Actor{UserID: "stu-1"}, models.SemesterSecond)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestExportStudentsCSV(t *testing.T) {
	svc, regs := newExportServiceForTest(t)
	regs.put("stu-1", models.SemesterFirst, models.RegistrationPending, []models.Course{course("CSC201", 3, "Monday", "9-11")})

	data, err := svc.StudentsCSV(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Matric Number,Full Name,Department,Level,Email,Phone,First Semester Status,First Semester Units,Second Semester Status,Second Semester Units", lines[0])
	assert.Equal(t, "csc/2025/001,Ada Obi,Computer Science,200,ada@uni.edu,,pending,3,not_started,0", lines[1])
}
