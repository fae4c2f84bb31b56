package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
)

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(department) = $1 AND level = $2 AND semester = $3")).
		WithArgs("csc", "200", models.SemesterFirst).
		WillReturnRows(sqlmock.NewRows([]string{"id", "department", "level", "semester", "course_code", "course_title", "units", "is_core", "lecturer", "day", "time_slot", "venue", "created_at", "updated_at"}).
			AddRow("c1", "CSC", "200", "first_semester", "CSC201", "Data Structures", 3, true, "Dr. A", "Mon", "9-10", "LT1", time.Now(), time.Now()))

	courses, err := repo.List(context.Background(), models.CatalogFilter{Department: "CSC", Level: "200", Semester: models.SemesterFirst})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	course := courses[0].Course()
	assert.Equal(t, models.CourseSchedule{Day: "Mon", Time: "9-10", Venue: "LT1"}, course.Schedule)
	assert.False(t, course.IsCarryover)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteNormalizesCode(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM courses").
		WithArgs("csc", "200", models.SemesterSecond, "CSC202").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(context.Background(), models.CatalogFilter{Department: "CSC", Level: "200", Semester: models.SemesterSecond}, "csc 202")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
