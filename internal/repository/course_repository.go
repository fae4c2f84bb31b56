package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const courseColumns = `id, department, level, semester, course_code, course_title, units, is_core, lecturer, day, time_slot, venue, created_at, updated_at`

// CourseRepository persists the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns catalog courses for a department, level and semester.
func (r *CourseRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.CatalogCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses
WHERE LOWER(department) = $1 AND level = $2 AND semester = $3
ORDER BY is_core DESC, course_code ASC`, courseColumns)
	var courses []models.CatalogCourse
	if err := r.db.SelectContext(ctx, &courses, query, strings.ToLower(filter.Department), filter.Level, filter.Semester); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Upsert inserts or updates a catalog course keyed by scope and code.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.CatalogCourse) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, department, level, semester, course_code, course_title, units, is_core, lecturer, day, time_slot, venue, created_at, updated_at)
VALUES (:id, :department, :level, :semester, :course_code, :course_title, :units, :is_core, :lecturer, :day, :time_slot, :venue, :created_at, :updated_at)
ON CONFLICT (department, level, semester, course_code)
DO UPDATE SET course_title = EXCLUDED.course_title, units = EXCLUDED.units, is_core = EXCLUDED.is_core,
              lecturer = EXCLUDED.lecturer, day = EXCLUDED.day, time_slot = EXCLUDED.time_slot,
              venue = EXCLUDED.venue, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

// Delete removes a catalog course and reports whether a row existed.
func (r *CourseRepository) Delete(ctx context.Context, filter models.CatalogFilter, code string) (bool, error) {
	const query = `DELETE FROM courses WHERE LOWER(department) = $1 AND level = $2 AND semester = $3 AND UPPER(REPLACE(course_code, ' ', '')) = $4`
	res, err := r.db.ExecContext(ctx, query, strings.ToLower(filter.Department), filter.Level, filter.Semester, models.NormalizeCode(code))
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows: %w", err)
	}
	return affected > 0, nil
}
