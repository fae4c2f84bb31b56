package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const registrationColumns = `id, student_id, semester, status, courses, total_units, submitted_at, reviewed_by, reviewed_at, updated_at`

// RegistrationRepository stores per-semester course registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Get returns the registration of a student for a semester.
func (r *RegistrationRepository) Get(ctx context.Context, studentID string, semester models.Semester) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE student_id = $1 AND semester = $2`, registrationColumns)
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, studentID, semester); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListByStudents returns registrations for the given students.
func (r *RegistrationRepository) ListByStudents(ctx context.Context, studentIDs []string) ([]models.Registration, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM registrations WHERE student_id IN (?) ORDER BY student_id, semester`, registrationColumns), studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build registrations query: %w", err)
	}
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// Submit stores a pending registration unless one is already pending or approved.
// It reports false when the existing row blocked the write.
func (r *RegistrationRepository) Submit(ctx context.Context, reg *models.Registration) (bool, error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.Status = models.RegistrationPending
	reg.SubmittedAt = &now
	reg.ReviewedBy = nil
	reg.ReviewedAt = nil
	reg.UpdatedAt = now
	const query = `INSERT INTO registrations (id, student_id, semester, status, courses, total_units, submitted_at, reviewed_by, reviewed_at, updated_at)
VALUES (:id, :student_id, :semester, :status, :courses, :total_units, :submitted_at, :reviewed_by, :reviewed_at, :updated_at)
ON CONFLICT (student_id, semester)
DO UPDATE SET status = EXCLUDED.status, courses = EXCLUDED.courses, total_units = EXCLUDED.total_units,
              submitted_at = EXCLUDED.submitted_at, reviewed_by = NULL, reviewed_at = NULL, updated_at = EXCLUDED.updated_at
WHERE registrations.status NOT IN ('pending', 'approved')`
	res, err := r.db.NamedExecContext(ctx, query, reg)
	if err != nil {
		return false, fmt.Errorf("submit registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("submit registration rows: %w", err)
	}
	return affected > 0, nil
}

// SetStatus records an admin decision. It reports false when no registration exists.
func (r *RegistrationRepository) SetStatus(ctx context.Context, studentID string, semester models.Semester, status models.RegistrationStatus, reviewer string) (bool, error) {
	now := time.Now().UTC()
	const query = `UPDATE registrations SET status = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5 WHERE student_id = $1 AND semester = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, semester, status, reviewer, now)
	if err != nil {
		return false, fmt.Errorf("set registration status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set registration status rows: %w", err)
	}
	return affected > 0, nil
}

// Reset clears courses and returns the registration to not_started.
func (r *RegistrationRepository) Reset(ctx context.Context, studentID string, semester models.Semester, reviewer string) error {
	now := time.Now().UTC()
	const query = `UPDATE registrations SET status = $3, courses = '[]', total_units = 0, submitted_at = NULL,
reviewed_by = $4, reviewed_at = $5, updated_at = $5 WHERE student_id = $1 AND semester = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, semester, models.RegistrationNotStarted, reviewer, now); err != nil {
		return fmt.Errorf("reset registration: %w", err)
	}
	return nil
}

// CountStudentsWithStatus counts distinct students having any registration in status.
func (r *RegistrationRepository) CountStudentsWithStatus(ctx context.Context, status models.RegistrationStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(DISTINCT student_id) FROM registrations WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return total, nil
}
