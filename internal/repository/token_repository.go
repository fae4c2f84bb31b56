package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const tokenColumns = `id, code, type, matric_number, courses, created_by, created_at, used, used_at, used_semester`

// TokenRepository persists admin-issued registration tokens.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a freshly generated token.
func (r *TokenRepository) Create(ctx context.Context, token *models.RegistrationToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	if len(token.Courses) == 0 {
		token.Courses = []byte("[]")
	}
	const query = `INSERT INTO registration_tokens (id, code, type, matric_number, courses, created_by, created_at, used, used_at, used_semester)
VALUES (:id, :code, :type, :matric_number, :courses, :created_by, :created_at, :used, :used_at, :used_semester)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// FindByCode returns the token with the given code.
func (r *TokenRepository) FindByCode(ctx context.Context, code string) (*models.RegistrationToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_tokens WHERE code = $1`, tokenColumns)
	var token models.RegistrationToken
	if err := r.db.GetContext(ctx, &token, query, code); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed flags the token as redeemed for a semester. It reports false if the
// token was already used, so concurrent redemptions succeed only once.
func (r *TokenRepository) MarkUsed(ctx context.Context, id string, semester models.Semester) (bool, error) {
	const query = `UPDATE registration_tokens SET used = TRUE, used_at = $2, used_semester = $3 WHERE id = $1 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), semester)
	if err != nil {
		return false, fmt.Errorf("mark token used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark token used rows: %w", err)
	}
	return affected > 0, nil
}

// HasRedeemed reports whether the student redeemed a token of type for semester.
func (r *TokenRepository) HasRedeemed(ctx context.Context, matric string, tokenType models.TokenType, semester models.Semester) (bool, error) {
	const query = `SELECT 1 FROM registration_tokens WHERE matric_number = $1 AND type = $2 AND used = TRUE AND used_semester = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, matric, tokenType, semester); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check redeemed token: %w", err)
	}
	return true, nil
}

// List returns tokens newest first, optionally scoped to a student.
func (r *TokenRepository) List(ctx context.Context, matric string, limit int) ([]models.RegistrationToken, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM registration_tokens`, tokenColumns)
	var args []interface{}
	if matric != "" {
		query += " WHERE matric_number = $1"
		args = append(args, matric)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)
	var tokens []models.RegistrationToken
	if err := r.db.SelectContext(ctx, &tokens, query, args...); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}
