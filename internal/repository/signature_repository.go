package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// SignatureRepository stores officer signatures for course forms.
type SignatureRepository struct {
	db *sqlx.DB
}

// NewSignatureRepository constructs the repository.
func NewSignatureRepository(db *sqlx.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// List returns all signatures.
func (r *SignatureRepository) List(ctx context.Context) ([]models.Signature, error) {
	const query = `SELECT role, name, file_path, updated_by, updated_at FROM signatures ORDER BY role`
	var sigs []models.Signature
	if err := r.db.SelectContext(ctx, &sigs, query); err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	return sigs, nil
}

// Get returns the signature for a role.
func (r *SignatureRepository) Get(ctx context.Context, role models.SignatureRole) (*models.Signature, error) {
	const query = `SELECT role, name, file_path, updated_by, updated_at FROM signatures WHERE role = $1`
	var sig models.Signature
	if err := r.db.GetContext(ctx, &sig, query, role); err != nil {
		return nil, err
	}
	return &sig, nil
}

// Upsert saves the signature for its role.
func (r *SignatureRepository) Upsert(ctx context.Context, sig *models.Signature) error {
	sig.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO signatures (role, name, file_path, updated_by, updated_at)
VALUES (:role, :name, :file_path, :updated_by, :updated_at)
ON CONFLICT (role)
DO UPDATE SET name = EXCLUDED.name, file_path = EXCLUDED.file_path,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sig); err != nil {
		return fmt.Errorf("upsert signature: %w", err)
	}
	return nil
}

// Delete removes the signature for a role and reports whether it existed.
func (r *SignatureRepository) Delete(ctx context.Context, role models.SignatureRole) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM signatures WHERE role = $1`, role)
	if err != nil {
		return false, fmt.Errorf("delete signature: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete signature rows: %w", err)
	}
	return affected > 0, nil
}
