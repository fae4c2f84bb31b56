package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
)

// ErrDraftNotFound is returned when no draft is stored for the key.
var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository keeps in-progress registration sessions in Redis.
type DraftRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewDraftRepository constructs the repository.
func NewDraftRepository(client redis.UniversalClient, ttl time.Duration) *DraftRepository {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &DraftRepository{client: client, ttl: ttl}
}

func draftKey(studentID string, semester models.Semester) string {
	return fmt.Sprintf("registration:draft:%s:%s", studentID, semester)
}

// Load returns the stored session or ErrDraftNotFound.
func (r *DraftRepository) Load(ctx context.Context, studentID string, semester models.Semester) (*registration.Session, error) {
	raw, err := r.client.Get(ctx, draftKey(studentID, semester)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var session registration.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if session.Selection == nil {
		session.Selection = registration.Selection{}
	}
	return &session, nil
}

// Save stores the session and refreshes its TTL.
func (r *DraftRepository) Save(ctx context.Context, session *registration.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(session.StudentID, session.Semester), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete discards the draft.
func (r *DraftRepository) Delete(ctx context.Context, studentID string, semester models.Semester) error {
	if err := r.client.Del(ctx, draftKey(studentID, semester)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
