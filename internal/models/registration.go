package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RegistrationStatus tracks a student's registration for one semester.
type RegistrationStatus string

const (
	RegistrationNotStarted RegistrationStatus = "not_started"
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationApproved   RegistrationStatus = "approved"
	RegistrationRejected   RegistrationStatus = "rejected"
)

// Locked reports whether the student may no longer submit for the semester.
func (s RegistrationStatus) Locked() bool {
	return s == RegistrationPending || s == RegistrationApproved
}

// Registration is the persisted submission of a student for one semester.
type Registration struct {
	ID          string             `db:"id" json:"id"`
	StudentID   string             `db:"student_id" json:"student_id"`
	Semester    Semester           `db:"semester" json:"semester"`
	Status      RegistrationStatus `db:"status" json:"status"`
	Courses     types.JSONText     `db:"courses" json:"courses"`
	TotalUnits  int                `db:"total_units" json:"total_units"`
	SubmittedAt *time.Time         `db:"submitted_at" json:"submitted_at,omitempty"`
	ReviewedBy  *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// CourseList decodes the stored courses column.
func (r *Registration) CourseList() ([]Course, error) {
	if r == nil || len(r.Courses) == 0 {
		return []Course{}, nil
	}
	var courses []Course
	if err := json.Unmarshal(r.Courses, &courses); err != nil {
		return nil, fmt.Errorf("decode registration courses: %w", err)
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

// SetCourses encodes courses into the JSON column.
func (r *Registration) SetCourses(courses []Course) error {
	if courses == nil {
		courses = []Course{}
	}
	raw, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("encode registration courses: %w", err)
	}
	r.Courses = types.JSONText(raw)
	return nil
}
