package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TokenType distinguishes what redeeming a registration token does.
type TokenType string

const (
	TokenCarryover        TokenType = "carryover"
	TokenLateRegistration TokenType = "late_registration"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenCarryover || t == TokenLateRegistration
}

// RegistrationToken is a single-use code issued by an admin to one student.
type RegistrationToken struct {
	ID           string         `db:"id" json:"id"`
	Code         string         `db:"code" json:"code"`
	Type         TokenType      `db:"type" json:"type"`
	MatricNumber string         `db:"matric_number" json:"matric_number"`
	Courses      types.JSONText `db:"courses" json:"courses"`
	CreatedBy    string         `db:"created_by" json:"created_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	Used         bool           `db:"used" json:"used"`
	UsedAt       *time.Time     `db:"used_at" json:"used_at,omitempty"`
	UsedSemester *Semester      `db:"used_semester" json:"used_semester,omitempty"`
}

// CourseList decodes the carryover courses attached to the token.
func (t *RegistrationToken) CourseList() ([]Course, error) {
	if t == nil || len(t.Courses) == 0 {
		return []Course{}, nil
	}
	var courses []Course
	if err := json.Unmarshal(t.Courses, &courses); err != nil {
		return nil, fmt.Errorf("decode token courses: %w", err)
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

// TokenResult is what a redeemed token hands to the registration session.
type TokenResult struct {
	Type    TokenType `json:"type"`
	Courses []Course  `json:"courses"`
}
