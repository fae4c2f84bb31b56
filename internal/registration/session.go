package registration

import (
	"fmt"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// Session is the draft state of one student registering for one semester.
// It replaces ambient client state with an explicit value that can be stored and reloaded.
type Session struct {
	StudentID       string          `json:"student_id"`
	Level           string          `json:"level"`
	Semester        models.Semester `json:"semester"`
	MaxUnits        int             `json:"max_units"`
	Selection       Selection       `json:"selection"`
	Locked          bool            `json:"locked"`
	CarryoverLoaded bool            `json:"carryover_loaded"`
}

// NewSession builds an empty draft. A non-positive cap falls back to DefaultMaxUnits.
func NewSession(studentID, level string, semester models.Semester, maxUnits int, locked bool) *Session {
	if maxUnits <= 0 {
		maxUnits = DefaultMaxUnits
	}
	return &Session{
		StudentID: studentID,
		Level:     level,
		Semester:  semester,
		MaxUnits:  maxUnits,
		Selection: Selection{},
		Locked:    locked,
	}
}

// Toggle adds or removes a course.
func (s *Session) Toggle(course models.Course) error {
	next, err := ToggleCourse(s.Selection, course)
	if err != nil {
		return err
	}
	s.Selection = next
	return nil
}

// ApplyToken applies a redeemed token to the draft.
func (s *Session) ApplyToken(result models.TokenResult) error {
	next, unlock, err := ApplyToken(s.Selection, result)
	if err != nil {
		return err
	}
	s.Selection = next
	if result.Type == models.TokenCarryover {
		s.CarryoverLoaded = true
	}
	if unlock {
		s.Locked = false
	}
	return nil
}

// Validate evaluates the current selection against the session cap.
func (s *Session) Validate() Validation {
	return ValidateSelection(s.Selection, s.MaxUnits)
}

// CheckSubmittable returns the first reason the draft cannot be submitted.
func (s *Session) CheckSubmittable() error {
	if len(s.Selection) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "please select at least one course")
	}
	if s.Locked {
		return appErrors.Clone(appErrors.ErrRegistrationClosed, "registration deadline has passed; a late registration token is required")
	}

	v := s.Validate()
	if v.Overloaded {
		return appErrors.Clone(appErrors.ErrOverload,
			fmt.Sprintf("total units (%d) exceed maximum allowed (%d)", v.TotalUnits, v.MaxUnits))
	}
	if len(v.Clashes) > 0 {
		first := v.Clashes[0]
		return appErrors.Clone(appErrors.ErrClash,
			fmt.Sprintf("timetable clash detected: %s and %s at %s", first.Course1, first.Course2, first.Time))
	}
	return nil
}
