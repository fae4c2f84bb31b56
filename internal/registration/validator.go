// Package registration holds the course-selection rules: unit totals,
// overload checks, timetable clashes and token-driven carryover locking.
// Everything here is pure; callers own persistence.
package registration

import (
	"fmt"
	"strings"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// DefaultMaxUnits applies when no cap is configured for a level.
const DefaultMaxUnits = 24

// Selection is a student's chosen courses, unique by course code, in insertion order.
type Selection []models.Course

// Clash reports two courses sharing a timetable slot.
type Clash struct {
	Course1 string `json:"course1"`
	Course2 string `json:"course2"`
	Time    string `json:"time"`
}

// Validation summarises a selection against a unit cap.
type Validation struct {
	Overloaded bool    `json:"overloaded"`
	TotalUnits int     `json:"total_units"`
	MaxUnits   int     `json:"max_units"`
	Clashes    []Clash `json:"clashes"`
}

var dayNames = map[string]string{
	"mon": "Monday", "monday": "Monday",
	"tue": "Tuesday", "tues": "Tuesday", "tuesday": "Tuesday",
	"wed": "Wednesday", "wednesday": "Wednesday",
	"thu": "Thursday", "thur": "Thursday", "thurs": "Thursday", "thursday": "Thursday",
	"fri": "Friday", "friday": "Friday",
	"sat": "Saturday", "saturday": "Saturday",
	"sun": "Sunday", "sunday": "Sunday",
}

// ComputeTotalUnits sums units across the selection.
func ComputeTotalUnits(selection Selection) int {
	total := 0
	for _, c := range selection {
		total += c.Units
	}
	return total
}

// slot returns the timetable label of a course, or false when day or time is missing.
func slot(c models.Course) (string, bool) {
	day := strings.TrimSpace(c.Schedule.Day)
	tm := strings.Join(strings.Fields(c.Schedule.Time), " ")
	if day == "" || tm == "" {
		return "", false
	}
	if full, ok := dayNames[strings.ToLower(day)]; ok {
		day = full
	}
	return day + " " + tm, true
}

// DetectClashes returns every pair (i<j) whose day and time match.
// Courses without a day or time are incomparable and never clash.
func DetectClashes(selection Selection) []Clash {
	clashes := []Clash{}
	labels := make([]string, len(selection))
	known := make([]bool, len(selection))
	for i, c := range selection {
		labels[i], known[i] = slot(c)
	}

	for i := 0; i < len(selection); i++ {
		if !known[i] {
			continue
		}
		for j := i + 1; j < len(selection); j++ {
			if !known[j] || !strings.EqualFold(labels[i], labels[j]) {
				continue
			}
			clashes = append(clashes, Clash{
				Course1: selection[i].CourseCode,
				Course2: selection[j].CourseCode,
				Time:    labels[i],
			})
		}
	}
	return clashes
}

// ValidateSelection reports totals and clashes. Overloaded is strict: a total equal to the cap passes.
func ValidateSelection(selection Selection, maxUnits int) Validation {
	total := ComputeTotalUnits(selection)
	return Validation{
		Overloaded: total > maxUnits,
		TotalUnits: total,
		MaxUnits:   maxUnits,
		Clashes:    DetectClashes(selection),
	}
}

// Contains reports whether a course with the given code is selected.
func (s Selection) Contains(code string) bool {
	return s.index(code) >= 0
}

// Codes lists course codes in selection order.
func (s Selection) Codes() []string {
	codes := make([]string, len(s))
	for i, c := range s {
		codes[i] = c.CourseCode
	}
	return codes
}

// Find returns the selected course with the given code.
func (s Selection) Find(code string) (models.Course, bool) {
	if i := s.index(code); i >= 0 {
		return s[i], true
	}
	return models.Course{}, false
}

// Carryover returns the courses loaded from a carryover token.
func (s Selection) Carryover() []models.Course {
	out := []models.Course{}
	for _, c := range s {
		if c.IsCarryover {
			out = append(out, c)
		}
	}
	return out
}

func (s Selection) index(code string) int {
	want := models.NormalizeCode(code)
	for i, c := range s {
		if models.NormalizeCode(c.CourseCode) == want {
			return i
		}
	}
	return -1
}

// ToggleCourse removes course when present and unlocked, appends it when absent.
// Removing a carryover course fails with a CARRYOVER_LOCKED error. The input is not modified.
func ToggleCourse(selection Selection, course models.Course) (Selection, error) {
	idx := selection.index(course.CourseCode)
	if idx < 0 {
		next := make(Selection, 0, len(selection)+1)
		next = append(next, selection...)
		course.IsCarryover = false
		return append(next, course), nil
	}

	if selection[idx].IsCarryover {
		return selection, appErrors.Clone(appErrors.ErrCarryoverLocked,
			fmt.Sprintf("cannot remove carryover course %s", selection[idx].CourseCode))
	}

	next := make(Selection, 0, len(selection)-1)
	next = append(next, selection[:idx]...)
	return append(next, selection[idx+1:]...), nil
}

// ApplyToken applies a redeemed token. A carryover token replaces the selection
// with its courses marked as carryover; a late registration token leaves the
// selection alone and asks the caller to clear its lock (unlock is true).
func ApplyToken(selection Selection, result models.TokenResult) (next Selection, unlock bool, err error) {
	switch result.Type {
	case models.TokenCarryover:
		next = make(Selection, 0, len(result.Courses))
		for _, c := range result.Courses {
			if next.Contains(c.CourseCode) {
				continue
			}
			c.IsCarryover = true
			next = append(next, c)
		}
		return next, false, nil
	case models.TokenLateRegistration:
		return selection, true, nil
	default:
		return selection, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported token type %q", result.Type))
	}
}
