package models

import "strings"

// Semester identifies a registration period as stored on registrations.
type Semester string

const (
	SemesterFirst  Semester = "first_semester"
	SemesterSecond Semester = "second_semester"
)

// ParseSemester accepts "first", "second" or the stored *_semester forms.
func ParseSemester(raw string) (Semester, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "first", "first_semester":
		return SemesterFirst, true
	case "second", "second_semester":
		return SemesterSecond, true
	}
	return "", false
}

// Short returns the settings form ("first"/"second").
func (s Semester) Short() string {
	return strings.TrimSuffix(string(s), "_semester")
}

// Label returns the human form used in messages ("First").
func (s Semester) Label() string {
	if s == SemesterSecond {
		return "Second"
	}
	return "First"
}

// AllSemesters lists semesters in calendar order.
func AllSemesters() []Semester {
	return []Semester{SemesterFirst, SemesterSecond}
}
