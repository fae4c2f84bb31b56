package models

import (
	"strings"
	"time"
)

// CourseSchedule places a course in the weekly timetable.
type CourseSchedule struct {
	Day   string `json:"day" validate:"omitempty,max=16"`
	Time  string `json:"time" validate:"omitempty,max=32"`
	Venue string `json:"venue" validate:"omitempty,max=64"`
}

// Course is the unit of selection. JSON names follow the SPA contract.
type Course struct {
	CourseCode  string         `json:"courseCode" validate:"required,max=16"`
	CourseTitle string         `json:"courseTitle" validate:"required,max=160"`
	Units       int            `json:"units" validate:"gt=0,lte=12"`
	IsCore      bool           `json:"isCore"`
	Lecturer    string         `json:"lecturer" validate:"omitempty,max=120"`
	Schedule    CourseSchedule `json:"schedule"`
	IsCarryover bool           `json:"isCarryover,omitempty"`
}

// NormalizeCode canonicalises a course code for comparisons (e.g. "csc 201" -> "CSC201").
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// CatalogCourse is a course offered to a department/level in a semester.
type CatalogCourse struct {
	ID          string    `db:"id" json:"id"`
	Department  string    `db:"department" json:"department"`
	Level       string    `db:"level" json:"level"`
	Semester    Semester  `db:"semester" json:"semester"`
	CourseCode  string    `db:"course_code" json:"courseCode"`
	CourseTitle string    `db:"course_title" json:"courseTitle"`
	Units       int       `db:"units" json:"units"`
	IsCore      bool      `db:"is_core" json:"isCore"`
	Lecturer    string    `db:"lecturer" json:"lecturer"`
	Day         string    `db:"day" json:"day"`
	Time        string    `db:"time_slot" json:"time"`
	Venue       string    `db:"venue" json:"venue"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Course projects the catalog row onto the selection shape.
func (c CatalogCourse) Course() Course {
	return Course{
		CourseCode:  c.CourseCode,
		CourseTitle: c.CourseTitle,
		Units:       c.Units,
		IsCore:      c.IsCore,
		Lecturer:    c.Lecturer,
		Schedule:    CourseSchedule{Day: c.Day, Time: c.Time, Venue: c.Venue},
	}
}

// CatalogFilter scopes catalog lookups.
type CatalogFilter struct {
	Department string
	Level      string
	Semester   Semester
}
