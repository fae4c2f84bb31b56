package models

import "time"

// Student represents a learner who registers courses.
type Student struct {
	ID           string    `db:"id" json:"id"`
	MatricNumber string    `db:"matric_number" json:"matric_number"`
	FullName     string    `db:"full_name" json:"full_name"`
	Department   string    `db:"department" json:"department"`
	Level        string    `db:"level" json:"level"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Photo        *string   `db:"photo" json:"photo,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Department string
	Level      string
	Status     RegistrationStatus
	Search     string
	Page       int
	PageSize   int
}

// StudentProfile is a student with registrations keyed by semester.
type StudentProfile struct {
	Student
	RegisteredCourses  map[Semester][]Course           `json:"registered_courses"`
	RegistrationStatus map[Semester]RegistrationStatus `json:"registration_status"`
}
