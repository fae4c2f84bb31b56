package models

import "time"

// SignatureRole names an officer who signs course forms.
type SignatureRole string

const (
	SignatureCourseAdvisor SignatureRole = "course_advisor"
	SignatureHOD           SignatureRole = "hod"
	SignatureDean          SignatureRole = "dean"
	SignatureRegistrar     SignatureRole = "registrar"
)

// SignatureRoles lists roles in the order they appear on the form.
func SignatureRoles() []SignatureRole {
	return []SignatureRole{SignatureCourseAdvisor, SignatureHOD, SignatureDean, SignatureRegistrar}
}

// Title is the label printed under a signature block.
func (r SignatureRole) Title() string {
	switch r {
	case SignatureCourseAdvisor:
		return "Course Advisor"
	case SignatureHOD:
		return "Head of Department"
	case SignatureDean:
		return "Dean"
	case SignatureRegistrar:
		return "Registrar"
	}
	return string(r)
}

// Valid reports whether r is a known role.
func (r SignatureRole) Valid() bool {
	for _, known := range SignatureRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// Signature is an officer's name and optional signature image.
type Signature struct {
	Role      SignatureRole `db:"role" json:"role"`
	Name      string        `db:"name" json:"name"`
	Signature *string       `db:"file_path" json:"signature,omitempty"`
	UpdatedBy string        `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
