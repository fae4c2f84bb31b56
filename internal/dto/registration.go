package dto

import "github.com/noah-isme/course-registration-api/internal/models"

// ToggleCourseRequest adds or removes one catalog course from the draft.
type ToggleCourseRequest struct {
	CourseCode string `json:"course_code" validate:"required,max=16"`
}

// ValidateSelectionRequest checks a client-held selection without storing it.
type ValidateSelectionRequest struct {
	Semester string          `json:"semester"`
	Courses  []models.Course `json:"courses" validate:"dive"`
}

// RedeemTokenRequest carries an admin-issued token code.
type RedeemTokenRequest struct {
	Token    string `json:"token" validate:"required,max=128"`
	Semester string `json:"semester"`
}

// SubmitRegistrationRequest submits the selection for approval. When Courses is
// omitted the stored draft is submitted.
type SubmitRegistrationRequest struct {
	Semester string          `json:"semester" validate:"required"`
	Courses  []models.Course `json:"courses" validate:"omitempty,dive"`
}

// SubmitRegistrationResponse confirms a submission.
type SubmitRegistrationResponse struct {
	Semester   models.Semester           `json:"semester"`
	Status     models.RegistrationStatus `json:"status"`
	TotalUnits int                       `json:"total_units"`
	Courses    []models.Course           `json:"courses"`
}

// RegisteredCoursesResponse feeds the course form page.
type RegisteredCoursesResponse struct {
	Courses []models.Course           `json:"courses"`
	Status  models.RegistrationStatus `json:"status"`
	Student models.UserInfo           `json:"student"`
}
