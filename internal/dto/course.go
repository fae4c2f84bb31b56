package dto

import "github.com/noah-isme/course-registration-api/internal/models"

// UpsertCourseRequest adds or updates a catalog course.
type UpsertCourseRequest struct {
	Department string `json:"department" validate:"required,max=80"`
	Level      string `json:"level" validate:"required,numeric,len=3"`
	Semester   string `json:"semester" validate:"required"`
	models.Course
}

// CourseScopeQuery addresses a catalog scope via query parameters.
type CourseScopeQuery struct {
	Department string `form:"department" validate:"required"`
	Level      string `form:"level" validate:"required"`
	Semester   string `form:"semester" validate:"required"`
}
