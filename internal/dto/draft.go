package dto

import (
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/registration"
)

// DraftResponse exposes the in-progress selection with its current validation.
type DraftResponse struct {
	Semester        models.Semester           `json:"semester"`
	Status          models.RegistrationStatus `json:"status"`
	Courses         registration.Selection    `json:"courses"`
	Locked          bool                      `json:"locked"`
	CarryoverLoaded bool                      `json:"carryover_loaded"`
	Validation      registration.Validation   `json:"validation"`
	ActiveSemester  models.Semester           `json:"active_semester"`
	Deadline        string                    `json:"registration_deadline"`
}
