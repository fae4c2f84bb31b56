package dto

import "github.com/noah-isme/course-registration-api/internal/models"

// GenerateTokenRequest issues a token for one student.
type GenerateTokenRequest struct {
	Type         models.TokenType `json:"type" validate:"required,oneof=carryover late_registration"`
	MatricNumber string           `json:"matric_number" validate:"required,max=64"`
	Courses      []models.Course  `json:"courses" validate:"omitempty,dive"`
}

// GenerateTokenResponse returns the code to hand to the student.
type GenerateTokenResponse struct {
	Token        string           `json:"token"`
	Type         models.TokenType `json:"type"`
	MatricNumber string           `json:"matric_number"`
	Courses      []models.Course  `json:"courses"`
}

// RedeemTokenResponse reports what a redeemed token did to the draft.
type RedeemTokenResponse struct {
	Type      models.TokenType `json:"type"`
	Courses   []models.Course  `json:"courses"`
	TokenUsed bool             `json:"token_used"`
	Draft     *DraftResponse   `json:"draft,omitempty"`
}
