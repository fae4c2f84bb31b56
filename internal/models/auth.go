package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials; admins and students share the matric number field.
type LoginRequest struct {
	MatricNumber string `json:"matric_number" validate:"required"`
	Password     string `json:"password" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	User      UserInfo `json:"user"`
}

// RegisterStudentRequest is the signup form. Photo arrives as a multipart file.
type RegisterStudentRequest struct {
	FullName     string `form:"full_name" json:"full_name" validate:"required,max=120"`
	MatricNumber string `form:"matric_number" json:"matric_number" validate:"required,max=64"`
	Department   string `form:"department" json:"department" validate:"required,max=80"`
	Level        string `form:"level" json:"level" validate:"required,numeric,len=3"`
	Email        string `form:"email" json:"email" validate:"omitempty,email"`
	Phone        string `form:"phone" json:"phone" validate:"omitempty,max=32"`
	Password     string `form:"password" json:"password" validate:"required,min=6"`
}

// CreateAdminRequest bootstraps an admin account.
type CreateAdminRequest struct {
	FullName     string `json:"full_name" validate:"required,max=120"`
	MatricNumber string `json:"matric_number" validate:"required,max=64"`
	Password     string `json:"password" validate:"required,min=8"`
}

// UpdateProfileRequest lists the fields a student may change.
type UpdateProfileRequest struct {
	FullName *string `form:"full_name" json:"full_name" validate:"omitempty,min=1,max=120"`
	Email    *string `form:"email" json:"email" validate:"omitempty,email"`
	Phone    *string `form:"phone" json:"phone" validate:"omitempty,max=32"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID           string   `json:"id"`
	FullName     string   `json:"full_name"`
	MatricNumber string   `json:"matric_number"`
	Department   string   `json:"department,omitempty"`
	Level        string   `json:"level,omitempty"`
	Role         UserRole `json:"role"`
	IsAdmin      bool     `json:"is_admin"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	MatricNumber string   `json:"matric_number"`
	Role         UserRole `json:"role"`
	FullName     string   `json:"full_name"`
	Department   string   `json:"department,omitempty"`
	Level        string   `json:"level,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims belong to an admin.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Actor identifies the caller of a service operation for authorization and audit.
type Actor struct {
	UserID       string
	MatricNumber string
	Role         UserRole
	IP           string
	UserAgent    string
}

// Actor builds an Actor from verified claims.
func (c *JWTClaims) Actor(ip, userAgent string) Actor {
	if c == nil {
		return Actor{IP: ip, UserAgent: userAgent}
	}
	return Actor{UserID: c.UserID, MatricNumber: c.MatricNumber, Role: c.Role, IP: ip, UserAgent: userAgent}
}
