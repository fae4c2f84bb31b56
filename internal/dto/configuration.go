package dto

// UpdateConfigRequest is a partial update of registration settings. Absent fields are left alone.
type UpdateConfigRequest struct {
	ActiveSemester       *string        `json:"active_semester" validate:"omitempty,oneof=first second first_semester second_semester"`
	RegistrationDeadline *string        `json:"registration_deadline" validate:"omitempty,datetime=2006-01-02"`
	MaxUnits             map[string]int `json:"max_units" validate:"omitempty,dive,keys,required,numeric,endkeys,gt=0,lte=60"`
}
