package models

import "time"

// SettingType defines supported types for setting values.
type SettingType string

const (
	SettingTypeString  SettingType = "STRING"
	SettingTypeInteger SettingType = "INTEGER"
	SettingTypeDate    SettingType = "DATE"
)

// Setting keys persisted in the settings table.
const (
	SettingActiveSemester       = "active_semester"
	SettingRegistrationDeadline = "registration_deadline"
	SettingMaxUnitsPrefix       = "max_units."
)

// Setting represents a persisted key/value entry.
type Setting struct {
	Key       string      `db:"key" json:"key"`
	Value     string      `db:"value" json:"value"`
	Type      SettingType `db:"type" json:"type"`
	UpdatedBy *string     `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// RegistrationConfig is the typed view over settings exposed as GET /config.
type RegistrationConfig struct {
	ActiveSemester       string         `json:"active_semester"`
	RegistrationDeadline string         `json:"registration_deadline"`
	MaxUnits             map[string]int `json:"max_units"`
}

// MaxUnitsFor returns the cap for a level, falling back when the level is unknown.
func (c RegistrationConfig) MaxUnitsFor(level string, fallback int) int {
	if v, ok := c.MaxUnits[level]; ok && v > 0 {
		return v
	}
	return fallback
}

// ActiveSemesterKey returns the active semester in stored form.
func (c RegistrationConfig) ActiveSemesterKey() Semester {
	if s, ok := ParseSemester(c.ActiveSemester); ok {
		return s
	}
	return SemesterFirst
}

// DeadlinePassed reports whether now is after the end of the deadline day (UTC).
func (c RegistrationConfig) DeadlinePassed(now time.Time) bool {
	deadline, err := time.Parse(time.DateOnly, c.RegistrationDeadline)
	if err != nil {
		return false
	}
	return !now.UTC().Before(deadline.AddDate(0, 0, 1))
}
