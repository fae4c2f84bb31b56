package models

import "time"

// Audit actions recorded for registration workflows.
const (
	AuditActionRegister         = "register"
	AuditActionLogin            = "login"
	AuditActionAdminCreate      = "admin_create"
	AuditActionProfileUpdate    = "profile_update"
	AuditActionRegisterCourses  = "register_courses"
	AuditActionApproved         = "approved"
	AuditActionRejected         = "rejected"
	AuditActionDeleteReg        = "delete_registration"
	AuditActionConfigUpdate     = "config_update"
	AuditActionTokenGenerated   = "token_generated"
	AuditActionTokenUsed        = "token_used"
	AuditActionSignatureUpdate  = "signature_update"
	AuditActionSignatureDelete  = "signature_delete"
	AuditActionCourseUpsert     = "course_upsert"
	AuditActionCourseDelete     = "course_delete"
	AuditActionCourseFormIssued = "course_form_issued"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    string    `db:"details" json:"details"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
