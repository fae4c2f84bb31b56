package dto

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	TotalStudents    int            `json:"total_students"`
	PendingApprovals int            `json:"pending_approvals"`
	ByLevel          map[string]int `json:"by_level"`
	ByDepartment     map[string]int `json:"by_department"`
}

// SignatureView is a signature as rendered on course forms.
type SignatureView struct {
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
	UpdatedAt string `json:"updated_at"`
}
