package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
)

// Handlers bundles every HTTP handler served under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Catalog       *CatalogHandler
	Configuration *ConfigurationHandler
	Registration  *RegistrationHandler
	Students      *StudentHandler
	Approvals     *ApprovalHandler
	Dashboard     *DashboardHandler
	Tokens        *TokenHandler
	Signatures    *SignatureHandler
	Exports       *ExportHandler
	Audit         *AuditHandler
	Metrics       *MetricsHandler
}

// Register mounts the API routes. authn must populate middleware.ContextUserKey or abort.
func (h Handlers) Register(api *gin.RouterGroup, authn gin.HandlerFunc) {
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.POST("/create-admin", h.Auth.CreateAdmin)
	api.GET("/config", h.Configuration.Get)
	api.GET("/courses/:department/:level/:semester", h.Catalog.List)
	api.GET("/public/signatures", h.Signatures.List)

	authed := api.Group("", authn)
	authed.GET("/auth/me", h.Auth.Me)
	authed.GET("/downloads/:token", h.Exports.Download)

	student := authed.Group("/student", middleware.RequireRoles(models.RoleStudent))
	student.GET("/registration/:semester", h.Registration.Draft)
	student.POST("/registration/:semester/toggle", h.Registration.Toggle)
	student.POST("/registration/validate", h.Registration.Validate)
	student.POST("/validate-token", h.Registration.RedeemToken)
	student.POST("/register-courses", h.Registration.Submit)
	student.GET("/registered-courses/:semester", h.Registration.Registered)
	student.GET("/course-form/:semester", h.Exports.CourseForm)
	student.GET("/profile", h.Students.Profile)
	student.PUT("/profile", h.Students.UpdateProfile)

	admin := authed.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", h.Dashboard.Admin)
	admin.GET("/students", h.Students.List)
	admin.GET("/students/export", h.Students.Export)
	admin.POST("/approve/*path", h.Approvals.Approve)
	admin.POST("/reject/*path", h.Approvals.Reject)
	admin.DELETE("/delete-registration/*path", h.Approvals.Reset)
	admin.PUT("/config", h.Configuration.Update)
	admin.POST("/courses", h.Catalog.Upsert)
	admin.DELETE("/courses/:code", h.Catalog.Delete)
	admin.POST("/generate-token", h.Tokens.Generate)
	admin.GET("/tokens", h.Tokens.List)
	admin.GET("/signatures", h.Signatures.List)
	admin.POST("/signatures", h.Signatures.Save)
	admin.DELETE("/signatures/:role", h.Signatures.Delete)
	admin.GET("/logs", h.Audit.List)
	admin.GET("/metrics", h.Metrics.Snapshot)
}
