package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext returns the caller, or false when the route was reached without claims.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}, false
	}
	return claims.Actor(c.ClientIP(), c.GetHeader("User-Agent")), true
}

// requestMeta identifies an anonymous caller for audit.
func requestMeta(c *gin.Context) models.Actor {
	return models.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func semesterParam(c *gin.Context) (models.Semester, error) {
	raw := c.Param("semester")
	semester, ok := models.ParseSemester(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid semester "+raw)
	}
	return semester, nil
}

// splitMatricPath reads "<matric>/<semester>" from a catch-all parameter.
// Matric numbers contain slashes, so the semester is the last segment.
func splitMatricPath(raw string) (string, string, error) {
	raw = strings.Trim(raw, "/")
	idx := strings.LastIndex(raw, "/")
	if idx <= 0 || idx == len(raw)-1 {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "path must be <matric_number>/<semester>")
	}
	matric, err := url.PathUnescape(raw[:idx])
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid matric number")
	}
	return matric, raw[idx+1:], nil
}
