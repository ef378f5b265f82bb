package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/middleware"
	"github.com/ietf-tools/errata-api/internal/models"
)

// claimsFromContext returns the verified claims the JWT middleware stored,
// or nil on unauthenticated routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
