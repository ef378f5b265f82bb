package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/internal/service"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/response"
)

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claimsValue, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	return claims, ok
}

// RequireRPC limits a route to RFC-Editor production staff.
func RequireRPC(visibility *service.VisibilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !visibility.IsRPC(claims) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireVerifier limits a route to users holding any classification role.
// RPC staff pass as well. Per-erratum jurisdiction is enforced inside the
// services, not here.
func RequireVerifier(visibility *service.VisibilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !visibility.IsRPC(claims) && !visibility.IsVerifier(claims) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
