package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/middleware"
	"github.com/papervault/papervault-api/internal/models"
	"github.com/papervault/papervault-api/internal/service"
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

// viewerFromContext builds the viewer identity for role-scoped listings. An
// absent or invalid token yields the anonymous viewer.
func viewerFromContext(c *gin.Context) service.Viewer {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Viewer{}
	}
	return service.Viewer{ID: claims.UserID, Role: claims.Role, Grade: claims.Grade}
}
