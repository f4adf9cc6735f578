package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stellarfs-api/internal/middleware"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// currentUser is the display name matched against record owners by the mine tab.
func currentUser(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.DisplayName()
	}
	return ""
}

func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: claims.UserID, Name: claims.DisplayName(), IP: c.ClientIP()}, true
}
