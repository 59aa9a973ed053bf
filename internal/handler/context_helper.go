package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Thiritin/shifty/internal/middleware"
	"github.com/Thiritin/shifty/internal/models"
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
