package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/service/auth"
	"ascendancy-backend/internal/shared/apperr"
)

func AuthMiddleware(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.Fail(c, apperr.AuthErr("Authorization header missing", nil))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			httpx.Fail(c, apperr.AuthErr("Bearer token malformed", nil))
			return
		}

		claims, err := sessions.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			httpx.Fail(c, apperr.AuthErr("Invalid or expired token", err))
			return
		}

		c.Set(httpx.KeyUserID, claims.UserID)
		c.Set(httpx.KeyEmail, claims.Email)
		c.Set(httpx.KeyRole, claims.Role)
		c.Set(httpx.KeyTier, claims.Tier)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(httpx.KeyRole)
		if !exists {
			httpx.Fail(c, apperr.AuthErr("Role not found in token", nil))
			return
		}

		if value != role {
			httpx.Fail(c, apperr.ForbiddenErr("Access denied"))
			return
		}

		c.Next()
	}
}
