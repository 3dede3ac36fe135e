package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "focusflow/internal/errors"
	"focusflow/internal/service"
)

const (
	UserIDContextKey = "userID"
	claimsContextKey = "tokenClaims"
)

func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			writeError(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			writeError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		claims, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(UserIDContextKey, claims.UserID)
		c.Set(claimsContextKey, *claims)
		c.Next()
	}
}

// RequireSelf rejects requests whose path parameter param names another user.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param(param) != UserID(c) {
			writeError(c, apperrors.Forbidden("cannot access another user's data"))
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	value, ok := c.Get(UserIDContextKey)
	if !ok {
		return ""
	}
	userID, ok := value.(string)
	if !ok {
		return ""
	}
	return userID
}

func Claims(c *gin.Context) (service.TokenClaims, bool) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return service.TokenClaims{}, false
	}
	claims, ok := value.(service.TokenClaims)
	return claims, ok
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
