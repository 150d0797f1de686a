package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"airthlab/models"
	"airthlab/services"
)

const (
	ContextUserKey  = "currentUser"
	ContextTokenKey = "bearerToken"
)

// AuthRequired resolves the bearer token to a user record and aborts with the
// mapped status on any failure. Every protected route goes through this gate.
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization credentials not provided"})
			return
		}

		user, err := auth.ResolveUser(c.Request.Context(), tokenString)
		if err != nil {
			var svcErr *services.Error
			if !errors.As(err, &svcErr) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			status := http.StatusUnauthorized
			if svcErr.Kind == services.KindNotFound {
				status = http.StatusNotFound
			}
			c.AbortWithStatusJSON(status, gin.H{"error": svcErr.Message})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, tokenString)
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthRequired.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// BearerToken returns the raw token attached by AuthRequired.
func BearerToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}
