package middleware

import (
	"net/http"
	"strings"

	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey  = "authUser"
	AuthTokenKey = "authToken"
)

// TokenFromRequest returns the session token from the session cookie or, failing
// that, from an "Authorization: Bearer" header. It returns "" when neither is set.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// SessionAuthMiddleware resolves the request's session token to a user and
// rejects the request with 401 when that fails
func SessionAuthMiddleware(auth service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		// Set user information in context
		c.Set(AuthUserKey, user)
		c.Set(AuthTokenKey, token)

		c.Next()
	}
}

// CurrentUser returns the user stored by SessionAuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(AuthUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
