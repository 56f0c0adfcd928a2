package middleware

import (
	"net/http"

	"github.com/biswajit-debnath/control-room/internal/authz"

	"github.com/gin-gonic/gin"
)

// RequireAction creates a middleware that lets the request through only when
// the authenticated user's role is allowed to perform action
func RequireAction(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required, ensure session middleware runs first"})
			return
		}

		if !authz.Allow(user.Role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			return
		}

		c.Next()
	}
}

// SignerMiddleware admits only roles that may countersign records
func SignerMiddleware() gin.HandlerFunc {
	return RequireAction(authz.ActionSign)
}
