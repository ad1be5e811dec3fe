package middleware

import (
	"net/http" // HTTP status codes

	"asset_manager/internal/domain"     // Importing domain models
	"asset_manager/internal/repository" // Repository interfaces

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware checks the user's role from storage on each
// request; the role claim is never trusted from the token itself.
func AdminOnlyMiddleware(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := store.Users().GetByID(c.Request.Context(), userID.(uint))
		if err != nil {
			// If user not found or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		if !user.IsAdmin() {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set("role", domain.RoleAdmin) // Role is verified for downstream handlers
		c.Next()
	}
}
