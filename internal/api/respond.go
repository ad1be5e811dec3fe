package api

import (
	"errors"   // Error kind matching
	"net/http" // HTTP status codes

	"asset_manager/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin" // Gin web framework
)

// respondError maps the domain error taxonomy onto stable HTTP status
// categories. Messages name the violated constraint and reach the
// caller unchanged.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUserID pulls the authenticated caller id set by the JWT
// middleware; responds 401 and returns false when absent.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID.(uint), true
}
