package api

import (
	"net/http" // HTTP status codes

	"asset_manager/internal/repository" // Repository interfaces

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListUsersHandler returns the registered users, paginated
func ListUsersHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			return
		}
		p, err := pageParams(c)
		if err != nil {
			respondError(c, err)
			return
		}
		users, total, err := store.Users().List(c.Request.Context(), p.Offset(), p.Limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, envelope("users", users, len(users), total, p))
	}
}
