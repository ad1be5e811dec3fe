package api

import (
	"strconv" // String conversion

	"asset_manager/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin" // Gin web framework
)

const (
	defaultLimit = 20  // Default items per page
	maxLimit     = 200 // Upper bound on items per page
)

// PageParams is the 1-based pagination window parsed from the query
// string.
type PageParams struct {
	Page  int
	Limit int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// pageParams reads page and limit from the query string. Absent params
// fall back to the defaults; out-of-range values are rejected.
func pageParams(c *gin.Context) (PageParams, error) {
	p := PageParams{Page: 1, Limit: defaultLimit}
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, domain.Invalidf("page must be an integer >= 1")
		}
		p.Page = v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxLimit {
			return p, domain.Invalidf("limit must be an integer between 1 and %d", maxLimit)
		}
		p.Limit = v
	}
	return p, nil
}

// envelope shapes a paginated response. has_next_page is derived from
// skip + returned < total; has_previous_page from page > 1.
func envelope(name string, items any, returned int, total int64, p PageParams) gin.H {
	return gin.H{
		name:                items,                                 // Page of records
		"total_count":       total,                                 // Total matching records
		"page":              p.Page,                                // Current page, 1-based
		"limit":             p.Limit,                               // Page size
		"has_next_page":     int64(p.Offset()+returned) < total,    // More pages after this one
		"has_previous_page": p.Page > 1,                            // Pages before this one
	}
}
