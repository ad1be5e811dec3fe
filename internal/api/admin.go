package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // Cache key building
	"time"     // Date parsing

	"asset_manager/internal/domain"     // Importing domain models
	"asset_manager/internal/ledger"     // Ledger engine
	"asset_manager/internal/report"     // Reporting engine
	"asset_manager/internal/repository" // Repository interfaces
	"asset_manager/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

const dateLayout = "2006-01-02"

// UserHoldings is the per-user row returned to admins
type UserHoldings struct {
	ID         uint    `json:"id"`          // User ID
	Username   string  `json:"username"`    // Username
	Email      string  `json:"email"`       // Email
	Role       string  `json:"role"`        // User role
	AssetCount int64   `json:"asset_count"` // Number of owned assets
	TotalValue float64 `json:"total_value"` // Summed value of owned assets
}

// AdminListUsersHandler returns all users with their current holdings
func AdminListUsersHandler(store repository.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := pageParams(c)
		if err != nil {
			respondError(c, err)
			return
		}
		// Cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(p.Page) + ":limit=" + strconv.Itoa(p.Limit)
		var cached gin.H
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached page
			return
		}
		users, total, err := store.Users().List(ctx, p.Offset(), p.Limit)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := make([]UserHoldings, len(users))
		for i, u := range users {
			count, value, err := store.Assets().CountAndTotalValue(ctx, &u.ID)
			if err != nil {
				respondError(c, err)
				return
			}
			resp[i] = UserHoldings{
				ID:         u.ID,       // User ID
				Username:   u.Username, // Username
				Email:      u.Email,    // Email
				Role:       u.Role,     // User role
				AssetCount: count,      // Owned asset count
				TotalValue: value,      // Owned asset value
			}
		}
		respData := envelope("users", resp, len(resp), total, p)
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, reportCacheTTL)
		c.JSON(http.StatusOK, respData)
	}
}

// AdminListTransactionsHandler returns the whole transaction log, with
// optional filtering by acting user, asset, type or date range
func AdminListTransactionsHandler(store repository.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"user_id", "asset_id", "type", "from", "to", "page", "limit"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, ""))
		}
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached gin.H
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached page
			return
		}
		var filter repository.TransactionFilter
		if raw := c.Query("user_id"); raw != "" {
			if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
				id := uint(v)
				filter.UserID = &id // Filter by acting user
			}
		}
		if raw := c.Query("asset_id"); raw != "" {
			if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
				id := uint(v)
				filter.AssetID = &id // Filter by asset
			}
		}
		filter.Type = c.Query("type") // Filter by transaction type
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.From, filter.To = from, to
		p, err := pageParams(c)
		if err != nil {
			respondError(c, err)
			return
		}
		txs, total, err := store.Transactions().List(ctx, filter, p.Offset(), p.Limit)
		if err != nil {
			respondError(c, err)
			return
		}
		respData := envelope("transactions", txs, len(txs), total, p)
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, reportCacheTTL)
		c.JSON(http.StatusOK, respData)
	}
}

// AdminCreateTransactionHandler applies an admin-mode transaction
// against any asset; sell replaces the value and moves ownership
func AdminCreateTransactionHandler(engine *ledger.Engine, store repository.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyTransaction(c, engine, store, rdb, adminOp)
	}
}

// AdminReportHandler returns the platform-wide summary
func AdminReportHandler(reports *report.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached report.PlatformSummary
		if found, err := utils.GetCache(ctx, rdb, utils.PlatformReportCacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached summary
			return
		}
		summary, err := reports.PlatformSummary(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.PlatformReportCacheKey, summary, reportCacheTTL)
		c.JSON(http.StatusOK, summary)
	}
}

// AdminGraphsHandler returns the platform-wide graph series, optionally
// bounded to an inclusive [start, end] date range
func AdminGraphsHandler(reports *report.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start, end, err := dateRangeKeys(c, "start", "end")
		if err != nil {
			respondError(c, err)
			return
		}
		cacheKey := "admin:graphs:start=" + c.DefaultQuery("start", "") + ":end=" + c.DefaultQuery("end", "")
		var cached report.PlatformGraphs
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached graphs
			return
		}
		graphs, err := reports.PlatformGraphs(ctx, start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, graphs, reportCacheTTL)
		c.JSON(http.StatusOK, graphs)
	}
}

// dateRange parses the from/to query params.
func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	return dateRangeKeys(c, "from", "to")
}

// dateRangeKeys parses two YYYY-MM-DD query params into inclusive
// bounds: the end bound covers its whole calendar day.
func dateRangeKeys(c *gin.Context, startKey, endKey string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if raw := c.Query(startKey); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, domain.Invalidf("%s must be a YYYY-MM-DD date", startKey)
		}
		start = &t
	}
	if raw := c.Query(endKey); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, domain.Invalidf("%s must be a YYYY-MM-DD date", endKey)
		}
		// Inclusive bound covers the whole end day at full precision
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &t
	}
	return start, end, nil
}
