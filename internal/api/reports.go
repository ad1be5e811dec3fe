package api

import (
	"net/http" // HTTP status codes
	"time"     // Cache TTLs

	"asset_manager/internal/report" // Reporting engine
	"asset_manager/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// reportCacheTTL bounds how stale a cached aggregate can get; ledger
// commits also invalidate eagerly.
const reportCacheTTL = 60 * time.Second

// MyReportHandler returns the caller's holdings summary
func MyReportHandler(reports *report.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.ReportCacheKey(userID)
		var cached report.Summary
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached summary
			return
		}
		summary, err := reports.OwnerSummary(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, summary, reportCacheTTL)
		c.JSON(http.StatusOK, summary)
	}
}

// MyGraphsHandler returns the caller's analytics graph series
func MyGraphsHandler(reports *report.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.GraphCacheKey(userID)
		var cached report.OwnerGraphs
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached graphs
			return
		}
		graphs, err := reports.OwnerGraphs(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, graphs, reportCacheTTL)
		c.JSON(http.StatusOK, graphs)
	}
}
