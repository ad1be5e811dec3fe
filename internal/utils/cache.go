package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Cache key building
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}

// ReportCacheKey is the cache key for a user's report summary
func ReportCacheKey(userID uint) string {
	return "reports:user:" + strconv.Itoa(int(userID))
}

// GraphCacheKey is the cache key for a user's analytics graphs
func GraphCacheKey(userID uint) string {
	return "graphs:user:" + strconv.Itoa(int(userID))
}

// PlatformReportCacheKey is the cache key for the admin report summary
const PlatformReportCacheKey = "reports:platform"

// InvalidateUserReports drops the cached reports and graphs for the
// given users, plus the platform-wide summary. Called after every
// ledger commit so readers never see stale aggregates past the TTL.
func InvalidateUserReports(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	for _, id := range userIDs {
		_ = DeleteCache(ctx, rdb, ReportCacheKey(id)) // Invalidate user report cache
		_ = DeleteCache(ctx, rdb, GraphCacheKey(id))  // Invalidate user graph cache
	}
	_ = DeleteCache(ctx, rdb, PlatformReportCacheKey) // Invalidate platform report cache
}
