package api

import (
	"net/http" // HTTP status codes

	"asset_manager/internal/domain"     // Importing domain models
	"asset_manager/internal/repository" // Repository interfaces

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CreateAssetRequest is the asset creation payload
type CreateAssetRequest struct {
	Name  string   `json:"name" binding:"required"`        // Asset name
	Type  string   `json:"type" binding:"required"`        // stock, crypto or real_estate
	Value *float64 `json:"value" binding:"required"`       // Initial value, must be >= 0
}

// CreateAssetHandler creates an asset owned by the caller
func CreateAssetHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req CreateAssetRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !domain.ValidAssetType(req.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Asset type must be one of stock, crypto, real_estate"})
			return
		}
		if *req.Value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Asset value must be non-negative"})
			return
		}
		asset := domain.Asset{
			Name:    req.Name,   // Asset name
			Type:    req.Type,   // Validated asset type
			Value:   *req.Value, // Initial value
			OwnerID: userID,     // Owned by the caller
		}
		if err := store.Assets().Create(c.Request.Context(), &asset); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"owner_id": userID,      // Owner user ID
			"asset_id": asset.ID,    // New asset ID
			"type":     asset.Type,  // Asset type
			"value":    asset.Value, // Initial value
		}).Info("Asset created")
		c.JSON(http.StatusCreated, asset)
	}
}

// ListAssetsHandler returns the caller's assets, paginated
func ListAssetsHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		p, err := pageParams(c)
		if err != nil {
			respondError(c, err)
			return
		}
		assets, total, err := store.Assets().ListByOwner(c.Request.Context(), userID, p.Offset(), p.Limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, envelope("assets", assets, len(assets), total, p))
	}
}
