package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes

	"asset_manager/internal/domain"     // Importing domain models
	"asset_manager/internal/ledger"     // Ledger engine
	"asset_manager/internal/repository" // Repository interfaces
	"asset_manager/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// TransactionRequest is the transaction payload. Amount is required
// for buys and sells; to_owner_id for ownership moves.
type TransactionRequest struct {
	Type      string   `json:"type" binding:"required"`     // buy, sell or transfer
	AssetID   uint     `json:"asset_id" binding:"required"` // Affected asset
	Amount    *float64 `json:"amount"`                      // Amount, semantics depend on type
	ToOwnerID *uint    `json:"to_owner_id"`                 // Target owner for ownership moves
}

// selfServiceOp maps a request onto the owner-scoped operation set:
// sell here means a bounded reduction of the asset's value.
func selfServiceOp(req TransactionRequest) (ledger.Op, error) {
	switch req.Type {
	case domain.TxBuy:
		if req.Amount == nil {
			return nil, domain.Invalidf("amount is required for buy")
		}
		return ledger.Buy{Amount: *req.Amount}, nil
	case domain.TxSell:
		if req.Amount == nil {
			return nil, domain.Invalidf("amount is required for sell")
		}
		return ledger.SellWithinOwner{Amount: *req.Amount}, nil
	case domain.TxTransfer:
		if req.ToOwnerID == nil {
			return nil, domain.Invalidf("to_owner_id is required for transfer")
		}
		return ledger.Transfer{TargetOwnerID: *req.ToOwnerID}, nil
	default:
		return nil, domain.Invalidf("transaction type must be one of buy, sell, transfer")
	}
}

// adminOp maps a request onto the admin operation set: sell here
// replaces the asset's value and moves ownership.
func adminOp(req TransactionRequest) (ledger.Op, error) {
	switch req.Type {
	case domain.TxBuy:
		if req.Amount == nil {
			return nil, domain.Invalidf("amount is required for buy")
		}
		return ledger.Buy{Amount: *req.Amount}, nil
	case domain.TxSell:
		if req.Amount == nil {
			return nil, domain.Invalidf("amount is required for sell")
		}
		if req.ToOwnerID == nil {
			return nil, domain.Invalidf("to_owner_id is required for admin sell")
		}
		return ledger.SellAndTransfer{Amount: *req.Amount, TargetOwnerID: *req.ToOwnerID}, nil
	case domain.TxTransfer:
		if req.ToOwnerID == nil {
			return nil, domain.Invalidf("to_owner_id is required for transfer")
		}
		return ledger.Transfer{TargetOwnerID: *req.ToOwnerID}, nil
	default:
		return nil, domain.Invalidf("transaction type must be one of buy, sell, transfer")
	}
}

// applyTransaction runs the full bind-map-apply sequence shared by the
// self-service and admin endpoints.
func applyTransaction(c *gin.Context, engine *ledger.Engine, store repository.Store, rdb *redis.Client,
	buildOp func(TransactionRequest) (ledger.Op, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req TransactionRequest // Bind JSON request to struct
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	op, err := buildOp(req)
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	// The actor role comes from storage, not from the token
	actor, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	tx, err := engine.Apply(ctx, ledger.Actor{UserID: actor.ID, Role: actor.Role}, req.AssetID, op)
	if err != nil {
		respondError(c, err)
		return
	}
	// Invalidate cached aggregates for everyone the commit touched
	utils.InvalidateUserReports(context.Background(), rdb, tx.UserID, tx.FromOwnerID, tx.ToOwnerID)
	c.JSON(http.StatusCreated, tx)
}

// CreateTransactionHandler applies a self-service transaction against
// one of the caller's assets
func CreateTransactionHandler(engine *ledger.Engine, store repository.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyTransaction(c, engine, store, rdb, selfServiceOp)
	}
}

// ListTransactionsHandler returns the caller's transaction history,
// newest first, paginated
func ListTransactionsHandler(store repository.Store) gin.HandlerFunc {
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
		filter := repository.TransactionFilter{UserID: &userID}
		txs, total, err := store.Transactions().List(c.Request.Context(), filter, p.Offset(), p.Limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, envelope("transactions", txs, len(txs), total, p))
	}
}
