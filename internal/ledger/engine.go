package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset_manager/internal/domain"
	"asset_manager/internal/repository"

	"github.com/sirupsen/logrus" // Logging library
)

// Engine is the only path by which an asset's value or owner changes.
// Every change is paired with exactly one appended transaction record,
// and the pair commits atomically through the store's unit of work.
type Engine struct {
	store repository.Store
}

func New(store repository.Store) *Engine {
	return &Engine{store: store}
}

// Apply validates and applies op against the asset, returning the
// committed transaction record. Preconditions are checked in order and
// the first violation is reported: asset exists, caller is authorized,
// the operation's amounts are valid, and for ownership moves the target
// user exists and differs from the current owner. Nothing is retried;
// failures surface unchanged to the caller.
func (e *Engine) Apply(ctx context.Context, actor Actor, assetID uint, op Op) (*domain.Transaction, error) {
	var committed *domain.Transaction
	err := e.store.WithTx(ctx, func(s repository.Store) error {
		asset, err := s.Assets().GetForUpdate(ctx, assetID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.NotFoundError{Entity: "asset", ID: assetID}
			}
			return err
		}
		if !actor.isAdmin() && asset.OwnerID != actor.UserID {
			return fmt.Errorf("%w: asset %d does not belong to user %d", domain.ErrForbidden, asset.ID, actor.UserID)
		}

		fromOwner := asset.OwnerID
		var amount float64
		switch v := op.(type) {
		case Buy:
			if v.Amount <= 0 {
				return domain.Invalidf("buy amount must be positive")
			}
			amount = v.Amount
			asset.Value += v.Amount
		case SellWithinOwner:
			if v.Amount <= 0 {
				return domain.Invalidf("sell amount must be positive")
			}
			if v.Amount > asset.Value {
				return domain.Invalidf("cannot sell more than current value of %g", asset.Value)
			}
			amount = v.Amount
			asset.Value -= v.Amount
		case SellAndTransfer:
			if !actor.isAdmin() {
				return fmt.Errorf("%w: ownership-transfer sell requires admin role", domain.ErrForbidden)
			}
			if v.Amount <= 0 {
				return domain.Invalidf("sell amount must be positive")
			}
			if err := checkTarget(ctx, s, v.TargetOwnerID, fromOwner); err != nil {
				return err
			}
			// Admin sell replaces the value outright.
			amount = v.Amount
			asset.Value = v.Amount
			asset.OwnerID = v.TargetOwnerID
		case Transfer:
			if err := checkTarget(ctx, s, v.TargetOwnerID, fromOwner); err != nil {
				return err
			}
			// Recorded amount is the value at the moment of transfer.
			amount = asset.Value
			asset.OwnerID = v.TargetOwnerID
		default:
			return domain.Invalidf("unsupported transaction type")
		}

		if err := s.Assets().Update(ctx, asset); err != nil {
			return err
		}
		tx := &domain.Transaction{
			Amount:      amount,
			Type:        op.txType(),
			AssetID:     asset.ID,
			UserID:      actor.UserID,
			FromOwnerID: fromOwner,
			ToOwnerID:   asset.OwnerID,
			Timestamp:   time.Now().UTC(),
		}
		if err := s.Transactions().Append(ctx, tx); err != nil {
			return err
		}
		committed = tx
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"actor_id": actor.UserID,
			"asset_id": assetID,
			"type":     op.txType(),
			"error":    err.Error(),
		}).Error("Ledger apply failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"actor_id":   actor.UserID,
		"asset_id":   assetID,
		"type":       committed.Type,
		"amount":     committed.Amount,
		"from_owner": committed.FromOwnerID,
		"to_owner":   committed.ToOwnerID,
	}).Info("Ledger transaction committed")
	return committed, nil
}

// checkTarget validates the target owner of an ownership-moving
// operation: the user must exist and must differ from the current
// owner.
func checkTarget(ctx context.Context, s repository.Store, target, current uint) error {
	ok, err := s.Users().ExistsByID(ctx, target)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.NotFoundError{Entity: "user", ID: target}
	}
	if target == current {
		return domain.Invalidf("cannot transfer asset to its current owner")
	}
	return nil
}
