package report

import (
	"context"
	"time"

	"asset_manager/internal/domain"
	"asset_manager/internal/repository"
)

// Engine derives aggregate views over assets and transactions. It never
// mutates state and tolerates empty result sets.
type Engine struct {
	store repository.Store
	now   func() time.Time
}

func New(store repository.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// NewWithClock is used by tests to pin the reporting windows.
func NewWithClock(store repository.Store, now func() time.Time) *Engine {
	return &Engine{store: store, now: now}
}

// Summary is the point-in-time view of one owner's holdings.
type Summary struct {
	TotalAssets        int64            `json:"total_assets"`
	TotalValue         float64          `json:"total_asset_value"`
	RecentTransactions int64            `json:"recent_transactions"`
	TransactionTypes   map[string]int64 `json:"transaction_types_distribution"`
}

// PlatformSummary extends Summary across the whole platform.
type PlatformSummary struct {
	Summary
	AverageAssetValue float64       `json:"average_asset_value"`
	MostValuableAsset *domain.Asset `json:"most_valuable_asset"`
}

// OwnerSummary reports the owner's current holdings, transaction count
// in the trailing 7-day window, and a per-type transaction histogram
// with every declared type present.
func (e *Engine) OwnerSummary(ctx context.Context, ownerID uint) (*Summary, error) {
	return e.summary(ctx, &ownerID)
}

// PlatformSummary is the unscoped version of OwnerSummary, plus the
// average asset value and the single most valuable asset. With zero
// assets the average is 0 and the most valuable asset is nil, never an
// error. Value ties resolve to the lowest asset id.
func (e *Engine) PlatformSummary(ctx context.Context) (*PlatformSummary, error) {
	s, err := e.summary(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := &PlatformSummary{Summary: *s}
	if s.TotalAssets > 0 {
		out.AverageAssetValue = s.TotalValue / float64(s.TotalAssets)
	}
	top, err := e.store.Assets().MostValuable(ctx)
	if err != nil {
		return nil, err
	}
	out.MostValuableAsset = top
	return out, nil
}

func (e *Engine) summary(ctx context.Context, ownerID *uint) (*Summary, error) {
	count, total, err := e.store.Assets().CountAndTotalValue(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	weekAgo := e.now().UTC().AddDate(0, 0, -7)
	recent, err := e.store.Transactions().CountByActorSince(ctx, ownerID, weekAgo)
	if err != nil {
		return nil, err
	}
	observed, err := e.store.Transactions().CountByType(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// Every declared type is present, zero-filled when unobserved.
	types := make(map[string]int64, len(domain.TransactionTypes))
	for _, t := range domain.TransactionTypes {
		types[t] = observed[t]
	}
	return &Summary{
		TotalAssets:        count,
		TotalValue:         total,
		RecentTransactions: recent,
		TransactionTypes:   types,
	}, nil
}
