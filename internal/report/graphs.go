package report

import (
	"context"
	"time"

	"asset_manager/internal/domain"
	"asset_manager/internal/repository"
)

// OwnerGraphs bundles the per-owner graph series. Buckets are calendar
// days; days with no matching records are omitted, not backfilled.
type OwnerGraphs struct {
	UserGrowth        []repository.DayCount   `json:"user_growth"`
	AssetDistribution []repository.TypeBucket `json:"asset_distribution"`
	TransactionVolume []repository.DayValue   `json:"transaction_volume"`
}

// PlatformGraphs bundles the platform-wide, date-range-filterable graph
// series.
type PlatformGraphs struct {
	UserGrowth         []repository.DayCount   `json:"user_growth"`
	AssetDistribution  []repository.TypeBucket `json:"asset_distribution"`
	TransactionVolume  []repository.DayValue   `json:"transaction_volume"`
	AssetValueByDay    []repository.DayValue   `json:"asset_value_by_day"`
	AvgTransactionSize []repository.DayValue   `json:"avg_transaction_size"`
}

// OwnerGraphs returns platform-wide signups per day, the owner's
// asset-type distribution, and the owner's transaction volume per day
// over the trailing 30-day window. Signup counts are deliberately not
// owner-scoped.
func (e *Engine) OwnerGraphs(ctx context.Context, ownerID uint) (*OwnerGraphs, error) {
	growth, err := e.store.Users().SignupsByDay(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	dist, err := e.store.Assets().TypeDistribution(ctx, &ownerID, nil, nil)
	if err != nil {
		return nil, err
	}
	monthAgo := e.now().UTC().AddDate(0, 0, -30)
	volume, err := e.store.Transactions().VolumeByDay(ctx, &ownerID, &monthAgo, nil)
	if err != nil {
		return nil, err
	}
	return &OwnerGraphs{
		UserGrowth:        growth,
		AssetDistribution: dist,
		TransactionVolume: volume,
	}, nil
}

// PlatformGraphs returns the platform-wide series, filtered to the
// inclusive [start, end] range. Either bound may be nil for an
// unbounded side; start after end fails before any storage access.
func (e *Engine) PlatformGraphs(ctx context.Context, start, end *time.Time) (*PlatformGraphs, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, domain.Invalidf("start date %s is after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	growth, err := e.store.Users().SignupsByDay(ctx, start, end)
	if err != nil {
		return nil, err
	}
	dist, err := e.store.Assets().TypeDistribution(ctx, nil, start, end)
	if err != nil {
		return nil, err
	}
	volume, err := e.store.Transactions().VolumeByDay(ctx, nil, start, end)
	if err != nil {
		return nil, err
	}
	assetValue, err := e.store.Assets().ValueByDay(ctx, start, end)
	if err != nil {
		return nil, err
	}
	avgSize, err := e.store.Transactions().AvgAmountByDay(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &PlatformGraphs{
		UserGrowth:         growth,
		AssetDistribution:  dist,
		TransactionVolume:  volume,
		AssetValueByDay:    assetValue,
		AvgTransactionSize: avgSize,
	}, nil
}
