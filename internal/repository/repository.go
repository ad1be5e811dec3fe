package repository

import (
	"context"
	"time"

	"asset_manager/internal/domain"
)

// DayCount is a per-day record count bucket. Date is formatted as
// YYYY-MM-DD in UTC; days with no matching records are omitted.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DayValue is a per-day summed (or averaged) amount bucket.
type DayValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TypeBucket aggregates assets of one type.
type TypeBucket struct {
	Type       string  `json:"type"`
	Count      int64   `json:"count"`
	TotalValue float64 `json:"total_value"`
}

// TransactionFilter narrows transaction log listings. Nil/empty fields
// are not applied; From and To are inclusive bounds on the timestamp.
type TransactionFilter struct {
	UserID  *uint
	AssetID *uint
	Type    string
	From    *time.Time
	To      *time.Time
}

// UserRepository owns durable storage of user records.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, offset, limit int) ([]domain.User, int64, error)
	// SignupsByDay counts new users per calendar day of creation.
	SignupsByDay(ctx context.Context, from, to *time.Time) ([]DayCount, error)
}

// AssetRepository owns durable storage of asset records. Value and
// OwnerID may only be written through the ledger engine.
type AssetRepository interface {
	Create(ctx context.Context, a *domain.Asset) error
	GetByID(ctx context.Context, id uint) (*domain.Asset, error)
	// GetForUpdate loads the asset with a row lock. Only valid inside
	// Store.WithTx; concurrent callers against the same asset serialize
	// here.
	GetForUpdate(ctx context.Context, id uint) (*domain.Asset, error)
	Update(ctx context.Context, a *domain.Asset) error
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]domain.Asset, int64, error)
	List(ctx context.Context, offset, limit int) ([]domain.Asset, int64, error)
	// CountAndTotalValue returns holdings count and summed value,
	// owner-scoped when ownerID is non-nil.
	CountAndTotalValue(ctx context.Context, ownerID *uint) (int64, float64, error)
	// TypeDistribution buckets assets by type, owner-scoped when ownerID
	// is non-nil and bounded on creation time when from/to are non-nil.
	TypeDistribution(ctx context.Context, ownerID *uint, from, to *time.Time) ([]TypeBucket, error)
	// MostValuable returns the single highest-value asset, lowest id
	// winning ties, or nil when there are no assets.
	MostValuable(ctx context.Context) (*domain.Asset, error)
	// ValueByDay sums asset value per calendar day of creation.
	ValueByDay(ctx context.Context, from, to *time.Time) ([]DayValue, error)
}

// TransactionLog is the append-only store of transaction records.
// No update or delete operations exist.
type TransactionLog interface {
	Append(ctx context.Context, t *domain.Transaction) error
	List(ctx context.Context, f TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error)
	// CountByActorSince counts transactions with timestamp >= since,
	// scoped to the acting user when userID is non-nil.
	CountByActorSince(ctx context.Context, userID *uint, since time.Time) (int64, error)
	// CountByType returns observed per-type counts; absent types are
	// simply missing from the map.
	CountByType(ctx context.Context, userID *uint) (map[string]int64, error)
	VolumeByDay(ctx context.Context, userID *uint, from, to *time.Time) ([]DayValue, error)
	AvgAmountByDay(ctx context.Context, from, to *time.Time) ([]DayValue, error)
}

// Store bundles the repositories behind one handle and provides the
// atomic unit of work the ledger engine commits through: everything fn
// does against the passed Store is visible all-or-nothing.
type Store interface {
	Users() UserRepository
	Assets() AssetRepository
	Transactions() TransactionLog
	WithTx(ctx context.Context, fn func(Store) error) error
}

// day formats a timestamp to its calendar-day bucket key.
func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
