package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset_manager/internal/domain"

	"github.com/go-sql-driver/mysql" // MySQL driver errors, for conflict detection
	"gorm.io/gorm"                   // GORM ORM library
	"gorm.io/gorm/clause"            // Row locking clauses
)

// GormStore implements Store on top of a gorm connection. WithTx maps
// onto db.Transaction, so the ledger's read-validate-write sequence
// commits atomically; GetForUpdate takes a FOR UPDATE row lock to
// serialize concurrent mutations of the same asset.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository        { return &gormUsers{db: s.db} }
func (s *GormStore) Assets() AssetRepository      { return &gormAssets{db: s.db} }
func (s *GormStore) Transactions() TransactionLog { return &gormTransactions{db: s.db} }

func (s *GormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps storage errors onto the domain taxonomy. Errors that
// already carry a domain sentinel pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrInvalidOperation) || errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1213, 1205: // deadlock, lock wait timeout
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		case 1062: // duplicate entry on a unique column
			return domain.Invalidf("username or email already registered")
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

// ---------------------------------------------------------------------
// Users

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *gormUsers) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *gormUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *gormUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *gormUsers) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *gormUsers) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

func (r *gormUsers) SignupsByDay(ctx context.Context, from, to *time.Time) ([]DayCount, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') AS date, COUNT(id) AS count")
	q = timeBounds(q, "created_at", from, to)
	var rows []DayCount
	if err := q.Group("date").Order("date").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// ---------------------------------------------------------------------
// Assets

type gormAssets struct {
	db *gorm.DB
}

func (r *gormAssets) Create(ctx context.Context, a *domain.Asset) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *gormAssets) GetByID(ctx context.Context, id uint) (*domain.Asset, error) {
	var a domain.Asset
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormAssets) GetForUpdate(ctx context.Context, id uint) (*domain.Asset, error) {
	var a domain.Asset
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormAssets) Update(ctx context.Context, a *domain.Asset) error {
	return translate(r.db.WithContext(ctx).Save(a).Error)
}

func (r *gormAssets) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]domain.Asset, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Asset{}).Where("owner_id = ?", ownerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var assets []domain.Asset
	if err := q.Order("id").Offset(offset).Limit(limit).Find(&assets).Error; err != nil {
		return nil, 0, translate(err)
	}
	return assets, total, nil
}

func (r *gormAssets) List(ctx context.Context, offset, limit int) ([]domain.Asset, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Asset{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var assets []domain.Asset
	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&assets).Error; err != nil {
		return nil, 0, translate(err)
	}
	return assets, total, nil
}

func (r *gormAssets) CountAndTotalValue(ctx context.Context, ownerID *uint) (int64, float64, error) {
	var row struct {
		Count int64
		Total float64
	}
	q := r.db.WithContext(ctx).Model(&domain.Asset{}).
		Select("COUNT(id) AS count, COALESCE(SUM(value), 0) AS total")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	if err := q.Scan(&row).Error; err != nil {
		return 0, 0, translate(err)
	}
	return row.Count, row.Total, nil
}

func (r *gormAssets) TypeDistribution(ctx context.Context, ownerID *uint, from, to *time.Time) ([]TypeBucket, error) {
	q := r.db.WithContext(ctx).Model(&domain.Asset{}).
		Select("type, COUNT(id) AS count, COALESCE(SUM(value), 0) AS total_value")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	q = timeBounds(q, "created_at", from, to)
	var rows []TypeBucket
	if err := q.Group("type").Order("type").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (r *gormAssets) MostValuable(ctx context.Context) (*domain.Asset, error) {
	var a domain.Asset
	// Ties resolve to the lowest id.
	err := r.db.WithContext(ctx).Order("value DESC, id ASC").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormAssets) ValueByDay(ctx context.Context, from, to *time.Time) ([]DayValue, error) {
	q := r.db.WithContext(ctx).Model(&domain.Asset{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') AS date, COALESCE(SUM(value), 0) AS value")
	q = timeBounds(q, "created_at", from, to)
	var rows []DayValue
	if err := q.Group("date").Order("date").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// ---------------------------------------------------------------------
// Transactions

type gormTransactions struct {
	db *gorm.DB
}

func (r *gormTransactions) Append(ctx context.Context, t *domain.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *gormTransactions) List(ctx context.Context, f TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.AssetID != nil {
		q = q.Where("asset_id = ?", *f.AssetID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	q = timeBounds(q, "timestamp", f.From, f.To)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var txs []domain.Transaction
	if err := q.Order("timestamp DESC, id DESC").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, translate(err)
	}
	return txs, total, nil
}

func (r *gormTransactions) CountByActorSince(ctx context.Context, userID *uint, since time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{}).Where("timestamp >= ?", since)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (r *gormTransactions) CountByType(ctx context.Context, userID *uint) (map[string]int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("type, COUNT(id) AS count")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var rows []struct {
		Type  string
		Count int64
	}
	if err := q.Group("type").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (r *gormTransactions) VolumeByDay(ctx context.Context, userID *uint, from, to *time.Time) ([]DayValue, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("DATE_FORMAT(timestamp, '%Y-%m-%d') AS date, COALESCE(SUM(amount), 0) AS value")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	q = timeBounds(q, "timestamp", from, to)
	var rows []DayValue
	if err := q.Group("date").Order("date").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (r *gormTransactions) AvgAmountByDay(ctx context.Context, from, to *time.Time) ([]DayValue, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("DATE_FORMAT(timestamp, '%Y-%m-%d') AS date, COALESCE(AVG(amount), 0) AS value")
	q = timeBounds(q, "timestamp", from, to)
	var rows []DayValue
	if err := q.Group("date").Order("date").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// timeBounds applies inclusive from/to bounds on column when present.
func timeBounds(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", *from)
	}
	if to != nil {
		q = q.Where(column+" <= ?", *to)
	}
	return q
}
