package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"asset_manager/internal/domain"
)

// Memory is an in-memory Store used by unit tests and local development.
// WithTx serializes units of work on a single mutex, which matches the
// per-asset critical section the production store provides with row
// locks: of two conflicting ledger calls, the loser revalidates against
// the winner's committed state.
type Memory struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users  map[uint]domain.User
	assets map[uint]domain.Asset
	txs    []domain.Transaction

	nextUserID  uint
	nextAssetID uint
	nextTxID    uint
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[uint]domain.User),
		assets:      make(map[uint]domain.Asset),
		nextUserID:  1,
		nextAssetID: 1,
		nextTxID:    1,
	}
}

func (m *Memory) Users() UserRepository        { return (*memUsers)(m) }
func (m *Memory) Assets() AssetRepository      { return (*memAssets)(m) }
func (m *Memory) Transactions() TransactionLog { return (*memTransactions)(m) }

func (m *Memory) WithTx(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// ---------------------------------------------------------------------
// Users

type memUsers Memory

func (m *memUsers) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.Invalidf("username or email already registered")
		}
	}
	u.ID = m.nextUserID
	m.nextUserID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) ExistsByID(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memUsers) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	return page(all, offset, limit), total, nil
}

func (m *memUsers) SignupsByDay(ctx context.Context, from, to *time.Time) ([]DayCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, u := range m.users {
		if !within(u.CreatedAt, from, to) {
			continue
		}
		counts[day(u.CreatedAt)]++
	}
	return sortedCounts(counts), nil
}

// ---------------------------------------------------------------------
// Assets

type memAssets Memory

func (m *memAssets) Create(ctx context.Context, a *domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextAssetID
	m.nextAssetID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.assets[a.ID] = *a
	return nil
}

func (m *memAssets) GetByID(ctx context.Context, id uint) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *memAssets) GetForUpdate(ctx context.Context, id uint) (*domain.Asset, error) {
	// WithTx already holds the unit-of-work lock.
	return m.GetByID(ctx, id)
}

func (m *memAssets) Update(ctx context.Context, a *domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[a.ID]; !ok {
		return domain.ErrNotFound
	}
	m.assets[a.ID] = *a
	return nil
}

func (m *memAssets) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]domain.Asset, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Asset
	for _, a := range m.assets {
		if a.OwnerID == ownerID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *memAssets) List(ctx context.Context, offset, limit int) ([]domain.Asset, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *memAssets) CountAndTotalValue(ctx context.Context, ownerID *uint) (int64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	var total float64
	for _, a := range m.assets {
		if ownerID != nil && a.OwnerID != *ownerID {
			continue
		}
		count++
		total += a.Value
	}
	return count, total, nil
}

func (m *memAssets) TypeDistribution(ctx context.Context, ownerID *uint, from, to *time.Time) ([]TypeBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buckets := make(map[string]*TypeBucket)
	for _, a := range m.assets {
		if ownerID != nil && a.OwnerID != *ownerID {
			continue
		}
		if !within(a.CreatedAt, from, to) {
			continue
		}
		b, ok := buckets[a.Type]
		if !ok {
			b = &TypeBucket{Type: a.Type}
			buckets[a.Type] = b
		}
		b.Count++
		b.TotalValue += a.Value
	}
	out := make([]TypeBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (m *memAssets) MostValuable(ctx context.Context) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Asset
	ids := make([]uint, 0, len(m.assets))
	for id := range m.assets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		a := m.assets[id]
		// Lowest id wins ties, so strictly-greater only.
		if best == nil || a.Value > best.Value {
			a := a
			best = &a
		}
	}
	return best, nil
}

func (m *memAssets) ValueByDay(ctx context.Context, from, to *time.Time) ([]DayValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make(map[string]float64)
	for _, a := range m.assets {
		if !within(a.CreatedAt, from, to) {
			continue
		}
		values[day(a.CreatedAt)] += a.Value
	}
	return sortedValues(values), nil
}

// ---------------------------------------------------------------------
// Transactions

type memTransactions Memory

func (m *memTransactions) Append(ctx context.Context, t *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextTxID
	m.nextTxID++
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	m.txs = append(m.txs, *t)
	return nil
}

func (m *memTransactions) List(ctx context.Context, f TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Transaction
	for _, t := range m.txs {
		if f.UserID != nil && t.UserID != *f.UserID {
			continue
		}
		if f.AssetID != nil && t.AssetID != *f.AssetID {
			continue
		}
		if f.Type != "" && !strings.EqualFold(t.Type, f.Type) {
			continue
		}
		if !within(t.Timestamp, f.From, f.To) {
			continue
		}
		all = append(all, t)
	}
	// Newest first, matching the production ordering.
	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].ID > all[j].ID
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *memTransactions) CountByActorSince(ctx context.Context, userID *uint, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, t := range m.txs {
		if userID != nil && t.UserID != *userID {
			continue
		}
		if t.Timestamp.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memTransactions) CountByType(ctx context.Context, userID *uint) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, t := range m.txs {
		if userID != nil && t.UserID != *userID {
			continue
		}
		counts[t.Type]++
	}
	return counts, nil
}

func (m *memTransactions) VolumeByDay(ctx context.Context, userID *uint, from, to *time.Time) ([]DayValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make(map[string]float64)
	for _, t := range m.txs {
		if userID != nil && t.UserID != *userID {
			continue
		}
		if !within(t.Timestamp, from, to) {
			continue
		}
		values[day(t.Timestamp)] += t.Amount
	}
	return sortedValues(values), nil
}

func (m *memTransactions) AvgAmountByDay(ctx context.Context, from, to *time.Time) ([]DayValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[string]float64)
	counts := make(map[string]int64)
	for _, t := range m.txs {
		if !within(t.Timestamp, from, to) {
			continue
		}
		sums[day(t.Timestamp)] += t.Amount
		counts[day(t.Timestamp)]++
	}
	out := make([]DayValue, 0, len(sums))
	for d, sum := range sums {
		out = append(out, DayValue{Date: d, Value: sum / float64(counts[d])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ---------------------------------------------------------------------
// Helpers

func within(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func sortedCounts(counts map[string]int64) []DayCount {
	out := make([]DayCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DayCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortedValues(values map[string]float64) []DayValue {
	out := make([]DayValue, 0, len(values))
	for d, v := range values {
		out = append(out, DayValue{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
