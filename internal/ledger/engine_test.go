package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"asset_manager/internal/domain"
	"asset_manager/internal/ledger"
	"asset_manager/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *repository.Memory, username, role string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", Password: "x", Role: role}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func seedAsset(t *testing.T, store *repository.Memory, owner *domain.User, value float64) *domain.Asset {
	t.Helper()
	a := &domain.Asset{Name: "acme shares", Type: domain.AssetStock, Value: value, OwnerID: owner.ID}
	require.NoError(t, store.Assets().Create(context.Background(), a))
	return a
}

func assetByID(t *testing.T, store *repository.Memory, id uint) *domain.Asset {
	t.Helper()
	a, err := store.Assets().GetByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func TestApply_Buy_AddsToValue(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	owner := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, owner, 100)

	tx, err := engine.Apply(context.Background(), ledger.Actor{UserID: owner.ID, Role: owner.Role},
		asset.ID, ledger.Buy{Amount: 25})
	require.NoError(t, err)

	assert.Equal(t, domain.TxBuy, tx.Type)
	assert.Equal(t, 25.0, tx.Amount)
	assert.Equal(t, owner.ID, tx.FromOwnerID, "owner unchanged")
	assert.Equal(t, owner.ID, tx.ToOwnerID)

	got := assetByID(t, store, asset.ID)
	assert.Equal(t, 125.0, got.Value)
	assert.Equal(t, owner.ID, got.OwnerID)
}

func TestApply_Buy_RejectsNonPositiveAmount(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	owner := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, owner, 100)

	for _, amount := range []float64{0, -5} {
		_, err := engine.Apply(context.Background(), ledger.Actor{UserID: owner.ID, Role: owner.Role},
			asset.ID, ledger.Buy{Amount: amount})
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	}
	assert.Equal(t, 100.0, assetByID(t, store, asset.ID).Value, "failed buy must not change value")
}

func TestApply_SellWithinOwner(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		amount    float64
		wantValue float64
		wantErr   bool
	}{
		{name: "partial sell", value: 100, amount: 40, wantValue: 60},
		{name: "full sell", value: 100, amount: 100, wantValue: 0},
		{name: "over current value", value: 100, amount: 100.01, wantErr: true},
		{name: "zero amount", value: 100, amount: 0, wantErr: true},
		{name: "negative amount", value: 100, amount: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemory()
			engine := ledger.New(store)
			owner := seedUser(t, store, "alice", domain.RoleUser)
			asset := seedAsset(t, store, owner, tt.value)

			tx, err := engine.Apply(context.Background(), ledger.Actor{UserID: owner.ID, Role: owner.Role},
				asset.ID, ledger.SellWithinOwner{Amount: tt.amount})
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidOperation)
				assert.Equal(t, tt.value, assetByID(t, store, asset.ID).Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TxSell, tx.Type)
			assert.Equal(t, tt.amount, tx.Amount)
			assert.Equal(t, tx.FromOwnerID, tx.ToOwnerID)
			assert.Equal(t, tt.wantValue, assetByID(t, store, asset.ID).Value)
		})
	}
}

func TestApply_SellBoundViolation_NamesCurrentValue(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	owner := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, owner, 60)

	_, err := engine.Apply(context.Background(), ledger.Actor{UserID: owner.ID, Role: owner.Role},
		asset.ID, ledger.SellWithinOwner{Amount: 200})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot sell more than current value of 60")
}

func TestApply_Transfer_MovesOwnershipKeepsValue(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	bob := seedUser(t, store, "bob", domain.RoleUser)
	asset := seedAsset(t, store, alice, 75)

	tx, err := engine.Apply(context.Background(), ledger.Actor{UserID: alice.ID, Role: alice.Role},
		asset.ID, ledger.Transfer{TargetOwnerID: bob.ID})
	require.NoError(t, err)

	assert.Equal(t, domain.TxTransfer, tx.Type)
	assert.Equal(t, 75.0, tx.Amount, "recorded amount is the value at the moment of transfer")
	assert.Equal(t, alice.ID, tx.FromOwnerID)
	assert.Equal(t, bob.ID, tx.ToOwnerID)

	got := assetByID(t, store, asset.ID)
	assert.Equal(t, bob.ID, got.OwnerID)
	assert.Equal(t, 75.0, got.Value, "transfer must not change value")
}

func TestApply_Transfer_SelfTransferRejected(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, alice, 75)

	_, err := engine.Apply(context.Background(), ledger.Actor{UserID: alice.ID, Role: alice.Role},
		asset.ID, ledger.Transfer{TargetOwnerID: alice.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestApply_Transfer_MissingTargetRejected(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, alice, 75)

	_, err := engine.Apply(context.Background(), ledger.Actor{UserID: alice.ID, Role: alice.Role},
		asset.ID, ledger.Transfer{TargetOwnerID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApply_SellAndTransfer_ReplacesValueAndMovesOwnership(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	admin := seedUser(t, store, "root", domain.RoleAdmin)
	bob := seedUser(t, store, "bob", domain.RoleUser)
	carol := seedUser(t, store, "carol", domain.RoleUser)
	asset := seedAsset(t, store, bob, 60)

	tx, err := engine.Apply(context.Background(), ledger.Actor{UserID: admin.ID, Role: admin.Role},
		asset.ID, ledger.SellAndTransfer{Amount: 200, TargetOwnerID: carol.ID})
	require.NoError(t, err)

	assert.Equal(t, domain.TxSell, tx.Type)
	assert.Equal(t, 200.0, tx.Amount)
	assert.Equal(t, bob.ID, tx.FromOwnerID)
	assert.Equal(t, carol.ID, tx.ToOwnerID)

	got := assetByID(t, store, asset.ID)
	assert.Equal(t, 200.0, got.Value, "admin sell replaces the value, not additive")
	assert.Equal(t, carol.ID, got.OwnerID)
}

func TestApply_SellAndTransfer_RequiresAdmin(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	bob := seedUser(t, store, "bob", domain.RoleUser)
	asset := seedAsset(t, store, alice, 60)

	_, err := engine.Apply(context.Background(), ledger.Actor{UserID: alice.ID, Role: alice.Role},
		asset.ID, ledger.SellAndTransfer{Amount: 10, TargetOwnerID: bob.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApply_NonOwnerForbidden(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	bob := seedUser(t, store, "bob", domain.RoleUser)
	asset := seedAsset(t, store, alice, 100)

	_, err := engine.Apply(context.Background(), ledger.Actor{UserID: bob.ID, Role: bob.Role},
		asset.ID, ledger.Buy{Amount: 10})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApply_AdminMayOperateOnAnyAsset(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	admin := seedUser(t, store, "root", domain.RoleAdmin)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, alice, 100)

	tx, err := engine.Apply(context.Background(), ledger.Actor{UserID: admin.ID, Role: admin.Role},
		asset.ID, ledger.Buy{Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, tx.UserID, "acting user is the admin")
	assert.Equal(t, alice.ID, tx.FromOwnerID)
}

func TestApply_MissingAssetNotFound(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)

	_, err := engine.Apply(context.Background(), ledger.Actor{UserID: alice.ID, Role: alice.Role},
		42, ledger.Buy{Amount: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Every committed mutation pairs with exactly one appended transaction,
// and failed mutations append nothing.
func TestApply_MutationAndRecordStayConsistent(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, alice, 100)
	actor := ledger.Actor{UserID: alice.ID, Role: alice.Role}
	ctx := context.Background()

	_, err := engine.Apply(ctx, actor, asset.ID, ledger.Buy{Amount: 50})
	require.NoError(t, err)
	_, err = engine.Apply(ctx, actor, asset.ID, ledger.SellWithinOwner{Amount: 1000})
	require.Error(t, err)

	txs, total, err := store.Transactions().List(ctx, repository.TransactionFilter{}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, txs, 1)
	assert.Equal(t, 150.0, assetByID(t, store, asset.ID).Value)
}

func TestApply_EndToEnd_SellThenAdminTransfer(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	admin := seedUser(t, store, "root", domain.RoleAdmin)
	a := seedUser(t, store, "alice", domain.RoleUser)
	b := seedUser(t, store, "bob", domain.RoleUser)
	c := seedUser(t, store, "carol", domain.RoleUser)
	asset := seedAsset(t, store, a, 100)
	ctx := context.Background()

	// A sells 40 in self-service mode.
	tx, err := engine.Apply(ctx, ledger.Actor{UserID: a.ID, Role: a.Role},
		asset.ID, ledger.SellWithinOwner{Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, domain.TxSell, tx.Type)
	assert.Equal(t, 40.0, tx.Amount)
	assert.Equal(t, a.ID, tx.FromOwnerID)
	assert.Equal(t, a.ID, tx.ToOwnerID)
	assert.Equal(t, 60.0, assetByID(t, store, asset.ID).Value)

	// Admin transfers the asset from A to B.
	tx, err = engine.Apply(ctx, ledger.Actor{UserID: admin.ID, Role: admin.Role},
		asset.ID, ledger.Transfer{TargetOwnerID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TxTransfer, tx.Type)
	assert.Equal(t, 60.0, tx.Amount)
	assert.Equal(t, a.ID, tx.FromOwnerID)
	assert.Equal(t, b.ID, tx.ToOwnerID)
	got := assetByID(t, store, asset.ID)
	assert.Equal(t, b.ID, got.OwnerID)
	assert.Equal(t, 60.0, got.Value)

	// Admin sell-mode transfer to C with amount 200 replaces the value.
	tx, err = engine.Apply(ctx, ledger.Actor{UserID: admin.ID, Role: admin.Role},
		asset.ID, ledger.SellAndTransfer{Amount: 200, TargetOwnerID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, tx.FromOwnerID)
	assert.Equal(t, c.ID, tx.ToOwnerID)
	got = assetByID(t, store, asset.ID)
	assert.Equal(t, 200.0, got.Value)
	assert.Equal(t, c.ID, got.OwnerID)
}

// Two concurrent full-value sells against the same asset must not both
// succeed on the same stale read.
func TestApply_ConcurrentSells_SingleWinner(t *testing.T) {
	store := repository.NewMemory()
	engine := ledger.New(store)
	alice := seedUser(t, store, "alice", domain.RoleUser)
	asset := seedAsset(t, store, alice, 100)
	actor := ledger.Actor{UserID: alice.ID, Role: alice.Role}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Apply(context.Background(), actor, asset.ID,
				ledger.SellWithinOwner{Amount: 100})
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		assert.True(t,
			errors.Is(err, domain.ErrInvalidOperation) || errors.Is(err, domain.ErrConflict),
			"loser must fail with invalid operation or conflict, got %v", err)
	}
	assert.Equal(t, 1, succeeded, "exactly one sell must win")
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0.0, assetByID(t, store, asset.ID).Value)
}
