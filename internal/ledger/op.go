package ledger

import "asset_manager/internal/domain"

// Op is the closed set of ledger operations. The variant fixes which
// inputs are required: amounts for buys and sells, a target owner for
// ownership moves. "sell" deliberately has two variants with different
// semantics, selected by caller capability at the API boundary.
type Op interface {
	txType() string
}

// Buy adds Amount to the asset's current value. Owner unchanged.
type Buy struct {
	Amount float64
}

// SellWithinOwner subtracts Amount from the asset's current value,
// bounded by it. Owner unchanged. Self-service mode.
type SellWithinOwner struct {
	Amount float64
}

// SellAndTransfer replaces the asset's value with Amount and moves
// ownership to TargetOwnerID. Admin mode only.
type SellAndTransfer struct {
	Amount        float64
	TargetOwnerID uint
}

// Transfer moves ownership to TargetOwnerID. The asset's value is
// unchanged; the recorded amount is the value at the moment of
// transfer.
type Transfer struct {
	TargetOwnerID uint
}

func (Buy) txType() string             { return domain.TxBuy }
func (SellWithinOwner) txType() string { return domain.TxSell }
func (SellAndTransfer) txType() string { return domain.TxSell }
func (Transfer) txType() string        { return domain.TxTransfer }

// Actor is the already-authenticated caller identity, supplied by the
// auth layer and trusted as-is.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) isAdmin() bool {
	return a.Role == domain.RoleAdmin
}
