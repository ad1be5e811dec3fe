package domain

import "time"

// Transaction types recorded in the ledger.
const (
	TxBuy      = "buy"
	TxSell     = "sell"
	TxTransfer = "transfer"
)

// TransactionTypes lists every declared transaction type. Aggregations
// report all of them, zero-filled, even when unobserved.
var TransactionTypes = []string{TxBuy, TxSell, TxTransfer}

// Transaction Model. Append-only and immutable once created: the log is
// the source of truth for historical reporting and owner history.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`               // Primary key
	Amount      float64   `json:"amount"`                             // Resolved amount, semantics depend on Type
	Type        string    `gorm:"index;not null" json:"type"`         // buy, sell or transfer
	AssetID     uint      `gorm:"index;not null" json:"asset_id"`     // Affected asset
	UserID      uint      `gorm:"index;not null" json:"user_id"`      // Acting user who initiated the operation
	FromOwnerID uint      `gorm:"not null" json:"from_owner_id"`      // Asset owner before the operation
	ToOwnerID   uint      `gorm:"not null" json:"to_owner_id"`        // Asset owner after the operation
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"` // Timestamp of creation
}
