package domain

import "time"

// Asset types tracked by the ledger.
const (
	AssetStock      = "stock"
	AssetCrypto     = "crypto"
	AssetRealEstate = "real_estate"
)

// AssetTypes lists every declared asset type.
var AssetTypes = []string{AssetStock, AssetCrypto, AssetRealEstate}

// ValidAssetType reports whether t is one of the declared asset types.
func ValidAssetType(t string) bool {
	for _, at := range AssetTypes {
		if t == at {
			return true
		}
	}
	return false
}

// Asset Model. Value and OwnerID are a materialized cache of the
// transaction log: they only change through the ledger engine, which
// pairs every change with exactly one appended Transaction.
type Asset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`           // Primary key
	Name      string    `gorm:"index;not null" json:"name"`     // Asset name
	Type      string    `gorm:"not null" json:"type"`           // stock, crypto or real_estate
	Value     float64   `gorm:"not null" json:"value"`          // Current value, always >= 0
	OwnerID   uint      `gorm:"index;not null" json:"owner_id"` // Foreign key to the current owner
	CreatedAt time.Time `json:"created_at"`                     // Timestamp of creation
}
