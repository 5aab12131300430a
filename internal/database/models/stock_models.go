package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryActionAdded = "Added to stock"
	EntryActionTaken = "Taken to production"
)

// Material is the reference row behind the inventory ledger.
// AmountAvailable is the raw stock figure; the consumption derived from
// cumulative production is computed on read, never written back here.
type Material struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	Name            string          `gorm:"size:255;uniqueIndex;not null"`
	AmountAvailable decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Unit            decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Specifications []Specification `gorm:"foreignKey:MaterialID"`
	Entries        []MaterialEntry `gorm:"foreignKey:MaterialID"`
}

// Specification maps a product to one material it consumes per unit
// produced. (product, material) is unique.
type Specification struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	ProductID        int64           `gorm:"not null;uniqueIndex:idx_product_material"`
	MaterialID       int64           `gorm:"not null;uniqueIndex:idx_product_material"`
	QuantityRequired decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Product  *Product  `gorm:"foreignKey:ProductID"`
	Material *Material `gorm:"foreignKey:MaterialID"`
}

// MaterialEntry is an append-only stock movement audit record. Applying
// an entry adjusts the owning material exactly once; entries are never
// replayed.
type MaterialEntry struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	MaterialID int64           `gorm:"index;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Action     string          `gorm:"size:50;not null"`
	CreatedBy  string          `gorm:"size:100;not null"`
	CreatedAt  time.Time

	Material *Material `gorm:"foreignKey:MaterialID"`
}
