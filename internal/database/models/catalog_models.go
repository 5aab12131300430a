package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductionStatusPending   = "Pending"
	ProductionStatusProcessed = "Processed"
)

type Category struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Products []Product `gorm:"foreignKey:CategoryID"`
}

// Product is a sellable good. MaxQuantity is the cumulative production
// counter: the invariant is that it equals the sum of all production
// record quantities for the product.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Title       string          `gorm:"size:255;not null"`
	Slug        string          `gorm:"size:255;uniqueIndex;not null"`
	CategoryID  int64           `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MaxQuantity int64           `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

// ProductionRecord is one production event (boxes of a product made).
// Records stay editable while Pending; a Processed record is immutable.
type ProductionRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProductID int64  `gorm:"index;not null"`
	Title     string `gorm:"size:255;not null"`
	Quantity  int64  `gorm:"not null"`
	Status    string `gorm:"size:50;not null;default:'Pending'"`
	CreatedBy string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (ProductionRecord) TableName() string {
	return "product_entries"
}
