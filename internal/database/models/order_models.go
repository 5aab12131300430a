package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusApproved  = "Approved"
	OrderStatusCancelled = "Cancelled"
	OrderStatusCompleted = "Completed"
)

// Order transitions Pending -> Approved/Cancelled, Approved -> Completed.
// Processed guards the one-shot stock decrement applied on approval.
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Slug        string          `gorm:"size:255;uniqueIndex;not null"`
	UserID      int64           `gorm:"index;not null"`
	Status      string          `gorm:"size:50;not null;default:'Pending'"`
	Processed   bool            `gorm:"not null;default:false"`
	Description string          `gorm:"type:text"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	OrderItems []OrderItem `gorm:"foreignKey:OrderID"`
	User       *User       `gorm:"foreignKey:UserID"`
}

type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	OrderID   int64 `gorm:"index;not null"`
	ProductID int64 `gorm:"not null"`
	Quantity  int64 `gorm:"not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

type Expense struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Item        string          `gorm:"size:255;not null"`
	AmountSpent decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Department  string          `gorm:"size:100;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FinanceEntry records income received against an order.
type FinanceEntry struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	OrderID    *int64          `gorm:"index"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt  time.Time
}

func (FinanceEntry) TableName() string {
	return "finance"
}
