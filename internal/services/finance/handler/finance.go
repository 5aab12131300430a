package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brewstock-system/internal/database/models"
	"brewstock-system/internal/services/core"
)

// FinanceHandler owns the expense ledger and the income totals that
// feed the balance-forward figure.
type FinanceHandler struct {
	db *gorm.DB
}

func NewFinanceHandler(db *gorm.DB) *FinanceHandler {
	return &FinanceHandler{db: db}
}

type CreateExpenseRequest struct {
	Item        string          `json:"item" binding:"required"`
	AmountSpent decimal.Decimal `json:"amount_spent" binding:"required"`
	Department  string          `json:"department"`
}

func (s *FinanceHandler) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*models.Expense, error) {
	if req.Item == "" {
		return nil, core.Validationf("expense item is required")
	}
	if req.AmountSpent.LessThanOrEqual(decimal.Zero) {
		return nil, core.Validationf("amount_spent must be greater than 0")
	}

	department := req.Department
	if department == "" {
		department = "Store"
	}

	expense := models.Expense{
		Item:        req.Item,
		AmountSpent: req.AmountSpent,
		Department:  department,
	}

	if err := s.db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, core.Transientf("creating expense: %v", err)
	}
	return &expense, nil
}

type UpdateExpenseRequest struct {
	Item        *string          `json:"item"`
	AmountSpent *decimal.Decimal `json:"amount_spent"`
}

func (s *FinanceHandler) UpdateExpense(ctx context.Context, id int64, req UpdateExpenseRequest) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.WithContext(ctx).First(&expense, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("expense %d", id)
		}
		return nil, core.Transientf("loading expense: %v", err)
	}

	if req.Item != nil {
		expense.Item = *req.Item
	}
	if req.AmountSpent != nil {
		if req.AmountSpent.LessThanOrEqual(decimal.Zero) {
			return nil, core.Validationf("amount_spent must be greater than 0")
		}
		expense.AmountSpent = *req.AmountSpent
	}

	if err := s.db.WithContext(ctx).Save(&expense).Error; err != nil {
		return nil, core.Transientf("updating expense: %v", err)
	}
	return &expense, nil
}

func (s *FinanceHandler) DeleteExpense(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&models.Expense{}, id)
	if result.Error != nil {
		return core.Transientf("deleting expense: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.NotFoundf("expense %d", id)
	}
	return nil
}

func (s *FinanceHandler) ListExpenses(ctx context.Context, department string, dateRange core.DateRange) ([]models.Expense, error) {
	start, end, err := dateRange.Bounds(time.Now())
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Expense{})
	if department != "" {
		query = query.Where("department = ?", department)
	}
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at < ?", *end)
	}

	var expenses []models.Expense
	if err := query.Order("created_at DESC").Find(&expenses).Error; err != nil {
		return nil, core.Transientf("listing expenses: %v", err)
	}
	return expenses, nil
}

func (s *FinanceHandler) RecordIncome(ctx context.Context, orderID *int64, amountPaid decimal.Decimal) (*models.FinanceEntry, error) {
	if amountPaid.LessThanOrEqual(decimal.Zero) {
		return nil, core.Validationf("amount_paid must be greater than 0")
	}

	entry := models.FinanceEntry{
		OrderID:    orderID,
		AmountPaid: amountPaid,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, core.Transientf("creating finance entry: %v", err)
	}
	return &entry, nil
}

type LedgerSummary struct {
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	BalanceForward decimal.Decimal `json:"balance_forward"`
}

// Summary totals income against expenses for the department.
func (s *FinanceHandler) Summary(ctx context.Context, department string, dateRange core.DateRange) (LedgerSummary, error) {
	var summary LedgerSummary

	var incomes []models.FinanceEntry
	if err := s.db.WithContext(ctx).Find(&incomes).Error; err != nil {
		return summary, core.Transientf("loading finance entries: %v", err)
	}
	for _, entry := range incomes {
		summary.TotalIncome = summary.TotalIncome.Add(entry.AmountPaid)
	}

	expenses, err := s.ListExpenses(ctx, department, dateRange)
	if err != nil {
		return summary, err
	}
	for _, expense := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(expense.AmountSpent)
	}

	summary.BalanceForward = summary.TotalIncome.Sub(summary.TotalExpenses)
	return summary, nil
}
