package handler_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brewstock-system/internal/database"
	"brewstock-system/internal/services/core"
	"brewstock-system/internal/services/finance/handler"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:finance_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func TestExpenseDefaultsToStoreDepartment(t *testing.T) {
	ctx := context.Background()
	fin := handler.NewFinanceHandler(newTestDB(t))

	expense, err := fin.CreateExpense(ctx, handler.CreateExpenseRequest{
		Item:        "Napkins",
		AmountSpent: decimal.NewFromInt(15),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if expense.Department != "Store" {
		t.Fatalf("expected default department Store, got %q", expense.Department)
	}

	if _, err := fin.CreateExpense(ctx, handler.CreateExpenseRequest{
		Item:        "Nothing",
		AmountSpent: decimal.Zero,
	}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}

func TestListExpensesFiltersByDepartment(t *testing.T) {
	ctx := context.Background()
	fin := handler.NewFinanceHandler(newTestDB(t))

	for _, seed := range []struct {
		item       string
		department string
	}{
		{"Napkins", "Store"},
		{"Yeast", "Bakery"},
		{"Cups", "Store"},
	} {
		if _, err := fin.CreateExpense(ctx, handler.CreateExpenseRequest{
			Item:        seed.item,
			AmountSpent: decimal.NewFromInt(10),
			Department:  seed.department,
		}); err != nil {
			t.Fatalf("CreateExpense(%s): %v", seed.item, err)
		}
	}

	store, err := fin.ListExpenses(ctx, "Store", core.DateRange{Filter: core.FilterAll})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(store) != 2 {
		t.Fatalf("expected 2 Store expenses, got %d", len(store))
	}
}

func TestSummaryBalancesIncomeAgainstExpenses(t *testing.T) {
	ctx := context.Background()
	fin := handler.NewFinanceHandler(newTestDB(t))

	orderID := int64(42)
	if _, err := fin.RecordIncome(ctx, &orderID, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("RecordIncome: %v", err)
	}
	if _, err := fin.RecordIncome(ctx, nil, decimal.NewFromInt(20)); err != nil {
		t.Fatalf("RecordIncome walk-in: %v", err)
	}
	if _, err := fin.CreateExpense(ctx, handler.CreateExpenseRequest{
		Item:        "Sugar restock",
		AmountSpent: decimal.NewFromInt(40),
	}); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	summary, err := fin.Summary(ctx, "Store", core.DateRange{Filter: core.FilterAll})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got := summary.TotalIncome.String(); got != "120" {
		t.Fatalf("expected income 120, got %s", got)
	}
	if got := summary.TotalExpenses.String(); got != "40" {
		t.Fatalf("expected expenses 40, got %s", got)
	}
	if got := summary.BalanceForward.String(); got != "80" {
		t.Fatalf("expected balance 80, got %s", got)
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	ctx := context.Background()
	fin := handler.NewFinanceHandler(newTestDB(t))

	expense, err := fin.CreateExpense(ctx, handler.CreateExpenseRequest{
		Item:        "Napkins",
		AmountSpent: decimal.NewFromInt(15),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	newAmount := decimal.NewFromInt(18)
	updated, err := fin.UpdateExpense(ctx, expense.ID, handler.UpdateExpenseRequest{AmountSpent: &newAmount})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if got := updated.AmountSpent.String(); got != "18" {
		t.Fatalf("expected 18 after update, got %s", got)
	}

	if err := fin.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := fin.DeleteExpense(ctx, expense.ID); !core.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
