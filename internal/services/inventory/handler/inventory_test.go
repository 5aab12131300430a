package handler_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brewstock-system/internal/database"
	"brewstock-system/internal/database/models"
	"brewstock-system/internal/services/core"
	"brewstock-system/internal/services/inventory/handler"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:inventory_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// newTestRedis returns a client pointed at a closed port. Cache reads
// miss and cache writes fail silently, which the handlers tolerate.
func newTestRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
}

func seedProduct(t *testing.T, db *gorm.DB, title string, produced int64) *models.Product {
	t.Helper()
	category := models.Category{Name: "Drinks " + title}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	product := models.Product{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", title, time.Now().UnixNano()),
		CategoryID:  category.ID,
		Price:       decimal.NewFromInt(5),
		MaxQuantity: produced,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return &product
}

func TestRecomputeAvailabilityDerivesFromCumulativeProduction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{
		Name:            "Sugar",
		AmountAvailable: decimal.NewFromInt(100),
		Unit:            decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}

	juice := seedProduct(t, db, "Juice", 10)
	if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        juice.ID,
		MaterialID:       sugar.ID,
		QuantityRequired: decimal.NewFromInt(2),
	}); err != nil {
		t.Fatalf("SetRequirement: %v", err)
	}

	availability, err := inv.RecomputeAvailability(ctx)
	if err != nil {
		t.Fatalf("RecomputeAvailability: %v", err)
	}
	if len(availability) != 1 {
		t.Fatalf("expected 1 material, got %d", len(availability))
	}
	if got := availability[0].AmountUsed.String(); got != "20" {
		t.Fatalf("expected 20 used, got %s", got)
	}
	if got := availability[0].AmountAvailable.String(); got != "80" {
		t.Fatalf("expected 80 available, got %s", got)
	}

	// The recompute derives, never writes back. Raw stock is untouched
	// and a second run yields the same figures.
	var raw models.Material
	if err := db.First(&raw, sugar.ID).Error; err != nil {
		t.Fatalf("loading material: %v", err)
	}
	if got := raw.AmountAvailable.String(); got != "100" {
		t.Fatalf("raw stock changed to %s", got)
	}

	again, err := inv.RecomputeAvailability(ctx)
	if err != nil {
		t.Fatalf("second RecomputeAvailability: %v", err)
	}
	if got := again[0].AmountAvailable.String(); got != "80" {
		t.Fatalf("second recompute gave %s, want 80", got)
	}
}

func TestRecomputeAvailabilityClampsAtZero(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	flour, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{
		Name:            "Flour",
		AmountAvailable: decimal.NewFromInt(5),
		Unit:            decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}

	bread := seedProduct(t, db, "Bread", 10)
	if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        bread.ID,
		MaterialID:       flour.ID,
		QuantityRequired: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("SetRequirement: %v", err)
	}

	availability, err := inv.RecomputeAvailability(ctx)
	if err != nil {
		t.Fatalf("RecomputeAvailability: %v", err)
	}
	if got := availability[0].AmountUsed.String(); got != "10" {
		t.Fatalf("expected 10 used, got %s", got)
	}
	if !availability[0].AmountAvailable.IsZero() {
		t.Fatalf("expected clamped 0, got %s", availability[0].AmountAvailable)
	}
}

func TestApplyEntryAdjustsStockOnce(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{
		Name:            "Sugar",
		AmountAvailable: decimal.NewFromInt(100),
		Unit:            decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}

	if _, err := inv.ApplyEntry(ctx, handler.ApplyEntryRequest{
		MaterialID: sugar.ID,
		Quantity:   decimal.NewFromInt(25),
		Action:     models.EntryActionAdded,
		Actor:      "tester",
	}); err != nil {
		t.Fatalf("ApplyEntry add: %v", err)
	}

	if _, err := inv.ApplyEntry(ctx, handler.ApplyEntryRequest{
		MaterialID: sugar.ID,
		Quantity:   decimal.NewFromInt(30),
		Action:     models.EntryActionTaken,
		Actor:      "tester",
	}); err != nil {
		t.Fatalf("ApplyEntry take: %v", err)
	}

	var raw models.Material
	if err := db.First(&raw, sugar.ID).Error; err != nil {
		t.Fatalf("loading material: %v", err)
	}
	if got := raw.AmountAvailable.String(); got != "95" {
		t.Fatalf("expected 95 after add 25 take 30, got %s", got)
	}

	entries, err := inv.ListEntries(ctx, core.DateRange{Filter: core.FilterAll})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
}

func TestApplyEntryRejectsOverTaking(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{
		Name:            "Sugar",
		AmountAvailable: decimal.NewFromInt(10),
		Unit:            decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}

	_, err = inv.ApplyEntry(ctx, handler.ApplyEntryRequest{
		MaterialID: sugar.ID,
		Quantity:   decimal.NewFromInt(11),
		Action:     models.EntryActionTaken,
		Actor:      "tester",
	})
	if !core.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	// The rejected movement must leave stock and the audit log alone.
	var raw models.Material
	if err := db.First(&raw, sugar.ID).Error; err != nil {
		t.Fatalf("loading material: %v", err)
	}
	if got := raw.AmountAvailable.String(); got != "10" {
		t.Fatalf("stock changed to %s after rejected take", got)
	}
	var count int64
	if err := db.Model(&models.MaterialEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("counting entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no audit entries, got %d", count)
	}
}

func TestApplyEntryValidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{
		Name:            "Sugar",
		AmountAvailable: decimal.NewFromInt(10),
		Unit:            decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}

	if _, err := inv.ApplyEntry(ctx, handler.ApplyEntryRequest{
		MaterialID: sugar.ID,
		Quantity:   decimal.Zero,
		Action:     models.EntryActionAdded,
	}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	if _, err := inv.ApplyEntry(ctx, handler.ApplyEntryRequest{
		MaterialID: sugar.ID,
		Quantity:   decimal.NewFromInt(1),
		Action:     "Misplaced",
	}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for unknown action, got %v", err)
	}

	if _, err := inv.ApplyEntry(ctx, handler.ApplyEntryRequest{
		MaterialID: 9999,
		Quantity:   decimal.NewFromInt(1),
		Action:     models.EntryActionAdded,
	}); !core.IsNotFound(err) {
		t.Fatalf("expected not found for unknown material, got %v", err)
	}
}

func TestSetRequirementUpserts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{
		Name: "Sugar",
		Unit: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	juice := seedProduct(t, db, "Juice", 0)

	first, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        juice.ID,
		MaterialID:       sugar.ID,
		QuantityRequired: decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("SetRequirement: %v", err)
	}

	second, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        juice.ID,
		MaterialID:       sugar.ID,
		QuantityRequired: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("SetRequirement update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second row: %d vs %d", second.ID, first.ID)
	}
	if got := second.QuantityRequired.String(); got != "3" {
		t.Fatalf("expected quantity 3 after upsert, got %s", got)
	}

	var count int64
	if err := db.Model(&models.Specification{}).Count(&count).Error; err != nil {
		t.Fatalf("counting specifications: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 specification row, got %d", count)
	}

	if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        juice.ID,
		MaterialID:       sugar.ID,
		QuantityRequired: decimal.NewFromInt(-1),
	}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}

	if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        9999,
		MaterialID:       sugar.ID,
		QuantityRequired: decimal.NewFromInt(1),
	}); !core.IsNotFound(err) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestRemoveAllForProduct(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{Name: "Sugar", Unit: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	milk, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{Name: "Milk", Unit: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	juice := seedProduct(t, db, "Juice", 0)
	shake := seedProduct(t, db, "Shake", 0)

	for _, materialID := range []int64{sugar.ID, milk.ID} {
		if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
			ProductID:        juice.ID,
			MaterialID:       materialID,
			QuantityRequired: decimal.NewFromInt(1),
		}); err != nil {
			t.Fatalf("SetRequirement: %v", err)
		}
	}
	if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        shake.ID,
		MaterialID:       milk.ID,
		QuantityRequired: decimal.NewFromInt(4),
	}); err != nil {
		t.Fatalf("SetRequirement: %v", err)
	}

	if err := inv.RemoveAllForProduct(ctx, juice.ID); err != nil {
		t.Fatalf("RemoveAllForProduct: %v", err)
	}

	juiceSpecs, err := inv.RequirementsFor(ctx, juice.ID)
	if err != nil {
		t.Fatalf("RequirementsFor: %v", err)
	}
	if len(juiceSpecs) != 0 {
		t.Fatalf("expected juice recipe emptied, got %d rows", len(juiceSpecs))
	}

	// Other products' recipes stay.
	shakeSpecs, err := inv.RequirementsFor(ctx, shake.ID)
	if err != nil {
		t.Fatalf("RequirementsFor: %v", err)
	}
	if len(shakeSpecs) != 1 {
		t.Fatalf("expected shake recipe untouched, got %d rows", len(shakeSpecs))
	}
}

func TestDeleteMaterialRefusesWhileReferenced(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	inv := handler.NewInventoryHandler(db, newTestRedis())

	sugar, err := inv.CreateMaterial(ctx, handler.CreateMaterialRequest{Name: "Sugar", Unit: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	juice := seedProduct(t, db, "Juice", 0)
	if _, err := inv.SetRequirement(ctx, handler.SetRequirementRequest{
		ProductID:        juice.ID,
		MaterialID:       sugar.ID,
		QuantityRequired: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("SetRequirement: %v", err)
	}

	if err := inv.DeleteMaterial(ctx, sugar.ID); !core.IsConflict(err) {
		t.Fatalf("expected conflict deleting referenced material, got %v", err)
	}

	if err := inv.RemoveAllForProduct(ctx, juice.ID); err != nil {
		t.Fatalf("RemoveAllForProduct: %v", err)
	}
	if err := inv.DeleteMaterial(ctx, sugar.ID); err != nil {
		t.Fatalf("DeleteMaterial after recipe removal: %v", err)
	}
}
