package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brewstock-system/internal/database/models"
	"brewstock-system/internal/services/core"
)

const (
	MATERIALS_CACHE_KEY      = "inventory:materials"
	SPECIFICATIONS_CACHE_KEY = "inventory:specifications"
	CACHE_TTL_SHORT          = 5 * time.Minute
	CACHE_TTL_MEDIUM         = 30 * time.Minute
)

// InventoryHandler owns the material ledger and the specification table.
type InventoryHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *InventoryHandler) invalidateCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, MATERIALS_CACHE_KEY, SPECIFICATIONS_CACHE_KEY)
}

// -- Materials --

type CreateMaterialRequest struct {
	Name            string          `json:"name" binding:"required"`
	AmountAvailable decimal.Decimal `json:"amount_available"`
	Unit            decimal.Decimal `json:"unit"`
}

func (s *InventoryHandler) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (*models.Material, error) {
	if req.Name == "" {
		return nil, core.Validationf("material name is required")
	}
	if req.AmountAvailable.IsNegative() || req.Unit.IsNegative() {
		return nil, core.Validationf("amount_available and unit must not be negative")
	}

	material := models.Material{
		Name:            req.Name,
		AmountAvailable: req.AmountAvailable,
		Unit:            req.Unit,
	}

	if err := s.db.WithContext(ctx).Create(&material).Error; err != nil {
		return nil, core.Transientf("creating material: %v", err)
	}

	s.invalidateCaches(ctx)
	return &material, nil
}

type UpdateMaterialRequest struct {
	Name            *string          `json:"name"`
	AmountAvailable *decimal.Decimal `json:"amount_available"`
	Unit            *decimal.Decimal `json:"unit"`
}

func (s *InventoryHandler) UpdateMaterial(ctx context.Context, id int64, req UpdateMaterialRequest) (*models.Material, error) {
	var material models.Material
	if err := s.db.WithContext(ctx).First(&material, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("material %d", id)
		}
		return nil, core.Transientf("loading material: %v", err)
	}

	if req.Name != nil {
		material.Name = *req.Name
	}
	if req.AmountAvailable != nil {
		if req.AmountAvailable.IsNegative() {
			return nil, core.Validationf("amount_available must not be negative")
		}
		material.AmountAvailable = *req.AmountAvailable
	}
	if req.Unit != nil {
		if req.Unit.IsNegative() {
			return nil, core.Validationf("unit must not be negative")
		}
		material.Unit = *req.Unit
	}

	if err := s.db.WithContext(ctx).Save(&material).Error; err != nil {
		return nil, core.Transientf("updating material: %v", err)
	}

	s.invalidateCaches(ctx)
	return &material, nil
}

func (s *InventoryHandler) GetMaterial(ctx context.Context, id int64) (*models.Material, error) {
	var material models.Material
	if err := s.db.WithContext(ctx).First(&material, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("material %d", id)
		}
		return nil, core.Transientf("loading material: %v", err)
	}
	return &material, nil
}

func (s *InventoryHandler) ListMaterials(ctx context.Context) ([]models.Material, error) {
	if cached, err := s.redis.Get(ctx, MATERIALS_CACHE_KEY).Result(); err == nil {
		var materials []models.Material
		if json.Unmarshal([]byte(cached), &materials) == nil {
			return materials, nil
		}
	}

	var materials []models.Material
	if err := s.db.WithContext(ctx).Order("name").Find(&materials).Error; err != nil {
		return nil, core.Transientf("listing materials: %v", err)
	}

	if payload, err := json.Marshal(materials); err == nil {
		_ = s.redis.Set(ctx, MATERIALS_CACHE_KEY, payload, CACHE_TTL_SHORT)
	}

	return materials, nil
}

// DeleteMaterial refuses to remove a material that any specification
// still references.
func (s *InventoryHandler) DeleteMaterial(ctx context.Context, id int64) error {
	var material models.Material
	if err := s.db.WithContext(ctx).First(&material, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.NotFoundf("material %d", id)
		}
		return core.Transientf("loading material: %v", err)
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.Specification{}).
		Where("material_id = ?", id).Count(&refs).Error; err != nil {
		return core.Transientf("counting specifications: %v", err)
	}
	if refs > 0 {
		return core.Conflictf("material %d is referenced by %d specification(s)", id, refs)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Material{}, id).Error; err != nil {
		return core.Transientf("deleting material: %v", err)
	}

	s.invalidateCaches(ctx)
	return nil
}

// -- Availability --

// MaterialAvailability is a material with its derived consumption
// figures. AmountAvailable is the clamped effective stock; the raw
// figure on the material row is left untouched.
type MaterialAvailability struct {
	Material        models.Material `json:"material"`
	AmountUsed      decimal.Decimal `json:"amount_used"`
	AmountAvailable decimal.Decimal `json:"amount_available"`
}

// RecomputeAvailability derives every material's effective stock from
// the cumulative production counters and the specification table:
// consumed = sum over the specs referencing the material of the spec
// product's total produced quantity times the spec's quantity required.
// The recompute always starts from the raw stock figure, so repeated
// invocations with unchanged inputs yield identical results, and the
// result is clamped so availability is never reported negative.
func (s *InventoryHandler) RecomputeAvailability(ctx context.Context) ([]MaterialAvailability, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Select("id", "max_quantity").Find(&products).Error; err != nil {
		return nil, core.Transientf("loading products: %v", err)
	}

	producedByProduct := make(map[int64]int64, len(products))
	for _, p := range products {
		producedByProduct[p.ID] = p.MaxQuantity
	}

	var specs []models.Specification
	if err := s.db.WithContext(ctx).Find(&specs).Error; err != nil {
		return nil, core.Transientf("loading specifications: %v", err)
	}

	var materials []models.Material
	if err := s.db.WithContext(ctx).Order("name").Find(&materials).Error; err != nil {
		return nil, core.Transientf("loading materials: %v", err)
	}

	consumed := make(map[int64]decimal.Decimal, len(materials))
	for _, spec := range specs {
		produced := decimal.NewFromInt(producedByProduct[spec.ProductID])
		consumed[spec.MaterialID] = consumed[spec.MaterialID].Add(produced.Mul(spec.QuantityRequired))
	}

	result := make([]MaterialAvailability, len(materials))
	for i, material := range materials {
		used := consumed[material.ID]
		available := material.AmountAvailable.Sub(used)
		if available.IsNegative() {
			available = decimal.Zero
		}
		result[i] = MaterialAvailability{
			Material:        material,
			AmountUsed:      used,
			AmountAvailable: available,
		}
	}

	return result, nil
}

// -- Material entries --

type ApplyEntryRequest struct {
	MaterialID int64           `json:"material_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Action     string          `json:"action" binding:"required"`
	Actor      string          `json:"-"`
}

// ApplyEntry appends a stock movement and adjusts the owning material
// in the same transaction. Entries are audit records applied exactly
// once; taking more than the raw stock holds is rejected.
func (s *InventoryHandler) ApplyEntry(ctx context.Context, req ApplyEntryRequest) (*models.MaterialEntry, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, core.Validationf("quantity must be greater than 0")
	}
	if req.Action != models.EntryActionAdded && req.Action != models.EntryActionTaken {
		return nil, core.Validationf("unknown entry action %q", req.Action)
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var material models.Material
	if err := tx.First(&material, req.MaterialID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("material %d", req.MaterialID)
		}
		return nil, core.Transientf("loading material: %v", err)
	}

	switch req.Action {
	case models.EntryActionAdded:
		material.AmountAvailable = material.AmountAvailable.Add(req.Quantity)
	case models.EntryActionTaken:
		if req.Quantity.GreaterThan(material.AmountAvailable) {
			tx.Rollback()
			return nil, core.Conflictf("insufficient stock: available %s, requested %s",
				material.AmountAvailable, req.Quantity)
		}
		material.AmountAvailable = material.AmountAvailable.Sub(req.Quantity)
	}

	if err := tx.Save(&material).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("updating material: %v", err)
	}

	entry := models.MaterialEntry{
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
		Action:     req.Action,
		CreatedBy:  req.Actor,
		CreatedAt:  time.Now(),
	}

	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("creating material entry: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, core.Transientf("committing material entry: %v", err)
	}

	s.invalidateCaches(ctx)
	return &entry, nil
}

func (s *InventoryHandler) ListEntries(ctx context.Context, dateRange core.DateRange) ([]models.MaterialEntry, error) {
	start, end, err := dateRange.Bounds(time.Now())
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.MaterialEntry{}).Preload("Material")
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at < ?", *end)
	}

	var entries []models.MaterialEntry
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, core.Transientf("listing material entries: %v", err)
	}
	return entries, nil
}

// -- Specifications --

type SetRequirementRequest struct {
	ProductID        int64           `json:"product_id" binding:"required"`
	MaterialID       int64           `json:"material_id" binding:"required"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
}

// SetRequirement upserts the (product, material) recipe row.
func (s *InventoryHandler) SetRequirement(ctx context.Context, req SetRequirementRequest) (*models.Specification, error) {
	if req.QuantityRequired.IsNegative() {
		return nil, core.Validationf("quantity_required must not be negative")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", req.ProductID).Count(&count).Error; err != nil {
		return nil, core.Transientf("checking product: %v", err)
	}
	if count == 0 {
		return nil, core.NotFoundf("product %d", req.ProductID)
	}
	if err := s.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", req.MaterialID).Count(&count).Error; err != nil {
		return nil, core.Transientf("checking material: %v", err)
	}
	if count == 0 {
		return nil, core.NotFoundf("material %d", req.MaterialID)
	}

	var spec models.Specification
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND material_id = ?", req.ProductID, req.MaterialID).
		First(&spec).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		spec = models.Specification{
			ProductID:        req.ProductID,
			MaterialID:       req.MaterialID,
			QuantityRequired: req.QuantityRequired,
		}
		if err := s.db.WithContext(ctx).Create(&spec).Error; err != nil {
			return nil, core.Transientf("creating specification: %v", err)
		}
	case err != nil:
		return nil, core.Transientf("loading specification: %v", err)
	default:
		spec.QuantityRequired = req.QuantityRequired
		if err := s.db.WithContext(ctx).Save(&spec).Error; err != nil {
			return nil, core.Transientf("updating specification: %v", err)
		}
	}

	s.invalidateCaches(ctx)
	return &spec, nil
}

// RemoveAllForProduct drops a product's whole recipe before it gets
// redefined. Stock is unaffected until the next recompute.
func (s *InventoryHandler) RemoveAllForProduct(ctx context.Context, productID int64) error {
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.Specification{}).Error; err != nil {
		return core.Transientf("deleting specifications: %v", err)
	}
	s.invalidateCaches(ctx)
	return nil
}

func (s *InventoryHandler) RequirementsFor(ctx context.Context, productID int64) ([]models.Specification, error) {
	var specs []models.Specification
	if err := s.db.WithContext(ctx).Preload("Material").
		Where("product_id = ?", productID).
		Find(&specs).Error; err != nil {
		return nil, core.Transientf("loading specifications: %v", err)
	}
	return specs, nil
}

func (s *InventoryHandler) ListSpecifications(ctx context.Context) ([]models.Specification, error) {
	var specs []models.Specification
	if err := s.db.WithContext(ctx).Preload("Material").Preload("Product").
		Find(&specs).Error; err != nil {
		return nil, core.Transientf("listing specifications: %v", err)
	}
	return specs, nil
}
