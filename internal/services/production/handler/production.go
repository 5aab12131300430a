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
	PRODUCTS_CACHE_KEY   = "production:products"
	CATEGORIES_CACHE_KEY = "production:categories"
	CACHE_TTL_SHORT      = 5 * time.Minute
)

// ProductionHandler owns the product catalog and the production log.
type ProductionHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductionHandler(db *gorm.DB, redisClient *redis.Client) *ProductionHandler {
	return &ProductionHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *ProductionHandler) invalidateCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, PRODUCTS_CACHE_KEY, CATEGORIES_CACHE_KEY)
}

// -- Production records --

type RecordProductionRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int64 `json:"quantity" binding:"required"`
	Actor     string `json:"-"`
}

// RecordProduction appends a production record and bumps the product's
// cumulative counter in the same transaction, so a reader never sees
// one without the other.
func (s *ProductionHandler) RecordProduction(ctx context.Context, req RecordProductionRequest) (*models.ProductionRecord, error) {
	if req.Quantity <= 0 {
		return nil, core.Validationf("quantity must be a positive integer")
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var product models.Product
	if err := tx.First(&product, req.ProductID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("product %d", req.ProductID)
		}
		return nil, core.Transientf("loading product: %v", err)
	}

	record := models.ProductionRecord{
		ProductID: req.ProductID,
		Title:     product.Title,
		Quantity:  req.Quantity,
		Status:    models.ProductionStatusPending,
		CreatedBy: req.Actor,
		CreatedAt: time.Now(),
	}

	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("creating production record: %v", err)
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", req.ProductID).
		Update("max_quantity", gorm.Expr("max_quantity + ?", req.Quantity)).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("updating product counter: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, core.Transientf("committing production record: %v", err)
	}

	s.invalidateCaches(ctx)
	return &record, nil
}

func (s *ProductionHandler) ListByFilter(ctx context.Context, dateRange core.DateRange) ([]models.ProductionRecord, error) {
	start, end, err := dateRange.Bounds(time.Now())
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.ProductionRecord{})
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at < ?", *end)
	}

	var records []models.ProductionRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, core.Transientf("listing production records: %v", err)
	}
	return records, nil
}

type UpdateProductionRequest struct {
	Quantity int64 `json:"quantity" binding:"required"`
}

// UpdateProduction changes a still-pending record's quantity and moves
// the product counter by the delta, transactionally. Processed records
// are immutable.
func (s *ProductionHandler) UpdateProduction(ctx context.Context, id int64, req UpdateProductionRequest) (*models.ProductionRecord, error) {
	if req.Quantity <= 0 {
		return nil, core.Validationf("quantity must be a positive integer")
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var record models.ProductionRecord
	if err := tx.First(&record, id).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("production record %d", id)
		}
		return nil, core.Transientf("loading production record: %v", err)
	}

	if record.Status != models.ProductionStatusPending {
		tx.Rollback()
		return nil, core.Conflictf("production record %d is already processed", id)
	}

	delta := req.Quantity - record.Quantity
	record.Quantity = req.Quantity

	if err := tx.Save(&record).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("updating production record: %v", err)
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", record.ProductID).
		Update("max_quantity", gorm.Expr("max_quantity + ?", delta)).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("updating product counter: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, core.Transientf("committing production update: %v", err)
	}

	s.invalidateCaches(ctx)
	return &record, nil
}

// DeleteProduction removes a pending record and reverses its effect on
// the product counter.
func (s *ProductionHandler) DeleteProduction(ctx context.Context, id int64) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var record models.ProductionRecord
	if err := tx.First(&record, id).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return core.NotFoundf("production record %d", id)
		}
		return core.Transientf("loading production record: %v", err)
	}

	if record.Status != models.ProductionStatusPending {
		tx.Rollback()
		return core.Conflictf("production record %d is already processed", id)
	}

	if err := tx.Delete(&record).Error; err != nil {
		tx.Rollback()
		return core.Transientf("deleting production record: %v", err)
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", record.ProductID).
		Update("max_quantity", gorm.Expr("max_quantity - ?", record.Quantity)).Error; err != nil {
		tx.Rollback()
		return core.Transientf("updating product counter: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		return core.Transientf("committing production delete: %v", err)
	}

	s.invalidateCaches(ctx)
	return nil
}

// -- Products --

type CreateProductRequest struct {
	Title      string          `json:"title" binding:"required"`
	Slug       string          `json:"slug" binding:"required"`
	CategoryID int64           `json:"category_id" binding:"required"`
	Price      decimal.Decimal `json:"price"`
}

func (s *ProductionHandler) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if req.Title == "" || req.Slug == "" {
		return nil, core.Validationf("title and slug are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", req.CategoryID).Count(&count).Error; err != nil {
		return nil, core.Transientf("checking category: %v", err)
	}
	if count == 0 {
		return nil, core.NotFoundf("category %d", req.CategoryID)
	}

	product := models.Product{
		Title:      req.Title,
		Slug:       req.Slug,
		CategoryID: req.CategoryID,
		Price:      req.Price,
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, core.Transientf("creating product: %v", err)
	}

	s.invalidateCaches(ctx)
	return &product, nil
}

type UpdateProductRequest struct {
	Title      *string          `json:"title"`
	Slug       *string          `json:"slug"`
	CategoryID *int64           `json:"category_id"`
	Price      *decimal.Decimal `json:"price"`
}

func (s *ProductionHandler) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("product %d", id)
		}
		return nil, core.Transientf("loading product: %v", err)
	}

	if req.Title != nil {
		product.Title = *req.Title
	}
	if req.Slug != nil {
		product.Slug = *req.Slug
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.Price != nil {
		product.Price = *req.Price
	}

	if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, core.Transientf("updating product: %v", err)
	}

	s.invalidateCaches(ctx)
	return &product, nil
}

func (s *ProductionHandler) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("product %d", id)
		}
		return nil, core.Transientf("loading product: %v", err)
	}
	return &product, nil
}

func (s *ProductionHandler) ListProducts(ctx context.Context) ([]models.Product, error) {
	if cached, err := s.redis.Get(ctx, PRODUCTS_CACHE_KEY).Result(); err == nil {
		var products []models.Product
		if json.Unmarshal([]byte(cached), &products) == nil {
			return products, nil
		}
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Order("title").Find(&products).Error; err != nil {
		return nil, core.Transientf("listing products: %v", err)
	}

	if payload, err := json.Marshal(products); err == nil {
		_ = s.redis.Set(ctx, PRODUCTS_CACHE_KEY, payload, CACHE_TTL_SHORT)
	}

	return products, nil
}

// DeleteProduct refuses to remove a product that still has a recipe or
// production history.
func (s *ProductionHandler) DeleteProduct(ctx context.Context, id int64) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.NotFoundf("product %d", id)
		}
		return core.Transientf("loading product: %v", err)
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.Specification{}).
		Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return core.Transientf("counting specifications: %v", err)
	}
	if refs > 0 {
		return core.Conflictf("product %d is referenced by %d specification(s)", id, refs)
	}

	if err := s.db.WithContext(ctx).Model(&models.ProductionRecord{}).
		Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return core.Transientf("counting production records: %v", err)
	}
	if refs > 0 {
		return core.Conflictf("product %d has %d production record(s)", id, refs)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return core.Transientf("deleting product: %v", err)
	}

	s.invalidateCaches(ctx)
	return nil
}

// -- Categories --

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *ProductionHandler) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, core.Validationf("category name is required")
	}

	category := models.Category{Name: req.Name}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, core.Transientf("creating category: %v", err)
	}

	s.invalidateCaches(ctx)
	return &category, nil
}

func (s *ProductionHandler) ListCategories(ctx context.Context) ([]models.Category, error) {
	if cached, err := s.redis.Get(ctx, CATEGORIES_CACHE_KEY).Result(); err == nil {
		var categories []models.Category
		if json.Unmarshal([]byte(cached), &categories) == nil {
			return categories, nil
		}
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, core.Transientf("listing categories: %v", err)
	}

	if payload, err := json.Marshal(categories); err == nil {
		_ = s.redis.Set(ctx, CATEGORIES_CACHE_KEY, payload, CACHE_TTL_SHORT)
	}

	return categories, nil
}

func (s *ProductionHandler) DeleteCategory(ctx context.Context, id int64) error {
	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", id).Count(&refs).Error; err != nil {
		return core.Transientf("counting products: %v", err)
	}
	if refs > 0 {
		return core.Conflictf("category %d still has %d product(s)", id, refs)
	}

	result := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return core.Transientf("deleting category: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.NotFoundf("category %d", id)
	}

	s.invalidateCaches(ctx)
	return nil
}
