package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"brewstock-system/internal/database/models"
	"brewstock-system/internal/notify"
	"brewstock-system/internal/services/core"
)

const ORDERS_CACHE_KEY = "orders:list"

// OrderHandler owns the order workflow and the fulfillment reconciler
// that turns approved orders into material stock decrements.
type OrderHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, notifier notify.Notifier, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		db:       db,
		redis:    redisClient,
		notifier: notifier,
		logger:   logger,
	}
}

// allowedTransitions is the order state machine. Cancelled and
// Completed are terminal.
var allowedTransitions = map[string][]string{
	models.OrderStatusPending:  {models.OrderStatusApproved, models.OrderStatusCancelled},
	models.OrderStatusApproved: {models.OrderStatusCompleted},
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// -- Orders --

type OrderLineRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int64 `json:"quantity" binding:"required"`
}

type CreateOrderRequest struct {
	Slug        string             `json:"slug"`
	UserID      int64              `json:"user_id" binding:"required"`
	Description string             `json:"description"`
	Items       []OrderLineRequest `json:"items" binding:"required"`
}

func (s *OrderHandler) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, core.Validationf("order needs at least one line")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, core.Validationf("line quantity must be greater than 0")
		}
	}

	slug := req.Slug
	if slug == "" {
		slug = fmt.Sprintf("order-%d", time.Now().UnixNano())
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			tx.Rollback()
			if err == gorm.ErrRecordNotFound {
				return nil, core.NotFoundf("product %d", item.ProductID)
			}
			return nil, core.Transientf("loading product: %v", err)
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(item.Quantity)))
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order := models.Order{
		Slug:        slug,
		UserID:      req.UserID,
		Status:      models.OrderStatusPending,
		Description: req.Description,
		TotalAmount: total,
		OrderItems:  items,
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, core.Transientf("creating order: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, core.Transientf("committing order: %v", err)
	}

	_ = s.redis.Del(ctx, ORDERS_CACHE_KEY)
	return &order, nil
}

func (s *OrderHandler) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).
		Preload("OrderItems").Preload("OrderItems.Product").Preload("User").
		First(&order, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("order %d", id)
		}
		return nil, core.Transientf("loading order: %v", err)
	}
	return &order, nil
}

func (s *OrderHandler) ListOrders(ctx context.Context, dateRange core.DateRange) ([]models.Order, error) {
	start, end, err := dateRange.Bounds(time.Now())
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Preload("OrderItems").Preload("OrderItems.Product").Preload("User")
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at < ?", *end)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, core.Transientf("listing orders: %v", err)
	}
	return orders, nil
}

// UpdateOrderStatus applies one state-machine transition and notifies
// the order's owner with the new status. Notification delivery is
// at-least-once; a failed dispatch is logged, never surfaced.
func (s *OrderHandler) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("order %d", orderID)
		}
		return nil, core.Transientf("loading order: %v", err)
	}

	if status == order.Status {
		return &order, nil
	}
	if !transitionAllowed(order.Status, status) {
		return nil, core.Validationf("cannot transition order %d from %s to %s", orderID, order.Status, status)
	}

	order.Status = status
	if err := s.db.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, core.Transientf("updating order status: %v", err)
	}

	_ = s.redis.Del(ctx, ORDERS_CACHE_KEY)

	if err := s.notifier.Dispatch(ctx, order.UserID, status); err != nil {
		s.logger.Warn("order status notification failed",
			zap.Int64("order_id", orderID),
			zap.String("status", status),
			zap.Error(err))
	}

	return &order, nil
}

// -- Monthly aggregation --

type MonthlyOrderCount struct {
	Name   string `json:"name"`
	Orders int    `json:"orders"`
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlyOrderCounts buckets all orders by calendar month of creation.
func (s *OrderHandler) MonthlyOrderCounts(ctx context.Context) ([]MonthlyOrderCount, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Select("created_at").Find(&orders).Error; err != nil {
		return nil, core.Transientf("loading orders: %v", err)
	}

	byMonth := make(map[string]int)
	for _, order := range orders {
		byMonth[monthNames[order.CreatedAt.Month()-1]]++
	}

	counts := make([]MonthlyOrderCount, 0, len(byMonth))
	for _, name := range monthNames {
		if n, ok := byMonth[name]; ok {
			counts = append(counts, MonthlyOrderCount{Name: name, Orders: n})
		}
	}
	return counts, nil
}

// -- Fulfillment reconciler --

type ReconcileError struct {
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

type ReconcileResult struct {
	ProcessedCount int              `json:"processed_count"`
	Errors         []ReconcileError `json:"errors"`
}

// ReconcileApprovedOrders decrements material stock for every approved
// order that has not been processed yet and marks each one processed.
// Orders are independent units of work: a failing order is reported and
// skipped, the rest proceed. Re-invocation is a no-op for orders
// already processed, which is what makes the decrement happen at most
// once.
func (s *OrderHandler) ReconcileApprovedOrders(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	var orders []models.Order
	if err := s.db.WithContext(ctx).Preload("OrderItems").
		Where("status = ? AND processed = ?", models.OrderStatusApproved, false).
		Find(&orders).Error; err != nil {
		return result, core.Transientf("selecting approved orders: %v", err)
	}

	for _, order := range orders {
		claimed, err := s.reconcileOrder(ctx, order)
		if err != nil {
			result.Errors = append(result.Errors, ReconcileError{OrderID: order.ID, Reason: err.Error()})
			continue
		}
		if claimed {
			result.ProcessedCount++
		}
	}

	return result, nil
}

// reconcileOrder claims one order with a conditional update and applies
// its stock decrements inside a single transaction. The claim and the
// decrements commit together, so the processed flag is durable only
// once every line has been applied; a rollback releases the claim.
func (s *OrderHandler) reconcileOrder(ctx context.Context, order models.Order) (bool, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	claim := tx.Model(&models.Order{}).
		Where("id = ? AND processed = ?", order.ID, false).
		Update("processed", true)
	if claim.Error != nil {
		tx.Rollback()
		return false, core.Transientf("claiming order: %v", claim.Error)
	}
	if claim.RowsAffected == 0 {
		// Another worker got there first.
		tx.Rollback()
		return false, nil
	}

	for _, line := range order.OrderItems {
		if err := s.applyLine(tx, line); err != nil {
			tx.Rollback()
			return false, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return false, core.Transientf("committing reconcile: %v", err)
	}

	_ = s.redis.Del(ctx, ORDERS_CACHE_KEY)
	return true, nil
}

// applyLine decrements every material the line's product consumes,
// scaled by the line quantity. Stock is clamped at zero rather than
// rejected, matching the availability recompute.
func (s *OrderHandler) applyLine(tx *gorm.DB, line models.OrderItem) error {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", line.ProductID).Count(&count).Error; err != nil {
		return core.Transientf("checking product: %v", err)
	}
	if count == 0 {
		return core.NotFoundf("product %d", line.ProductID)
	}

	var specs []models.Specification
	if err := tx.Where("product_id = ?", line.ProductID).Find(&specs).Error; err != nil {
		return core.Transientf("loading specifications: %v", err)
	}

	for _, spec := range specs {
		var material models.Material
		if err := tx.First(&material, spec.MaterialID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return core.NotFoundf("material %d", spec.MaterialID)
			}
			return core.Transientf("loading material: %v", err)
		}

		needed := spec.QuantityRequired.Mul(decimal.NewFromInt(line.Quantity))
		remaining := material.AmountAvailable.Sub(needed)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		material.AmountAvailable = remaining

		if err := tx.Save(&material).Error; err != nil {
			return core.Transientf("updating material: %v", err)
		}
	}

	return nil
}
