package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	orders "brewstock-system/internal/services/orders/handler"
)

// Reconciler drives the order fulfillment sweep on a cron schedule.
// The sweep is idempotent, so overlapping or repeated runs are safe.
type Reconciler struct {
	orders *orders.OrderHandler
	logger *zap.Logger
	sched  *cron.Cron
}

func NewReconciler(orderHandler *orders.OrderHandler, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		orders: orderHandler,
		logger: logger,
		sched:  cron.New(),
	}
}

// Start registers the sweep at the given cron spec ("@every 1m") and
// launches the scheduler.
func (r *Reconciler) Start(spec string) error {
	if _, err := r.sched.AddFunc(spec, r.RunOnce); err != nil {
		return err
	}
	r.sched.Start()
	r.logger.Info("fulfillment reconciler scheduled", zap.String("spec", spec))
	return nil
}

func (r *Reconciler) Stop() {
	ctx := r.sched.Stop()
	<-ctx.Done()
}

// RunOnce performs a single reconcile sweep. Also invoked on demand by
// the gateway.
func (r *Reconciler) RunOnce() {
	result, err := r.orders.ReconcileApprovedOrders(context.Background())
	if err != nil {
		r.logger.Error("reconcile sweep failed", zap.Error(err))
		return
	}

	if result.ProcessedCount > 0 || len(result.Errors) > 0 {
		r.logger.Info("reconcile sweep finished",
			zap.Int("processed", result.ProcessedCount),
			zap.Int("failed", len(result.Errors)))
	}
	for _, item := range result.Errors {
		r.logger.Warn("order left unprocessed",
			zap.Int64("order_id", item.OrderID),
			zap.String("reason", item.Reason))
	}
}
