package main

import (
	"log"

	"go.uber.org/zap"

	"brewstock-system/config"
	"brewstock-system/internal/database"
	"brewstock-system/internal/gateway/handlers"
	"brewstock-system/internal/notify"
	financehandler "brewstock-system/internal/services/finance/handler"
	inventoryhandler "brewstock-system/internal/services/inventory/handler"
	ordershandler "brewstock-system/internal/services/orders/handler"
	productionhandler "brewstock-system/internal/services/production/handler"
	userhandler "brewstock-system/internal/services/user/handler"
	"brewstock-system/internal/utils"
	"brewstock-system/internal/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret)
	notifier := notify.NewRedisNotifier(redisClient)

	userService := userhandler.NewUserHandler(db, redisClient, tokens, cfg.Auth.TokenTTL)
	inventoryService := inventoryhandler.NewInventoryHandler(db, redisClient)
	productionService := productionhandler.NewProductionHandler(db, redisClient)
	orderService := ordershandler.NewOrderHandler(db, redisClient, notifier, logger)
	financeService := financehandler.NewFinanceHandler(db)

	reconciler := worker.NewReconciler(orderService, logger)
	if err := reconciler.Start(cfg.Worker.ReconcileSpec); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}
	defer reconciler.Stop()

	userHandler := handlers.NewUserHTTPHandler(userService)
	inventoryHandler := handlers.NewInventoryHTTPHandler(inventoryService)
	productionHandler := handlers.NewProductionHTTPHandler(productionService)
	ordersHandler := handlers.NewOrdersHTTPHandler(orderService)
	financeHandler := handlers.NewFinanceHTTPHandler(financeService)

	r := buildRouter(routerDeps{
		tokens:     tokens,
		user:       userHandler,
		inventory:  inventoryHandler,
		production: productionHandler,
		orders:     ordersHandler,
		finance:    financeHandler,
	})

	log.Printf("Starting server on %s", cfg.Server.ListenAddr)
	if err := r.Run(cfg.Server.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
