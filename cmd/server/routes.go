package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"brewstock-system/internal/gateway/handlers"
	"brewstock-system/internal/gateway/middleware"
	"brewstock-system/internal/utils"
)

type routerDeps struct {
	tokens     *utils.TokenIssuer
	user       *handlers.UserHTTPHandler
	inventory  *handlers.InventoryHTTPHandler
	production *handlers.ProductionHTTPHandler
	orders     *handlers.OrdersHTTPHandler
	finance    *handlers.FinanceHTTPHandler
}

func buildRouter(deps routerDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("100-M"))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.user.Login)
			auth.POST("/register", deps.user.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(deps.tokens))
	{
		users := protected.Group("/users")
		{
			users.GET("", deps.user.ListUsers)
			users.GET("/:id", deps.user.GetUser)
		}

		materials := protected.Group("/materials")
		{
			materials.POST("", deps.inventory.CreateMaterial)
			materials.GET("", deps.inventory.ListMaterials)
			materials.GET("/:id", deps.inventory.GetMaterial)
			materials.PUT("/:id", deps.inventory.UpdateMaterial)
			materials.DELETE("/:id", deps.inventory.DeleteMaterial)
			materials.POST("/entries", deps.inventory.ApplyEntry)
			materials.GET("/entries", deps.inventory.ListEntries)
		}

		specifications := protected.Group("/specifications")
		{
			specifications.POST("", deps.inventory.SetRequirement)
			specifications.GET("", deps.inventory.ListSpecifications)
			specifications.GET("/product/:productId", deps.inventory.RequirementsFor)
			specifications.DELETE("/product/:productId", deps.inventory.RemoveAllForProduct)
		}

		production := protected.Group("/production")
		{
			production.POST("", deps.production.RecordProduction)
			production.GET("", deps.production.ListProductionRecords)
			production.PUT("/:id", deps.production.UpdateProductionRecord)
			production.DELETE("/:id", deps.production.DeleteProductionRecord)
		}

		products := protected.Group("/products")
		{
			products.POST("", deps.production.CreateProduct)
			products.GET("", deps.production.ListProducts)
			products.GET("/:id", deps.production.GetProduct)
			products.PUT("/:id", deps.production.UpdateProduct)
			products.DELETE("/:id", deps.production.DeleteProduct)
		}

		categories := protected.Group("/categories")
		{
			categories.POST("", deps.production.CreateCategory)
			categories.GET("", deps.production.ListCategories)
			categories.DELETE("/:id", deps.production.DeleteCategory)
		}

		orders := protected.Group("/orders")
		{
			orders.POST("", deps.orders.CreateOrder)
			orders.GET("", deps.orders.ListOrders)
			orders.GET("/monthly", deps.orders.MonthlyOrderCounts)
			orders.GET("/:id", deps.orders.GetOrder)
			orders.PUT("/:id/status", deps.orders.UpdateOrderStatus)
			orders.POST("/reconcile", deps.orders.Reconcile)
		}

		finance := protected.Group("/finance")
		{
			finance.POST("/expenses", deps.finance.CreateExpense)
			finance.GET("/expenses", deps.finance.ListExpenses)
			finance.PUT("/expenses/:id", deps.finance.UpdateExpense)
			finance.DELETE("/expenses/:id", deps.finance.DeleteExpense)
			finance.POST("/income", deps.finance.RecordIncome)
			finance.GET("/summary", deps.finance.Summary)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	return r
}
