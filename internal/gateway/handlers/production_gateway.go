package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brewstock-system/internal/gateway/middleware"
	production "brewstock-system/internal/services/production/handler"
)

type ProductionHTTPHandler struct {
	production *production.ProductionHandler
}

func NewProductionHTTPHandler(productionHandler *production.ProductionHandler) *ProductionHTTPHandler {
	return &ProductionHTTPHandler{
		production: productionHandler,
	}
}

// Production record endpoints

func (s *ProductionHTTPHandler) RecordProduction(c *gin.Context) {
	var req production.RecordProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.Actor = middleware.Actor(c)

	record, err := s.production.RecordProduction(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, record)
}

func (s *ProductionHTTPHandler) ListProductionRecords(c *gin.Context) {
	records, err := s.production.ListByFilter(c.Request.Context(), parseDateRange(c))
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, records)
}

func (s *ProductionHTTPHandler) UpdateProductionRecord(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid record ID")
		return
	}

	var req production.UpdateProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	record, err := s.production.UpdateProduction(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, record)
}

func (s *ProductionHTTPHandler) DeleteProductionRecord(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid record ID")
		return
	}

	if err := s.production.DeleteProduction(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	success(c, gin.H{"deleted": id})
}

// Product endpoints

func (s *ProductionHTTPHandler) CreateProduct(c *gin.Context) {
	var req production.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := s.production.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, product)
}

func (s *ProductionHTTPHandler) UpdateProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req production.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := s.production.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, product)
}

func (s *ProductionHTTPHandler) GetProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := s.production.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, product)
}

func (s *ProductionHTTPHandler) ListProducts(c *gin.Context) {
	products, err := s.production.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, products)
}

func (s *ProductionHTTPHandler) DeleteProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := s.production.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	success(c, gin.H{"deleted": id})
}

// Category endpoints

func (s *ProductionHTTPHandler) CreateCategory(c *gin.Context) {
	var req production.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category, err := s.production.CreateCategory(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, category)
}

func (s *ProductionHTTPHandler) ListCategories(c *gin.Context) {
	categories, err := s.production.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, categories)
}

func (s *ProductionHTTPHandler) DeleteCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := s.production.DeleteCategory(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	success(c, gin.H{"deleted": id})
}
