package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brewstock-system/internal/gateway/middleware"
	inventory "brewstock-system/internal/services/inventory/handler"
)

type InventoryHTTPHandler struct {
	inventory *inventory.InventoryHandler
}

func NewInventoryHTTPHandler(inventoryHandler *inventory.InventoryHandler) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{
		inventory: inventoryHandler,
	}
}

// Material endpoints

func (s *InventoryHTTPHandler) CreateMaterial(c *gin.Context) {
	var req inventory.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	material, err := s.inventory.CreateMaterial(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, material)
}

func (s *InventoryHTTPHandler) UpdateMaterial(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid material ID")
		return
	}

	var req inventory.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	material, err := s.inventory.UpdateMaterial(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, material)
}

func (s *InventoryHTTPHandler) DeleteMaterial(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid material ID")
		return
	}

	if err := s.inventory.DeleteMaterial(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	success(c, gin.H{"deleted": id})
}

func (s *InventoryHTTPHandler) GetMaterial(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid material ID")
		return
	}

	material, err := s.inventory.GetMaterial(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, material)
}

// ListMaterials returns every material with its derived consumption and
// clamped availability.
func (s *InventoryHTTPHandler) ListMaterials(c *gin.Context) {
	availability, err := s.inventory.RecomputeAvailability(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, availability)
}

// Material entry endpoints

func (s *InventoryHTTPHandler) ApplyEntry(c *gin.Context) {
	var req inventory.ApplyEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.Actor = middleware.Actor(c)

	entry, err := s.inventory.ApplyEntry(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, entry)
}

func (s *InventoryHTTPHandler) ListEntries(c *gin.Context) {
	entries, err := s.inventory.ListEntries(c.Request.Context(), parseDateRange(c))
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, entries)
}

// Specification endpoints

func (s *InventoryHTTPHandler) SetRequirement(c *gin.Context) {
	var req inventory.SetRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	spec, err := s.inventory.SetRequirement(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, spec)
}

func (s *InventoryHTTPHandler) RemoveAllForProduct(c *gin.Context) {
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := s.inventory.RemoveAllForProduct(c.Request.Context(), productID); err != nil {
		writeError(c, err)
		return
	}

	success(c, gin.H{"product_id": productID})
}

func (s *InventoryHTTPHandler) RequirementsFor(c *gin.Context) {
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	specs, err := s.inventory.RequirementsFor(c.Request.Context(), productID)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, specs)
}

func (s *InventoryHTTPHandler) ListSpecifications(c *gin.Context) {
	specs, err := s.inventory.ListSpecifications(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, specs)
}
