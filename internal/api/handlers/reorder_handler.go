package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/retailops/replenish/internal/service"
)

type ReorderHandler struct {
	service *service.ReorderService
}

func NewReorderHandler(service *service.ReorderService) *ReorderHandler {
	return &ReorderHandler{service: service}
}

type evaluateRequest struct {
	StoreID    string `json:"store_id" binding:"required"`
	SupplierID string `json:"supplier_id" binding:"required"`
	ProductID  string `json:"product_id" binding:"required"`
}

// Evaluate runs one reorder evaluation for a supplier product.
func (h *ReorderHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recommendation, err := h.service.EvaluateProduct(c.Request.Context(), req.StoreID, req.SupplierID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendation)
}

// Batch evaluates every product a supplier serves for a store and returns
// PO-ready suggestion batches.
func (h *ReorderHandler) Batch(c *gin.Context) {
	storeID, supplierID, ok := requireSupplierPair(c)
	if !ok {
		return
	}

	suggestions, err := h.service.BatchReorder(c.Request.Context(), storeID, supplierID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Export runs a batch and uploads the suggestion CSVs to object storage.
func (h *ReorderHandler) Export(c *gin.Context) {
	storeID, supplierID, ok := requireSupplierPair(c)
	if !ok {
		return
	}

	suggestions, err := h.service.BatchReorder(c.Request.Context(), storeID, supplierID)
	if err != nil {
		respondError(c, err)
		return
	}

	keys, err := h.service.ExportSuggestions(c.Request.Context(), suggestions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exported": keys})
}

// Stores lists the stores under management.
func (h *ReorderHandler) Stores(c *gin.Context) {
	stores, err := h.service.Stores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// Suppliers lists the suppliers a store orders from.
func (h *ReorderHandler) Suppliers(c *gin.Context) {
	suppliers, err := h.service.Suppliers(c.Request.Context(), c.Param("store"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

func requireSupplierPair(c *gin.Context) (string, string, bool) {
	storeID := strings.TrimSpace(c.Query("store_id"))
	supplierID := strings.TrimSpace(c.Query("supplier_id"))
	if storeID == "" || supplierID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id and supplier_id are required"})
		return "", "", false
	}

	return storeID, supplierID, true
}
