package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type trainRequest struct {
	StoreID   string `json:"store_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
}

// Train fits and publishes a new model version for one (store, product) pair.
func (h *ForecastHandler) Train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.service.Train(c.Request.Context(), req.StoreID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

type trainBatchRequest struct {
	StoreID    string   `json:"store_id" binding:"required"`
	ProductIDs []string `json:"product_ids"`
}

// TrainBatch trains a list of products (or every product with enough history
// when the list is empty) on the bounded worker pool. It always returns 200
// with per-product outcomes; individual failures are reported inline.
func (h *ForecastHandler) TrainBatch(c *gin.Context) {
	var req trainBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		results interface{}
		err     error
	)
	if len(req.ProductIDs) > 0 {
		results, err = h.service.TrainProducts(c.Request.Context(), req.StoreID, req.ProductIDs)
	} else {
		results, err = h.service.TrainStore(c.Request.Context(), req.StoreID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Get returns the quantile forecast series from the current model version.
func (h *ForecastHandler) Get(c *gin.Context) {
	storeID, productID, ok := requirePair(c)
	if !ok {
		return
	}

	horizon := 0
	if raw := strings.TrimSpace(c.Query("horizon_days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "horizon_days must be a positive integer"})
			return
		}
		horizon = parsed
	}

	asOf := time.Time{}
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be formatted YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	points, version, err := h.service.Forecast(c.Request.Context(), storeID, productID, asOf, horizon)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id":   storeID,
		"product_id": productID,
		"version":    version,
		"points":     points,
	})
}

// Versions lists the append-only model version log, oldest first.
func (h *ForecastHandler) Versions(c *gin.Context) {
	storeID, productID, ok := requirePair(c)
	if !ok {
		return
	}

	versions, err := h.service.Versions(storeID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// Metrics recomputes cross-validated metrics for the current model version.
func (h *ForecastHandler) Metrics(c *gin.Context) {
	storeID, productID, ok := requirePair(c)
	if !ok {
		return
	}

	var metrics domain.ModelMetrics
	var err error
	if versionID := strings.TrimSpace(c.Query("version_id")); versionID != "" {
		var version domain.ModelVersion
		version, err = h.service.Version(storeID, productID, versionID)
		metrics = version.Metrics
	} else {
		metrics, err = h.service.Evaluate(c.Request.Context(), storeID, productID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func requirePair(c *gin.Context) (string, string, bool) {
	storeID := strings.TrimSpace(c.Query("store_id"))
	productID := strings.TrimSpace(c.Query("product_id"))
	if storeID == "" || productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id and product_id are required"})
		return "", "", false
	}

	return storeID, productID, true
}
