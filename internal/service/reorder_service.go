package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/reorder"
	"github.com/retailops/replenish/internal/repository"
	"github.com/retailops/replenish/internal/storage"
)

// ErrStorageNotConfigured is returned by export operations when no object
// storage backend was wired in (STORAGE_ENABLED=false).
var ErrStorageNotConfigured = errors.New("object storage not configured")

// ReorderService evaluates reorder recommendations product by product and
// assembles them into supplier-level suggestion batches.
type ReorderService struct {
	forecasts *ForecastService
	inventory repository.InventoryRepository
	catalog   repository.SupplierCatalogRepository
	stores    repository.StoreRepository
	engine    *reorder.Engine
	assembler *reorder.Assembler
	exports   storage.ObjectStorage
	now       func() time.Time
}

func NewReorderService(
	forecasts *ForecastService,
	inventory repository.InventoryRepository,
	catalog repository.SupplierCatalogRepository,
	stores repository.StoreRepository,
	exports storage.ObjectStorage,
) *ReorderService {
	return &ReorderService{
		forecasts: forecasts,
		inventory: inventory,
		catalog:   catalog,
		stores:    stores,
		engine:    reorder.NewEngine(),
		assembler: reorder.NewAssembler(),
		exports:   exports,
		now:       time.Now,
	}
}

// Stores lists the stores under management.
func (s *ReorderService) Stores(ctx context.Context) ([]domain.Store, error) {
	return s.stores.ListStores(ctx)
}

// Suppliers lists the suppliers a store orders from.
func (s *ReorderService) Suppliers(ctx context.Context, storeID string) ([]domain.Supplier, error) {
	return s.stores.ListSuppliers(ctx, storeID)
}

// Evaluate runs one reorder evaluation for a supplier product: inventory
// snapshot plus the lead-time forecast window through the engine.
func (s *ReorderService) Evaluate(ctx context.Context, product domain.SupplierProduct) (domain.ReorderRecommendation, error) {
	position, err := s.inventory.Position(ctx, product.StoreID, product.ProductID)
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	points, _, err := s.forecasts.Forecast(ctx, product.StoreID, product.ProductID, s.now().UTC(), product.Config.LeadTimeDays)
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	return s.engine.Evaluate(reorder.Input{
		StoreID:    product.StoreID,
		ProductID:  product.ProductID,
		SupplierID: product.SupplierID,
		Position:   position,
		Forecast:   points,
		Config:     product.Config,
		UnitCost:   product.UnitCost,
	})
}

// EvaluateProduct looks a product up in the supplier catalog and evaluates it.
func (s *ReorderService) EvaluateProduct(ctx context.Context, storeID, supplierID, productID string) (domain.ReorderRecommendation, error) {
	products, err := s.catalog.ListSupplierProducts(ctx, storeID, supplierID)
	if err != nil {
		return domain.ReorderRecommendation{}, err
	}

	for _, product := range products {
		if product.ProductID == productID {
			return s.Evaluate(ctx, product)
		}
	}

	return domain.ReorderRecommendation{}, domain.NewValidationError("product_id",
		fmt.Sprintf("product %s is not supplied by %s for store %s", productID, supplierID, storeID))
}

// BatchReorder evaluates every product a supplier serves for a store and
// batches the positive recommendations into PO-ready suggestions. A failure on
// one product is logged and skipped; it never aborts the batch.
func (s *ReorderService) BatchReorder(ctx context.Context, storeID, supplierID string) ([]domain.SupplierSuggestion, error) {
	products, err := s.catalog.ListSupplierProducts(ctx, storeID, supplierID)
	if err != nil {
		return nil, err
	}

	recommendations := make([]domain.ReorderRecommendation, 0, len(products))
	for _, product := range products {
		rec, err := s.Evaluate(ctx, product)
		if err != nil {
			log.Warn().Err(err).
				Str("store_id", product.StoreID).
				Str("supplier_id", product.SupplierID).
				Str("product_id", product.ProductID).
				Msg("skipping product in reorder batch")
			continue
		}
		recommendations = append(recommendations, rec)
	}

	suggestions := s.assembler.Assemble(recommendations)

	log.Info().
		Str("store_id", storeID).
		Str("supplier_id", supplierID).
		Int("products", len(products)).
		Int("suggestions", len(suggestions)).
		Msg("reorder batch complete")

	return suggestions, nil
}

// ExportSuggestions renders suggestion batches to CSV and uploads them to
// object storage. It returns the object keys written, one per batch.
func (s *ReorderService) ExportSuggestions(ctx context.Context, suggestions []domain.SupplierSuggestion) ([]string, error) {
	if s.exports == nil {
		return nil, ErrStorageNotConfigured
	}

	keys := make([]string, 0, len(suggestions))
	for _, suggestion := range suggestions {
		payload, err := RenderSuggestionCSV(suggestion)
		if err != nil {
			return keys, err
		}

		key := fmt.Sprintf("suggestions/%s/%s_%s.csv",
			suggestion.GeneratedAt.UTC().Format("2006-01-02"),
			suggestion.SupplierID,
			suggestion.StoreID)

		if err := s.exports.UploadObject(ctx, key, bytes.NewReader(payload), int64(len(payload)), "text/csv"); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// RenderSuggestionCSV renders one suggestion batch as a CSV document with a
// header row followed by one row per line.
func RenderSuggestionCSV(suggestion domain.SupplierSuggestion) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"supplier_id", "store_id", "product_id", "suggested_quantity", "unit_cost", "total_cost", "urgency", "rationale"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("could not write csv header: %w", err)
	}

	for _, line := range suggestion.Lines {
		record := []string{
			suggestion.SupplierID,
			suggestion.StoreID,
			line.ProductID,
			strconv.FormatInt(line.SuggestedQuantity, 10),
			line.UnitCost.StringFixed(2),
			line.TotalCost.StringFixed(2),
			string(line.Urgency),
			line.Rationale,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("could not write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("could not flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
