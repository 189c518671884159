// cmd/replenish/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/retailops/replenish/internal/cache"
	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/forecast"
	"github.com/retailops/replenish/internal/repository/postgres"
	"github.com/retailops/replenish/internal/service"
	"github.com/retailops/replenish/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newStoreFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "store",
		Usage:    "Store id",
		Required: true,
	}
}

func newSupplierFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "supplier",
		Usage:    "Supplier id",
		Required: true,
	}
}

// buildServices wires the in-memory model catalog and both services over one
// database connection. The CLI always trains before it evaluates, since
// models live in process memory.
func buildServices(c *cli.Context, exports storage.ObjectStorage) (*service.ForecastService, *service.ReorderService, *sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cfg := config.Load()

	forecaster := forecast.New(forecast.Options{
		Backend:         cfg.Forecast.Backend,
		SeasonalityMode: cfg.Forecast.SeasonalityMode,
		Holidays:        cfg.Forecast.Holidays,
		CV: forecast.CVConfig{
			InitialDays: cfg.Forecast.CVInitialDays,
			PeriodDays:  cfg.Forecast.CVPeriodDays,
			HorizonDays: cfg.Forecast.CVHorizonDays,
		},
	})
	catalog := forecast.NewCatalog(forecaster)

	forecastService := service.NewForecastService(
		catalog,
		postgres.NewHistoryRepository(db),
		cache.NewNoopForecastCache(),
		cfg.Forecast,
	)
	reorderService := service.NewReorderService(
		forecastService,
		postgres.NewInventoryRepository(db),
		postgres.NewSupplierCatalogRepository(db, cfg.Reorder),
		postgres.NewStoreRepository(db),
		exports,
	)

	return forecastService, reorderService, db, nil
}

func runTrain(c *cli.Context) error {
	forecasts, _, db, err := buildServices(c, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	storeID := c.String("store")

	var results []forecast.TrainResult
	if products := c.String("products"); products != "" {
		productIDs := splitList(products)
		results, err = forecasts.TrainProducts(c.Context, storeID, productIDs)
	} else {
		results, err = forecasts.TrainStore(c.Context, storeID)
	}
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	trained := 0
	for _, result := range results {
		if result.Err == nil {
			trained++
		}
		if err := encoder.Encode(result); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "trained %d/%d models\n", trained, len(results))
	return nil
}

// trainSupplierProducts trains every product a supplier serves so batch
// evaluation has a published model per product.
func trainSupplierProducts(c *cli.Context, forecasts *service.ForecastService, db *sqlx.DB, storeID, supplierID string) error {
	catalog := postgres.NewSupplierCatalogRepository(db, config.Load().Reorder)
	products, err := catalog.ListSupplierProducts(c.Context, storeID, supplierID)
	if err != nil {
		return err
	}

	productIDs := make([]string, 0, len(products))
	for _, product := range products {
		productIDs = append(productIDs, product.ProductID)
	}

	_, err = forecasts.TrainProducts(c.Context, storeID, productIDs)
	return err
}

func runEvaluate(c *cli.Context) error {
	forecasts, reorders, db, err := buildServices(c, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	storeID := c.String("store")
	supplierID := c.String("supplier")

	if err := trainSupplierProducts(c, forecasts, db, storeID, supplierID); err != nil {
		return err
	}

	suggestions, err := reorders.BatchReorder(c.Context, storeID, supplierID)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("output"); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	for _, suggestion := range suggestions {
		payload, err := service.RenderSuggestionCSV(suggestion)
		if err != nil {
			return err
		}
		if _, err := out.Write(payload); err != nil {
			return err
		}
	}

	return nil
}

func runExport(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return fmt.Errorf("object storage is not enabled; set STORAGE_ENABLED=true")
	}

	exports, err := storage.NewMinioStorage(cfg.Storage)
	if err != nil {
		return err
	}

	forecasts, reorders, db, err := buildServices(c, exports)
	if err != nil {
		return err
	}
	defer db.Close()

	storeID := c.String("store")
	supplierID := c.String("supplier")

	if err := trainSupplierProducts(c, forecasts, db, storeID, supplierID); err != nil {
		return err
	}

	suggestions, err := reorders.BatchReorder(c.Context, storeID, supplierID)
	if err != nil {
		return err
	}

	keys, err := reorders.ExportSuggestions(c.Context, suggestions)
	if err != nil {
		return err
	}

	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "replenish",
		Usage: "Train demand forecast models and generate reorder suggestions",
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "Train forecast models from sales history",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newStoreFlag(),
					&cli.StringFlag{
						Name:  "products",
						Usage: "Comma-separated product ids (default: all with enough history)",
					},
				},
				Action: runTrain,
			},
			{
				Name:  "evaluate",
				Usage: "Generate supplier reorder suggestions as CSV",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newStoreFlag(),
					newSupplierFlag(),
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output file path, or - for stdout",
						Value: "-",
					},
				},
				Action: runEvaluate,
			},
			{
				Name:  "export",
				Usage: "Generate supplier reorder suggestions and upload CSVs to object storage",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newStoreFlag(),
					newSupplierFlag(),
				},
				Action: runExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
