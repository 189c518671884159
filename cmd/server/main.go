// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailops/replenish/internal/api"
	"github.com/retailops/replenish/internal/cache"
	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/forecast"
	"github.com/retailops/replenish/internal/repository/postgres"
	"github.com/retailops/replenish/internal/service"
	"github.com/retailops/replenish/internal/storage"
	"github.com/retailops/replenish/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}

	var exports storage.ObjectStorage
	if cfg.Storage.Enabled {
		exports, err = storage.NewMinioStorage(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
	}

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

	historyRepo := postgres.NewHistoryRepository(db.DB)
	inventoryRepo := postgres.NewInventoryRepository(db.DB)
	supplierRepo := postgres.NewSupplierCatalogRepository(db.DB, cfg.Reorder)
	storeRepo := postgres.NewStoreRepository(db.DB)

	forecastService := service.NewForecastService(catalog, historyRepo, forecastCache, cfg.Forecast)
	reorderService := service.NewReorderService(forecastService, inventoryRepo, supplierRepo, storeRepo, exports)

	router := api.NewRouter(&api.Services{
		ForecastService: forecastService,
		ReorderService:  reorderService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
