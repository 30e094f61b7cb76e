package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/registry"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/profilestore"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/rates"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/restapi"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/logger"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/metrics"
)

func main() {
	cfgPath := os.Getenv("CRYPTOMONITOR_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck
	logger.SetSlogDefault(log)

	log.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegister()

	reg := registry.New(cfg, log)
	store := profilestore.New(cfg.Profile.Path)
	rateProvider := rates.NewCMCRateProvider(cfg.CoinMarketCap, cfg.RateCache, log)

	handler := restapi.NewHandler(cfg, reg, store, rateProvider, log)
	router := restapi.SetupRouter(handler, log)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}
