package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_narratives/internal/config"
	"github.com/vitos/crypto_narratives/internal/domain"
	"github.com/vitos/crypto_narratives/internal/infrastructure/binance"
	"github.com/vitos/crypto_narratives/internal/infrastructure/logger"
	"github.com/vitos/crypto_narratives/internal/infrastructure/storage"
	"github.com/vitos/crypto_narratives/internal/metrics"
	"github.com/vitos/crypto_narratives/internal/usecase"
	"github.com/vitos/crypto_narratives/internal/web"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Archive (optional)
	var archive domain.SnapshotArchive
	if cfg.Archive.Path != "" {
		store, err := storage.NewSQLiteStore(cfg.Archive.Path)
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.Error(err))
		}
		defer store.Close()
		archive = store
		log.Info("Archiving derivatives snapshots", zap.String("path", cfg.Archive.Path))
	}

	// 4. Init Service
	m := metrics.New("tracker")
	client := binance.NewFuturesDataClient(cfg.Binance.RESTEndpoint, cfg.BinanceTimeout())
	svc := usecase.NewTrackerService(client, archive, usecase.TrackerConfig{
		Symbol:            cfg.Binance.Symbol,
		Period:            cfg.Binance.Period,
		OpenInterestLimit: cfg.Binance.OpenInterestRows,
		LiquidationLimit:  cfg.Binance.LiquidationRows,
	}, m, log)

	// 5. Start Server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewTrackerServer(cfg.Server.Port, svc, archive, cfg.RefreshInterval(), m, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
		}
		return
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
}
