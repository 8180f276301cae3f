package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NiceArti/Marketplace/internal/adapter/httpapi"
	"github.com/NiceArti/Marketplace/internal/adapter/messaging/nats"
	redisadapter "github.com/NiceArti/Marketplace/internal/adapter/repository/cache"
	"github.com/NiceArti/Marketplace/internal/adapter/repository/memory"
	"github.com/NiceArti/Marketplace/internal/adapter/repository/mongodb"
	"github.com/NiceArti/Marketplace/internal/adapter/token"
	"github.com/NiceArti/Marketplace/internal/config"
	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/marketplace/usecase"
	"github.com/NiceArti/Marketplace/internal/platform/logger"
	"github.com/NiceArti/Marketplace/internal/platform/metrics"
	"github.com/NiceArti/Marketplace/internal/port/cache"
	"github.com/NiceArti/Marketplace/internal/port/repository"
)

func main() {
	appLogger, err := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer appLogger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		appLogger.Fatal("Failed to load config", zap.Error(err))
	}

	// Ledger store.
	var itemRepo repository.ItemRepository
	switch cfg.Storage.Driver {
	case "mongo":
		mongoClient, err := mongodb.NewMongoDBConnection(&cfg.Mongo)
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				appLogger.Error("Failed to disconnect MongoDB client", zap.Error(err))
			}
		}()
		itemRepo = mongodb.NewItemMongoRepository(mongoClient, cfg.Mongo.Database)
		appLogger.Info("Using MongoDB ledger store", zap.String("database", cfg.Mongo.Database))
	default:
		itemRepo = memory.NewItemRepository()
		appLogger.Info("Using in-memory ledger store")
	}

	// Redis read cache, optional.
	var cacheRepo cache.CacheRepository
	if cfg.Redis.Address != "" {
		redisClient, err := redisadapter.NewRedisClient(&cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without read cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = redisadapter.NewRedisCacheRepository(redisClient, appLogger)
		}
	}

	// NATS event publisher, optional.
	var publisher usecase.EventPublisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := nats.NewNATSPublisher(&cfg.NATS, appLogger)
		if err != nil {
			appLogger.Warn("NATS unavailable, running without event publishing", zap.Error(err))
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
		}
	}

	// Collaborator token contracts.
	directory := token.NewDirectory()
	internal721, _ := directory.DeployNFT("Marketplace Items", "MKT")
	internal1155, _ := directory.DeployMultiToken()
	paymentAddr, _ := directory.DeployPayment("Marketplace Gold", "GOLD")
	bank := token.NewBank()
	appLogger.Info("Deployed internal token contracts",
		zap.String("nft", string(internal721)),
		zap.String("multi_token", string(internal1155)),
		zap.String("payment_token", string(paymentAddr)),
	)

	uc := usecase.NewMarketplaceUseCase(
		itemRepo, directory, bank, publisher, cacheRepo, domain.SystemClock(),
		usecase.MarketplaceConfig{
			MarketAddress:   domain.Address(cfg.Market.Address),
			Internal721:     internal721,
			Internal1155:    internal1155,
			AuctionDuration: cfg.Market.AuctionDuration,
			CacheTTL:        cfg.Market.CacheTTL,
		}, appLogger)

	mm := metrics.NewMetricsManager("marketplace")
	if cfg.Metrics.Port != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port, appLogger, mm.Registry); err != nil && err != http.ErrServerClosed {
				appLogger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	handler := httpapi.NewMarketplaceHandler(uc, mm, appLogger)
	mux := chi.NewRouter()
	httpapi.SetupMarketplaceRoutes(mux, handler, cfg.HTTP.JWTSecret, appLogger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: mux,
	}

	go func() {
		appLogger.Info("Starting marketplace HTTP server", zap.String("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down marketplace server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
