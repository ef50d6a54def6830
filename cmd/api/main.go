// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/analytics"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/infrastructure/database/sqlstore"
	"github.com/your-org/storefront/internal/infrastructure/kv"
	"github.com/your-org/storefront/internal/infrastructure/persistence"
	"github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

const (
	janitorInterval = 5 * time.Minute
	cartIdleTimeout = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	logr.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	db, err := sqlstore.NewConnection(cfg, logr)
	if err != nil {
		logr.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Health(context.Background()); err != nil {
		logr.Fatalf("Database health check failed: %v", err)
	}

	migration := sqlstore.NewMigration(db.GetDB(), logr)
	if err := migration.RunAutoMigrations(); err != nil {
		logr.Fatalf("Database migration failed: %v", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		logr.Warnf("Index creation failed: %v", err)
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			logr.Warnf("Data seeding failed: %v", err)
		}
	}

	deps := http.Dependencies{Database: db}

	var store kv.Store
	switch cfg.Storage.CartBackend {
	case "redis":
		redisClient, err := redis.NewConnection(cfg, logr)
		if err != nil {
			logr.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		store = kv.NewRedisStore(redisClient.GetClient(), cfg.Storage.SessionTTL)
		deps.Redis = redisClient.GetClient()
		deps.RedisHealth = redisClient
	case "file":
		store, err = kv.NewFileStore(cfg.Storage.FileDir)
		if err != nil {
			logr.Fatalf("Failed to open cart storage: %v", err)
		}
	default:
		logr.Warn("⚠️ Guest carts are kept in memory and lost on restart")
		store = kv.NewMemoryStore()
	}
	logr.WithField("backend", cfg.Storage.CartBackend).Info("🛒 Cart storage ready")

	deps.Services = buildServices(cfg, db, store, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go deps.Services.Carts.RunJanitor(ctx, janitorInterval, cartIdleTimeout)

	server, err := http.NewServer(cfg, deps, logr)
	if err != nil {
		logr.Fatalf("Failed to create HTTP server: %v", err)
	}

	logr.Info("✅ All systems operational!")

	go func() {
		if err := server.Start(); err != nil {
			logr.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	logr.Info("👋 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logr.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	logr.Info("✅ Server shutdown completed")
}

func buildServices(cfg *config.Config, db *sqlstore.DB, store kv.Store, log *logrus.Logger) routes.Services {
	gormDB := db.GetDB()

	carts := cart.NewRegistry(persistence.CartPersisterFactory(store, log), log)
	vouchers := voucher.NewService(gormDB, log)
	orders := order.NewService(gormDB, log)
	tokens := auth.NewJWTManager(cfg)

	sellers := auth.NewSellerAuthenticator(cfg, auth.NewPasswordManager(cfg.Security.BcryptCost), tokens)
	if !sellers.Enabled() {
		log.Warn("⚠️ SELLER_PASSWORD_HASH is not set, seller login is disabled")
	}

	return routes.Services{
		Carts:    carts,
		Catalog:  catalog.NewService(gormDB),
		Vouchers: vouchers,
		Orders:   orders,
		Checkout: checkout.NewService(carts, vouchers, persistence.NewVoucherSelection(store, log), orders, cfg.Store, log),
		Invoices: pdf.NewService(cfg),
		Sales:    analytics.NewService(gormDB),
		Sellers:  sellers,
		Tokens:   tokens,
	}
}
