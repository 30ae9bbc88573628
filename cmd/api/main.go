package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/adforgehq/adforge-backend/api/routes"
	"github.com/adforgehq/adforge-backend/internal/assets"
	"github.com/adforgehq/adforge-backend/internal/categories"
	"github.com/adforgehq/adforge-backend/internal/deletionqueue"
	"github.com/adforgehq/adforge-backend/internal/generation"
	"github.com/adforgehq/adforge-backend/internal/products"
	"github.com/adforgehq/adforge-backend/internal/reconciler"
	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/db"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/migrate"
	"github.com/adforgehq/adforge-backend/pkg/redis"
	"github.com/adforgehq/adforge-backend/pkg/storage"
	"github.com/adforgehq/adforge-backend/pkg/storage/gdrive"
	"github.com/adforgehq/adforge-backend/pkg/storage/supabase"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storageRouter, err := buildStorageRouter(context.Background(), cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}

	assetRepo := assets.NewRepository(dbClient.DB())
	categoryRepo := categories.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	queueRepo := deletionqueue.NewRepository(dbClient.DB())
	reconcilerRepo := reconciler.NewRepository(dbClient.DB())

	categoryService, err := categories.NewService(categoryRepo, productRepo, assetRepo, queueRepo, dbClient, cfg.Queue.MaxRetries)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo, categoryRepo, assetRepo, queueRepo, dbClient, cfg.Queue.MaxRetries)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	assetService, err := assets.NewService(
		assetRepo,
		categoryRepo,
		productRepo,
		queueRepo,
		dbClient,
		storageRouter.Default(),
		logg,
		cfg.Upload.MaxUploadBytes(),
		cfg.Queue.MaxRetries,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create asset service", err)
		os.Exit(1)
	}

	copywriter, err := generation.NewCopywriter()
	if err != nil {
		logg.Error(context.Background(), "failed to create copywriter", err)
		os.Exit(1)
	}
	generationService, err := generation.NewService(assetService, copywriter)
	if err != nil {
		logg.Error(context.Background(), "failed to create generation service", err)
		os.Exit(1)
	}

	queueService, err := deletionqueue.NewService(queueRepo, storageRouter, logg, cfg.Queue.BatchSize, cfg.Queue.ProcessingLease)
	if err != nil {
		logg.Error(context.Background(), "failed to create deletion queue service", err)
		os.Exit(1)
	}

	orphanPolicy, err := enums.ParseOrphanPolicy(cfg.Reconciler.OrphanPolicy)
	if err != nil {
		logg.Error(context.Background(), "invalid orphan policy", err)
		os.Exit(1)
	}
	reconcilerService, err := reconciler.NewService(
		reconcilerRepo,
		storageRouter,
		logg,
		orphanPolicy,
		cfg.Reconciler.ThrottleEvery,
		cfg.Reconciler.ThrottlePause,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"provider": storageRouter.DefaultProvider().String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			storageRouter,
			categoryService,
			productService,
			assetService,
			generationService,
			queueService,
			reconcilerService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildStorageRouter wires every configured backend. Google Drive is the
// primary store; Supabase stays registered so legacy rows remain readable
// and deletable.
func buildStorageRouter(ctx context.Context, cfg *config.Config) (*storage.Router, error) {
	var adapters []storage.Adapter

	if cfg.GDrive.RootFolderID != "" {
		driveAdapter, err := gdrive.New(ctx, cfg.GDrive)
		if err != nil {
			return nil, fmt.Errorf("bootstrap gdrive adapter: %w", err)
		}
		adapters = append(adapters, driveAdapter)
	}

	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceRoleKey != "" {
		supabaseAdapter, err := supabase.New(cfg.Supabase)
		if err != nil {
			return nil, fmt.Errorf("bootstrap supabase adapter: %w", err)
		}
		adapters = append(adapters, supabaseAdapter)
	}

	defaultProvider, err := enums.ParseStorageProvider(cfg.Storage.DefaultProvider)
	if err != nil {
		return nil, err
	}
	return storage.NewRouter(defaultProvider, adapters...)
}
