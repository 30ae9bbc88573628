package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adforgehq/adforge-backend/internal/cron"
	"github.com/adforgehq/adforge-backend/internal/deletionqueue"
	"github.com/adforgehq/adforge-backend/internal/reconciler"
	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/db"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/metrics"
	"github.com/adforgehq/adforge-backend/pkg/migrate"
	"github.com/adforgehq/adforge-backend/pkg/redis"
	"github.com/adforgehq/adforge-backend/pkg/storage"
	"github.com/adforgehq/adforge-backend/pkg/storage/gdrive"
	"github.com/adforgehq/adforge-backend/pkg/storage/supabase"
)

const lockKeyFormat = "af:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	queueRepo := deletionqueue.NewRepository(dbClient.DB())
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
		reconciler.NewRepository(dbClient.DB()),
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

	drainJob, err := cron.NewDeletionDrainJob(cron.DeletionDrainJobParams{Logger: logg, Queue: queueService})
	if err != nil {
		logg.Error(context.Background(), "failed to create drain job", err)
		os.Exit(1)
	}
	staleJob, err := cron.NewStaleProcessingJob(cron.StaleProcessingJobParams{Logger: logg, Queue: queueService})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale processing job", err)
		os.Exit(1)
	}
	reconcileJob, err := cron.NewOrphanReconcileJob(cron.OrphanReconcileJobParams{
		Logger:     logg,
		Reconciler: reconcilerService,
		Execute:    cfg.Reconciler.CronExecuteDelete,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(staleJob, drainJob, reconcileJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

// buildStorageRouter mirrors the API wiring: every configured backend is
// registered so queue drains and sweeps can reach legacy objects.
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
