package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adforgehq/adforge-backend/api/controllers"
	"github.com/adforgehq/adforge-backend/api/middleware"
	"github.com/adforgehq/adforge-backend/internal/assets"
	"github.com/adforgehq/adforge-backend/internal/categories"
	"github.com/adforgehq/adforge-backend/internal/deletionqueue"
	"github.com/adforgehq/adforge-backend/internal/generation"
	"github.com/adforgehq/adforge-backend/internal/products"
	"github.com/adforgehq/adforge-backend/internal/reconciler"
	pkgauth "github.com/adforgehq/adforge-backend/pkg/auth"
	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/db"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/redis"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storageRouter *storage.Router,
	categoryService categories.Service,
	productService products.Service,
	assetService assets.Service,
	generationService *generation.Service,
	queueService *deletionqueue.Service,
	reconcilerService *reconciler.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var adapters []storage.Adapter
	if storageRouter != nil {
		adapters = storageRouter.Adapters()
	}
	var cache db.Pinger
	if redisClient != nil {
		cache = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache, adapters...))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/categories", func(r chi.Router) {
			r.Post("/", controllers.CategoryCreate(categoryService, logg))
			r.Get("/", controllers.CategoryList(categoryService, logg))
			r.Get("/{categoryId}", controllers.CategoryGet(categoryService, logg))
			r.Patch("/{categoryId}", controllers.CategoryUpdate(categoryService, logg))
			r.Delete("/{categoryId}", controllers.CategoryDelete(categoryService, logg))
			r.Post("/{categoryId}/products", controllers.ProductCreate(productService, logg))
			r.Get("/{categoryId}/products", controllers.ProductList(productService, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/{productId}", controllers.ProductGet(productService, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(productService, logg))
			r.Delete("/{productId}", controllers.ProductDelete(productService, logg))
		})

		r.Route("/v1/assets", func(r chi.Router) {
			r.Post("/", controllers.AssetUpload(assetService, logg, cfg.Upload.MaxUploadBytes()))
			r.Get("/", controllers.AssetList(assetService, logg))
			r.Get("/{assetId}", controllers.AssetGet(assetService, logg))
			r.Delete("/{assetId}", controllers.AssetDelete(assetService, logg))
		})

		r.Post("/v1/generate", controllers.GenerateAsset(generationService, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(pkgauth.RoleAdmin, logg))
		r.Get("/ping", controllers.AdminPing())
		r.Route("/v1", func(r chi.Router) {
			r.Post("/deletion-queue/drain", controllers.DeletionQueueDrain(queueService, logg))
			r.Get("/deletion-queue/status", controllers.DeletionQueueStatus(queueService, logg))
			r.Post("/reconcile", controllers.ReconcileRun(reconcilerService, logg))
			r.Get("/reconcile/status", controllers.ReconcileStatus(reconcilerService, logg))
		})
	})

	// Scheduler-facing mirror of the admin maintenance ops, guarded by the
	// shared cron secret instead of a JWT.
	r.Route("/api/cron/v1", func(r chi.Router) {
		r.Use(middleware.CronSecret(cfg.Admin.CronSecret, logg))
		r.Post("/deletion-queue/drain", controllers.DeletionQueueDrain(queueService, logg))
		r.Post("/reconcile", controllers.ReconcileRun(reconcilerService, logg))
	})

	return r
}
