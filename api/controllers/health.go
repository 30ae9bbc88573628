package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/adforgehq/adforge-backend/api/responses"
	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

const readyCheckTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AdForge-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes every dependency the API needs to serve traffic:
// the database, redis, and each configured storage backend.
func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, cache pinger, adapters ...storage.Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AdForge-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, p pinger) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "component", name), "readiness probe failed", err)
				}
				return
			}
			checks[name] = "up"
		}

		probe("database", db)
		probe("redis", cache)
		for _, adapter := range adapters {
			if adapter == nil {
				continue
			}
			probe("storage:"+string(adapter.Provider()), adapter)
		}

		status := "ready"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
