package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/logger"
)

func testRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-secret", Issuer: "adforge-test", ExpirationMinutes: 10}
	cfg.Admin.CronSecret = "cron-secret"
	cfg.Upload.MaxUploadMB = 20

	logg := logger.New(logger.Options{Output: io.Discard})
	return NewRouter(cfg, logg, nil, nil, nil, nil, nil, nil, nil, nil, nil)
}

func TestHealthLiveRoute(t *testing.T) {
	t.Parallel()

	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-AdForge-Env") != "test" {
		t.Fatalf("env header = %q", rec.Header().Get("X-AdForge-Env"))
	}
}

func TestPublicPingRoute(t *testing.T) {
	t.Parallel()

	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	router := testRouter()
	for _, target := range []string{"/api/ping", "/api/v1/categories", "/api/v1/assets"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", target, rec.Code)
		}
	}
}

func TestCronRoutesRequireSecret(t *testing.T) {
	t.Parallel()

	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/v1/deletion-queue/drain", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
