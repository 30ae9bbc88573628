package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/adforgehq/adforge-backend/api/responses"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
)

const cronSecretHeader = "X-Cron-Secret"

// CronSecret guards scheduler-invoked endpoints with a shared secret header.
// These routes bypass JWT auth so an external cron can hit them directly.
func CronSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cron endpoints disabled"))
				return
			}

			provided := strings.TrimSpace(r.Header.Get(cronSecretHeader))
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid cron secret"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
