package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/adforgehq/adforge-backend/api/responses"
	"github.com/adforgehq/adforge-backend/api/validators"
	"github.com/adforgehq/adforge-backend/internal/deletionqueue"
	"github.com/adforgehq/adforge-backend/internal/reconciler"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
)

type queueAdmin interface {
	Drain(ctx context.Context) (*deletionqueue.DrainResult, error)
	Status(ctx context.Context) (*deletionqueue.QueueStatus, error)
}

type reconcileAdmin interface {
	Reconcile(ctx context.Context, opts reconciler.Options) (*reconciler.Result, error)
	Status(ctx context.Context) (map[enums.AssetKind]int64, error)
	LastRun() *reconciler.Result
}

// DeletionQueueDrain handles POST /api/admin/v1/deletion-queue/drain.
// It processes one batch synchronously and reports the outcome.
func DeletionQueueDrain(svc queueAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Drain(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeletionQueueStatus handles GET /api/admin/v1/deletion-queue/status.
func DeletionQueueStatus(svc queueAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

type reconcileRequest struct {
	// DryRun defaults to true; destructive sweeps must opt in explicitly.
	DryRun *bool    `json:"dry_run"`
	Kinds  []string `json:"kinds" validate:"max=10"`
}

// ReconcileRun handles POST /api/admin/v1/reconcile. Without an explicit
// {"dry_run": false} the sweep only reports what it would delete.
func ReconcileRun(svc reconcileAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reconcileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := reconciler.Options{DryRun: true}
		if payload.DryRun != nil {
			opts.DryRun = *payload.DryRun
		}

		for _, raw := range payload.Kinds {
			kind, err := enums.ParseAssetKind(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			opts.Kinds = append(opts.Kinds, kind)
		}

		result, err := svc.Reconcile(r.Context(), opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ReconcileStatus handles GET /api/admin/v1/reconcile/status. It reports
// per-kind record counts plus the most recent sweep result (null before the
// first run).
func ReconcileStatus(svc reconcileAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"counts":   counts,
			"last_run": svc.LastRun(),
		})
	}
}
