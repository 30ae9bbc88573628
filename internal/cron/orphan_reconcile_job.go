package cron

import (
	"context"
	"fmt"

	"github.com/adforgehq/adforge-backend/internal/reconciler"
	"github.com/adforgehq/adforge-backend/pkg/logger"
)

type orphanReconciler interface {
	Reconcile(ctx context.Context, opts reconciler.Options) (*reconciler.Result, error)
}

// OrphanReconcileJobParams configure the scheduled sweep.
type OrphanReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler orphanReconciler
	// Execute enables metadata deletion; the default scheduled sweep only
	// reports, leaving destructive runs to an explicit admin call.
	Execute bool
}

// NewOrphanReconcileJob builds the job that sweeps metadata against
// storage once per cron cycle.
func NewOrphanReconcileJob(params OrphanReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	return &orphanReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		execute:    params.Execute,
	}, nil
}

type orphanReconcileJob struct {
	logg       *logger.Logger
	reconciler orphanReconciler
	execute    bool
}

func (j *orphanReconcileJob) Name() string { return "orphan-reconcile" }

func (j *orphanReconcileJob) Run(ctx context.Context) error {
	result, err := j.reconciler.Reconcile(ctx, reconciler.Options{DryRun: !j.execute})
	if err != nil {
		return fmt.Errorf("reconcile storage: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"dry_run":  result.DryRun,
		"total":    result.Totals.Total,
		"orphaned": result.Totals.Orphaned,
		"deleted":  result.Totals.Deleted,
		"skipped":  result.Totals.Skipped,
	})
	j.logg.Info(logCtx, "orphan reconcile complete")
	return nil
}
