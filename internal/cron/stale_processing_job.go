package cron

import (
	"context"
	"fmt"

	"github.com/adforgehq/adforge-backend/pkg/logger"
)

type staleReclaimer interface {
	ReclaimStale(ctx context.Context) (int64, error)
}

// StaleProcessingJobParams configure the lease reclaim job.
type StaleProcessingJobParams struct {
	Logger *logger.Logger
	Queue  staleReclaimer
}

// NewStaleProcessingJob builds the job that returns deletion entries stuck
// in processing back to pending once their lease expires.
func NewStaleProcessingJob(params StaleProcessingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("queue service required")
	}
	return &staleProcessingJob{logg: params.Logger, queue: params.Queue}, nil
}

type staleProcessingJob struct {
	logg  *logger.Logger
	queue staleReclaimer
}

func (j *staleProcessingJob) Name() string { return "stale-processing-reclaim" }

func (j *staleProcessingJob) Run(ctx context.Context) error {
	reclaimed, err := j.queue.ReclaimStale(ctx)
	if err != nil {
		return fmt.Errorf("reclaim stale deletion entries: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "reclaimed", reclaimed), "stale processing reclaim complete")
	return nil
}
