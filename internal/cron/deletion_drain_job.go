package cron

import (
	"context"
	"fmt"

	"github.com/adforgehq/adforge-backend/internal/deletionqueue"
	"github.com/adforgehq/adforge-backend/pkg/logger"
)

type queueDrainer interface {
	Drain(ctx context.Context) (*deletionqueue.DrainResult, error)
}

// DeletionDrainJobParams configure the queue drain job.
type DeletionDrainJobParams struct {
	Logger *logger.Logger
	Queue  queueDrainer
}

// NewDeletionDrainJob builds the job that processes one deletion queue
// batch per cron cycle.
func NewDeletionDrainJob(params DeletionDrainJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("queue service required")
	}
	return &deletionDrainJob{logg: params.Logger, queue: params.Queue}, nil
}

type deletionDrainJob struct {
	logg  *logger.Logger
	queue queueDrainer
}

func (j *deletionDrainJob) Name() string { return "deletion-queue-drain" }

func (j *deletionDrainJob) Run(ctx context.Context) error {
	result, err := j.queue.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain deletion queue: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"claimed":   result.Claimed,
		"completed": result.Completed,
		"retried":   result.Retried,
		"failed":    result.Failed,
	})
	j.logg.Info(logCtx, "deletion queue drain complete")
	return nil
}
