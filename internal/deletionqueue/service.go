package deletionqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

type queueRepository interface {
	ClaimBatch(ctx context.Context, batchSize int, now time.Time) ([]models.DeletionQueueEntry, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, now time.Time) error
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)
	StatusCounts(ctx context.Context) (map[enums.DeletionStatus]int64, error)
	OldestPending(ctx context.Context) (*time.Time, error)
}

type adapterResolver interface {
	For(provider enums.StorageProvider) (storage.Adapter, error)
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// QueueStatus is the admin view of the queue.
type QueueStatus struct {
	Counts        map[enums.DeletionStatus]int64 `json:"counts"`
	OldestPending *time.Time                     `json:"oldest_pending,omitempty"`
}

// Service drains the deletion queue: claims a batch of pending entries,
// deletes each physical object, and records the outcome per entry.
type Service struct {
	repo      queueRepository
	adapters  adapterResolver
	log       *logger.Logger
	batchSize int
	lease     time.Duration
	now       func() time.Time
}

// NewService constructs the drain service.
func NewService(repo queueRepository, adapters adapterResolver, log *logger.Logger, batchSize int, lease time.Duration) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	if adapters == nil {
		return nil, fmt.Errorf("adapter resolver required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if lease <= 0 {
		return nil, fmt.Errorf("processing lease must be positive")
	}
	return &Service{
		repo:      repo,
		adapters:  adapters,
		log:       log,
		batchSize: batchSize,
		lease:     lease,
		now:       time.Now,
	}, nil
}

// Drain claims up to one batch and processes it. Failures are isolated per
// entry: one bad object never blocks the rest of the batch.
func (s *Service) Drain(ctx context.Context) (*DrainResult, error) {
	now := s.now()
	batch, err := s.repo.ClaimBatch(ctx, s.batchSize, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim deletion batch")
	}

	result := &DrainResult{Claimed: len(batch)}
	for i := range batch {
		entry := &batch[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.deletePhysical(ctx, entry); err != nil {
			s.recordFailure(ctx, entry, err, result)
			continue
		}
		if err := s.repo.MarkCompleted(ctx, entry.ID, s.now()); err != nil {
			s.log.Error(s.entryCtx(ctx, entry), "mark deletion completed failed", err)
			continue
		}
		result.Completed++
	}
	return result, nil
}

// ReclaimStale returns entries whose processing lease expired back to
// pending.
func (s *Service) ReclaimStale(ctx context.Context) (int64, error) {
	reclaimed, err := s.repo.ReclaimStale(ctx, s.now().Add(-s.lease))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reclaim stale entries")
	}
	if reclaimed > 0 {
		s.log.Warn(s.log.WithField(ctx, "reclaimed", reclaimed), "returned stale processing entries to pending")
	}
	return reclaimed, nil
}

// Status reports per-status counts and the oldest pending entry.
func (s *Service) Status(ctx context.Context) (*QueueStatus, error) {
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count queue entries")
	}
	oldest, err := s.repo.OldestPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find oldest pending entry")
	}
	return &QueueStatus{Counts: counts, OldestPending: oldest}, nil
}

func (s *Service) deletePhysical(ctx context.Context, entry *models.DeletionQueueEntry) error {
	adapter, err := s.adapters.For(entry.StorageProvider)
	if err != nil {
		return err
	}

	id := storage.ByPath(entry.StoragePath)
	if entry.ProviderFileID != nil && *entry.ProviderFileID != "" {
		id = storage.ByID(*entry.ProviderFileID)
	}
	return adapter.Delete(ctx, id)
}

func (s *Service) recordFailure(ctx context.Context, entry *models.DeletionQueueEntry, cause error, result *DrainResult) {
	retryCount := entry.RetryCount + 1
	logCtx := s.entryCtx(ctx, entry)

	if retryCount >= entry.MaxRetries {
		if err := s.repo.MarkFailed(ctx, entry.ID, retryCount, cause.Error(), s.now()); err != nil {
			s.log.Error(logCtx, "mark deletion failed errored", err)
			return
		}
		result.Failed++
		s.log.Error(logCtx, "deletion entry exhausted retries", cause)
		return
	}

	if err := s.repo.MarkRetry(ctx, entry.ID, retryCount, cause.Error()); err != nil {
		s.log.Error(logCtx, "mark deletion retry errored", err)
		return
	}
	result.Retried++
	s.log.Warn(logCtx, "deletion entry returned to pending for retry")
}

func (s *Service) entryCtx(ctx context.Context, entry *models.DeletionQueueEntry) context.Context {
	return s.log.WithFields(ctx, map[string]any{
		"entry_id":     entry.ID.String(),
		"provider":     entry.StorageProvider.String(),
		"storage_path": entry.StoragePath,
		"retry_count":  entry.RetryCount,
	})
}
