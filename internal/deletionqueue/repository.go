package deletionqueue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// Repository exposes deletion queue persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a queue repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue inserts a pending entry.
func (r *Repository) Enqueue(ctx context.Context, entry *models.DeletionQueueEntry) error {
	return r.enqueue(ctx, r.db, entry)
}

// EnqueueTx inserts a pending entry inside the provided transaction, so the
// metadata delete and the enqueue commit or roll back together.
func (r *Repository) EnqueueTx(ctx context.Context, tx *gorm.DB, entry *models.DeletionQueueEntry) error {
	return r.enqueue(ctx, tx, entry)
}

func (r *Repository) enqueue(ctx context.Context, db *gorm.DB, entry *models.DeletionQueueEntry) error {
	if entry.Status == "" {
		entry.Status = enums.DeletionStatusPending
	}
	return db.WithContext(ctx).Create(entry).Error
}

// ClaimBatch atomically selects the oldest pending entries and marks them
// processing. Entries come back with their pre-claim retry counts.
func (r *Repository) ClaimBatch(ctx context.Context, batchSize int, now time.Time) ([]models.DeletionQueueEntry, error) {
	var claimed []models.DeletionQueueEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("status = ?", enums.DeletionStatusPending).
			Order("created_at ASC").
			Limit(batchSize).
			Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(claimed))
		for i := range claimed {
			ids = append(ids, claimed[i].ID)
		}
		if err := tx.Model(&models.DeletionQueueEntry{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":                enums.DeletionStatusProcessing,
				"processing_started_at": now,
			}).Error; err != nil {
			return err
		}
		for i := range claimed {
			claimed[i].Status = enums.DeletionStatusProcessing
			startedAt := now
			claimed[i].ProcessingStartedAt = &startedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkCompleted finalizes a successfully drained entry.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.DeletionQueueEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.DeletionStatusCompleted,
			"processed_at":  now,
			"error_message": nil,
		}).Error
}

// MarkRetry returns a failed entry to pending with an incremented retry
// count so a later drain picks it up again.
func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	return r.db.WithContext(ctx).Model(&models.DeletionQueueEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":                enums.DeletionStatusPending,
			"retry_count":           retryCount,
			"error_message":         errMsg,
			"processing_started_at": nil,
		}).Error
}

// MarkFailed terminally fails an entry whose retries are exhausted.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.DeletionQueueEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.DeletionStatusFailed,
			"retry_count":   retryCount,
			"error_message": errMsg,
			"processed_at":  now,
		}).Error
}

// ReclaimStale returns entries stuck in processing past the lease back to
// pending. Covers workers that died mid-batch.
func (r *Repository) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.DeletionQueueEntry{}).
		Where("status = ? AND processing_started_at < ?", enums.DeletionStatusProcessing, cutoff).
		Updates(map[string]any{
			"status":                enums.DeletionStatusPending,
			"processing_started_at": nil,
		})
	return res.RowsAffected, res.Error
}

// StatusCounts tallies entries per lifecycle status.
func (r *Repository) StatusCounts(ctx context.Context) (map[enums.DeletionStatus]int64, error) {
	type row struct {
		Status enums.DeletionStatus
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.DeletionQueueEntry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[enums.DeletionStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// OldestPending returns the created_at of the oldest pending entry, or nil
// when the queue is empty.
func (r *Repository) OldestPending(ctx context.Context) (*time.Time, error) {
	var entry models.DeletionQueueEntry
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.DeletionStatusPending).
		Order("created_at ASC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry.CreatedAt, nil
}
