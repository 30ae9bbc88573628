package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// DeletionQueueEntry records one storage object awaiting physical deletion.
// The metadata row is already gone by the time the entry exists; the drain
// job removes the bytes later, with bounded retries.
type DeletionQueueEntry struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ResourceType        enums.AssetKind       `gorm:"column:resource_type;type:asset_kind;not null"`
	StorageProvider     enums.StorageProvider `gorm:"column:storage_provider;type:storage_provider;not null"`
	StoragePath         string                `gorm:"column:storage_path;not null"`
	ProviderFileID      *string               `gorm:"column:provider_file_id"`
	Status              enums.DeletionStatus  `gorm:"column:status;type:deletion_status;not null;default:pending;index"`
	RetryCount          int                   `gorm:"column:retry_count;not null;default:0"`
	MaxRetries          int                   `gorm:"column:max_retries;not null;default:3"`
	ErrorMessage        *string               `gorm:"column:error_message"`
	ProcessingStartedAt *time.Time            `gorm:"column:processing_started_at"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	ProcessedAt         *time.Time            `gorm:"column:processed_at"`
}
