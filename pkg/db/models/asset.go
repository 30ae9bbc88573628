package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// Asset captures metadata for one stored object: product images, angled
// shots, backgrounds, composites, copy docs, templates, guidelines and final
// assets all share this shape, discriminated by Kind.
//
// New gdrive rows always carry ProviderFileID; legacy rows may lack it and
// fall back to path-based lookups in the storage layer.
type Asset struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind            enums.AssetKind       `gorm:"column:kind;type:asset_kind;not null;index"`
	CategoryID      uuid.UUID             `gorm:"column:category_id;type:uuid;not null;index"`
	ProductID       *uuid.UUID            `gorm:"column:product_id;type:uuid;index"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	FileName        string                `gorm:"column:file_name;not null"`
	MimeType        string                `gorm:"column:mime_type;not null"`
	SizeBytes       int64                 `gorm:"column:size_bytes;not null"`
	StorageProvider enums.StorageProvider `gorm:"column:storage_provider;type:storage_provider;not null"`
	StoragePath     string                `gorm:"column:storage_path;not null;unique"`
	StorageURL      string                `gorm:"column:storage_url;not null"`
	ProviderFileID  *string               `gorm:"column:provider_file_id"`
	IsPrimary       bool                  `gorm:"column:is_primary;not null;default:false"`
	Metadata        map[string]string     `gorm:"column:metadata;serializer:json"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
