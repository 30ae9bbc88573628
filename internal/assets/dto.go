package assets

import (
	"time"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// AssetDTO is the API projection of an asset row.
type AssetDTO struct {
	ID              uuid.UUID             `json:"id"`
	Kind            enums.AssetKind       `json:"kind"`
	CategoryID      uuid.UUID             `json:"category_id"`
	ProductID       *uuid.UUID            `json:"product_id,omitempty"`
	FileName        string                `json:"file_name"`
	MimeType        string                `json:"mime_type"`
	SizeBytes       int64                 `json:"size_bytes"`
	StorageProvider enums.StorageProvider `json:"storage_provider"`
	StoragePath     string                `json:"storage_path"`
	StorageURL      string                `json:"storage_url"`
	IsPrimary       bool                  `json:"is_primary"`
	Metadata        map[string]string     `json:"metadata,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// AssetListResult wraps one page of assets.
type AssetListResult struct {
	Assets     []AssetDTO `json:"assets"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func assetToDTO(asset *models.Asset) *AssetDTO {
	return &AssetDTO{
		ID:              asset.ID,
		Kind:            asset.Kind,
		CategoryID:      asset.CategoryID,
		ProductID:       asset.ProductID,
		FileName:        asset.FileName,
		MimeType:        asset.MimeType,
		SizeBytes:       asset.SizeBytes,
		StorageProvider: asset.StorageProvider,
		StoragePath:     asset.StoragePath,
		StorageURL:      asset.StorageURL,
		IsPrimary:       asset.IsPrimary,
		Metadata:        asset.Metadata,
		CreatedAt:       asset.CreatedAt,
	}
}
