package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/pagination"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

type assetRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, asset *models.Asset) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Asset, string, error)
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ClearPrimaryTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type deletionEnqueuer interface {
	EnqueueTx(ctx context.Context, tx *gorm.DB, entry *models.DeletionQueueEntry) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the asset upload, read, and delete pipeline.
type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (*AssetDTO, error)
	Get(ctx context.Context, userID, assetID uuid.UUID) (*AssetDTO, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter, params pagination.Params) (*AssetListResult, error)
	Delete(ctx context.Context, userID, assetID uuid.UUID) error
}

type service struct {
	repo           assetRepository
	categories     categoryLoader
	products       productLoader
	queue          deletionEnqueuer
	tx             txRunner
	uploader       storage.Adapter
	log            *logger.Logger
	maxUploadBytes int64
	maxRetries     int
}

// NewService constructs the asset service. Uploads target the provided
// adapter; deletes follow whatever provider each record was stored on.
func NewService(repo assetRepository, categories categoryLoader, products productLoader, queue deletionEnqueuer, tx txRunner, uploader storage.Adapter, log *logger.Logger, maxUploadBytes int64, maxRetries int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if queue == nil {
		return nil, fmt.Errorf("deletion enqueuer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("storage adapter required")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:           repo,
		categories:     categories,
		products:       products,
		queue:          queue,
		tx:             tx,
		uploader:       uploader,
		log:            log,
		maxUploadBytes: maxUploadBytes,
		maxRetries:     maxRetries,
	}, nil
}

// UploadInput models one incoming file plus its placement in the hierarchy.
type UploadInput struct {
	Kind       enums.AssetKind
	CategoryID uuid.UUID
	ProductID  *uuid.UUID
	FileName   string
	MimeType   string
	SizeBytes  int64
	Body       io.Reader
	IsPrimary  bool
	Metadata   map[string]string
}

// Upload runs the two-phase pipeline: store the bytes, then insert the
// metadata row. A metadata failure does NOT roll back the physical object;
// the orphan reconciler owns that cleanup, so the error is surfaced as-is.
func (s *service) Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (*AssetDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if input.Kind == "" || !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset kind")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be ≤ %d bytes", s.maxUploadBytes))
	}
	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(input.Kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for asset kind")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}

	category, err := s.loadOwnedCategory(ctx, userID, input.CategoryID)
	if err != nil {
		return nil, err
	}

	productSlug := ""
	if input.ProductID != nil {
		product, err := s.products.FindByID(ctx, *input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch product")
		}
		if product.CategoryID != category.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product belongs to a different category")
		}
		productSlug = product.Slug
	}

	assetID := uuid.New()
	storagePath := buildStoragePath(category.Slug, productSlug, input.Kind, assetID, fileName)

	object, err := s.uploader.Upload(ctx, storage.UploadInput{
		Path:        storagePath,
		ContentType: mimeType,
		Size:        input.SizeBytes,
		Body:        input.Body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store file")
	}

	asset := &models.Asset{
		ID:              assetID,
		Kind:            input.Kind,
		CategoryID:      category.ID,
		ProductID:       input.ProductID,
		UserID:          userID,
		FileName:        fileName,
		MimeType:        mimeType,
		SizeBytes:       input.SizeBytes,
		StorageProvider: s.uploader.Provider(),
		StoragePath:     object.Path,
		StorageURL:      object.PublicURL,
		IsPrimary:       input.IsPrimary,
		Metadata:        input.Metadata,
	}
	if object.ProviderFileID != "" {
		fileID := object.ProviderFileID
		asset.ProviderFileID = &fileID
	}

	// The flag swap and the insert commit together, so a failed insert
	// cannot leave the product without a primary image.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.IsPrimary && input.ProductID != nil {
			if err := s.repo.ClearPrimaryTx(ctx, tx, *input.ProductID); err != nil {
				return fmt.Errorf("clear primary flag: %w", err)
			}
		}
		return s.repo.CreateTx(ctx, tx, asset)
	})
	if err != nil {
		// The physical object stays behind as an orphan. The reconciler
		// sweep owns that cleanup.
		logCtx := s.log.WithFields(ctx, map[string]any{
			"storage_path":     object.Path,
			"provider_file_id": object.ProviderFileID,
		})
		s.log.Error(logCtx, "metadata insert failed after upload, object left for reconciliation", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist asset metadata")
	}

	return assetToDTO(asset), nil
}

// Get returns one asset owned by the user.
func (s *service) Get(ctx context.Context, userID, assetID uuid.UUID) (*AssetDTO, error) {
	asset, err := s.loadOwnedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	return assetToDTO(asset), nil
}

// List returns the user's assets for the filter.
func (s *service) List(ctx context.Context, userID uuid.UUID, filter ListFilter, params pagination.Params) (*AssetListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	filter.UserID = userID

	rows, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}

	out := make([]AssetDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *assetToDTO(&rows[i]))
	}
	return &AssetListResult{Assets: out, NextCursor: nextCursor}, nil
}

// Delete removes the metadata row and enqueues the physical deletion in one
// transaction. The bytes outlive the row until the drain job runs.
func (s *service) Delete(ctx context.Context, userID, assetID uuid.UUID) error {
	asset, err := s.loadOwnedAsset(ctx, userID, assetID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.DeleteTx(ctx, tx, asset.ID); err != nil {
			return err
		}
		return s.queue.EnqueueTx(ctx, tx, deletionEntryFor(asset, s.maxRetries))
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete asset")
	}
	return nil
}

// deletionEntryFor snapshots the storage coordinates before the row is gone.
func deletionEntryFor(asset *models.Asset, maxRetries int) *models.DeletionQueueEntry {
	return &models.DeletionQueueEntry{
		ResourceType:    asset.Kind,
		StorageProvider: asset.StorageProvider,
		StoragePath:     asset.StoragePath,
		ProviderFileID:  asset.ProviderFileID,
		Status:          enums.DeletionStatusPending,
		MaxRetries:      maxRetries,
	}
}

func (s *service) loadOwnedCategory(ctx context.Context, userID, categoryID uuid.UUID) (*models.Category, error) {
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch category")
	}
	if category.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "category belongs to another user")
	}
	return category, nil
}

func (s *service) loadOwnedAsset(ctx context.Context, userID, assetID uuid.UUID) (*models.Asset, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if assetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset_id is required")
	}
	asset, err := s.repo.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch asset")
	}
	if asset.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "asset belongs to another user")
	}
	return asset, nil
}
