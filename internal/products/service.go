package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adforgehq/adforge-backend/pkg/db"
	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/slug"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type assetPurger interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Asset, error)
	DeleteByProductTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
}

type deletionEnqueuer interface {
	EnqueueTx(ctx context.Context, tx *gorm.DB, entry *models.DeletionQueueEntry) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes product management within a category.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Get(ctx context.Context, userID, productID uuid.UUID) (*ProductDTO, error)
	ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]ProductDTO, error)
	Update(ctx context.Context, userID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo       productRepository
	categories categoryLoader
	assets     assetPurger
	queue      deletionEnqueuer
	tx         txRunner
	maxRetries int
}

// NewService constructs the product service.
func NewService(repo productRepository, categories categoryLoader, assets assetPurger, queue deletionEnqueuer, tx txRunner, maxRetries int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset purger required")
	}
	if queue == nil {
		return nil, fmt.Errorf("deletion enqueuer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}
	return &service{
		repo:       repo,
		categories: categories,
		assets:     assets,
		queue:      queue,
		tx:         tx,
		maxRetries: maxRetries,
	}, nil
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	CategoryID  uuid.UUID
	Name        string
	Description *string
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name        *string
	Description *string
}

// ProductDTO is the API projection of a product row.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	productSlug := slug.Make(name)
	if productSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name does not produce a usable slug")
	}
	if _, err := s.loadOwnedCategory(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		Name:        name,
		Slug:        productSlug,
		Description: input.Description,
	}
	if _, err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "idx_products_category_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists in the category")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product")
	}
	return toDTO(product), nil
}

func (s *service) Get(ctx context.Context, userID, productID uuid.UUID) (*ProductDTO, error) {
	product, _, err := s.loadOwnedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]ProductDTO, error) {
	if _, err := s.loadOwnedCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

// Update renames or re-describes the product. The slug stays fixed because
// stored asset paths embed it.
func (s *service) Update(ctx context.Context, userID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, _, err := s.loadOwnedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return toDTO(product), nil
}

// Delete removes the product, its asset rows, and enqueues physical
// deletion for every asset in one transaction.
func (s *service) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	product, _, err := s.loadOwnedProduct(ctx, userID, productID)
	if err != nil {
		return err
	}

	assetRows, err := s.assets.ListByProduct(ctx, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product assets")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range assetRows {
			entry := &models.DeletionQueueEntry{
				ResourceType:    assetRows[i].Kind,
				StorageProvider: assetRows[i].StorageProvider,
				StoragePath:     assetRows[i].StoragePath,
				ProviderFileID:  assetRows[i].ProviderFileID,
				Status:          enums.DeletionStatusPending,
				MaxRetries:      s.maxRetries,
			}
			if err := s.queue.EnqueueTx(ctx, tx, entry); err != nil {
				return err
			}
		}
		if err := s.assets.DeleteByProductTx(ctx, tx, product.ID); err != nil {
			return err
		}
		return s.repo.DeleteTx(ctx, tx, product.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
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

func (s *service) loadOwnedProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Product, *models.Category, error) {
	if userID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch product")
	}
	category, err := s.loadOwnedCategory(ctx, userID, product.CategoryID)
	if err != nil {
		return nil, nil, err
	}
	return product, category, nil
}

func toDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
