package categories

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

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Save(ctx context.Context, category *models.Category) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type productPurger interface {
	DeleteByCategoryTx(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error
}

type assetPurger interface {
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Asset, error)
	DeleteByCategoryTx(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error
}

type deletionEnqueuer interface {
	EnqueueTx(ctx context.Context, tx *gorm.DB, entry *models.DeletionQueueEntry) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes category management.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CategoryDTO, error)
	Get(ctx context.Context, userID, categoryID uuid.UUID) (*CategoryDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]CategoryDTO, error)
	Update(ctx context.Context, userID, categoryID uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error
}

type service struct {
	repo       categoryRepository
	products   productPurger
	assets     assetPurger
	queue      deletionEnqueuer
	tx         txRunner
	maxRetries int
}

// NewService constructs the category service.
func NewService(repo categoryRepository, products productPurger, assets assetPurger, queue deletionEnqueuer, tx txRunner, maxRetries int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product purger required")
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
		products:   products,
		assets:     assets,
		queue:      queue,
		tx:         tx,
		maxRetries: maxRetries,
	}, nil
}

// CreateInput holds the validated payload to create a category.
type CreateInput struct {
	Name        string
	Description *string
}

// UpdateInput holds optional mutation values for a category.
type UpdateInput struct {
	Name        *string
	Description *string
}

// CategoryDTO is the API projection of a category row.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CategoryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name does not produce a usable slug")
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Slug:        categorySlug,
		Description: input.Description,
	}
	if _, err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "idx_categories_user_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist category")
	}
	return toDTO(category), nil
}

func (s *service) Get(ctx context.Context, userID, categoryID uuid.UUID) (*CategoryDTO, error) {
	category, err := s.loadOwned(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	return toDTO(category), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]CategoryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

// Update renames or re-describes the category. The slug is immutable after
// creation: stored asset paths embed it.
func (s *service) Update(ctx context.Context, userID, categoryID uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	category, err := s.loadOwned(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = input.Description
	}

	if err := s.repo.Save(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return toDTO(category), nil
}

// Delete removes the category with everything beneath it: products, asset
// rows, and one deletion queue entry per asset so the physical objects get
// cleaned up by the drain job.
func (s *service) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	category, err := s.loadOwned(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	assetRows, err := s.assets.ListByCategory(ctx, category.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category assets")
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
		if err := s.assets.DeleteByCategoryTx(ctx, tx, category.ID); err != nil {
			return err
		}
		if err := s.products.DeleteByCategoryTx(ctx, tx, category.ID); err != nil {
			return err
		}
		return s.repo.DeleteTx(ctx, tx, category.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, userID, categoryID uuid.UUID) (*models.Category, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	category, err := s.repo.FindByID(ctx, categoryID)
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

func toDTO(category *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}
