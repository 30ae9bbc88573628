package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/pagination"
)

// Repository exposes asset metadata persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an asset repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateTx persists an asset record inside the provided transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, asset *models.Asset) error {
	return tx.WithContext(ctx).Create(asset).Error
}

// FindByID retrieves an asset record by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListFilter narrows asset listings.
type ListFilter struct {
	UserID     uuid.UUID
	CategoryID *uuid.UUID
	ProductID  *uuid.UUID
	Kind       *enums.AssetKind
}

// List returns assets for the filter, newest first, cursor-paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Asset, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).Model(&models.Asset{}).Where("user_id = ?", filter.UserID)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Kind != nil {
		q = q.Where("kind = ?", *filter.Kind)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Asset
	if err := q.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ListByCategory returns all assets under a category, any kind.
func (r *Repository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Asset, error) {
	var rows []models.Asset
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByProduct returns all assets attached to a product.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Asset, error) {
	var rows []models.Asset
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes an asset record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Asset{}).Error
}

// DeleteByCategoryTx removes every asset row under the category inside the
// provided transaction.
func (r *Repository) DeleteByCategoryTx(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error {
	return tx.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&models.Asset{}).Error
}

// DeleteByProductTx removes every asset row attached to the product inside
// the provided transaction.
func (r *Repository) DeleteByProductTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	return tx.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Asset{}).Error
}

// DeleteTx removes an asset record inside the provided transaction.
func (r *Repository) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&models.Asset{}).Error
}

// ClearPrimaryTx unsets the primary flag on all sibling assets of the
// product inside the provided transaction.
func (r *Repository) ClearPrimaryTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	return tx.WithContext(ctx).
		Model(&models.Asset{}).
		Where("product_id = ? AND is_primary", productID).
		Update("is_primary", false).Error
}
