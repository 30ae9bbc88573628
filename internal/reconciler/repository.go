package reconciler

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// Repository reads asset metadata for sweeps and removes confirmed orphans.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reconciler repository bound to the provided
// GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForSweep returns one keyset page of assets of the kind, ordered by ID.
// Pass uuid.Nil to start from the beginning.
func (r *Repository) ListForSweep(ctx context.Context, kind enums.AssetKind, afterID uuid.UUID, limit int) ([]models.Asset, error) {
	q := r.db.WithContext(ctx).Where("kind = ?", kind)
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	var rows []models.Asset
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BatchDelete removes the metadata rows for the given IDs and reports how
// many went away.
func (r *Repository) BatchDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Asset{})
	return res.RowsAffected, res.Error
}

// CountByKind reports how many asset rows exist per kind.
func (r *Repository) CountByKind(ctx context.Context) (map[enums.AssetKind]int64, error) {
	var rows []struct {
		Kind  enums.AssetKind
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Select("kind, COUNT(*) AS count").
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.AssetKind]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}
