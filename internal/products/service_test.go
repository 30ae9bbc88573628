package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
)

func codeOf(err error) pkgerrors.Code {
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr.Code()
	}
	return ""
}

type stubProductRepo struct {
	existing  map[uuid.UUID]*models.Product
	created   *models.Product
	deletedTx []uuid.UUID
	createErr error
}

func (s *stubProductRepo) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.created = product
	return product, nil
}

func (s *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.existing[id]; ok {
		clone := *product
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) ListByCategory(context.Context, uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) Save(context.Context, *models.Product) error { return nil }

func (s *stubProductRepo) DeleteTx(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	s.deletedTx = append(s.deletedTx, id)
	return nil
}

type stubCategoryLoader struct {
	categories map[uuid.UUID]*models.Category
}

func (s stubCategoryLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if category, ok := s.categories[id]; ok {
		return category, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubAssetPurger struct {
	assets []models.Asset
	purged []uuid.UUID
}

func (s *stubAssetPurger) ListByProduct(context.Context, uuid.UUID) ([]models.Asset, error) {
	return s.assets, nil
}

func (s *stubAssetPurger) DeleteByProductTx(_ context.Context, _ *gorm.DB, productID uuid.UUID) error {
	s.purged = append(s.purged, productID)
	return nil
}

type stubEnqueuer struct {
	entries []*models.DeletionQueueEntry
}

func (s *stubEnqueuer) EnqueueTx(_ context.Context, _ *gorm.DB, entry *models.DeletionQueueEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc      Service
	repo     *stubProductRepo
	assets   *stubAssetPurger
	queue    *stubEnqueuer
	userID   uuid.UUID
	category *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userID := uuid.New()
	category := &models.Category{ID: uuid.New(), UserID: userID, Name: "Summer Drinks", Slug: "summer-drinks"}

	repo := &stubProductRepo{existing: map[uuid.UUID]*models.Product{}}
	assets := &stubAssetPurger{}
	queue := &stubEnqueuer{}
	loader := stubCategoryLoader{categories: map[uuid.UUID]*models.Category{category.ID: category}}

	svc, err := NewService(repo, loader, assets, queue, stubTxRunner{}, 3)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, repo: repo, assets: assets, queue: queue, userID: userID, category: category}
}

func TestCreateDerivesSlugWithinCategory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	dto, err := f.svc.Create(context.Background(), f.userID, CreateInput{
		CategoryID: f.category.ID,
		Name:       "Sparkling Lime",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if dto.Slug != "sparkling-lime" {
		t.Fatalf("Slug = %q", dto.Slug)
	}
	if dto.CategoryID != f.category.ID {
		t.Fatalf("CategoryID = %v", dto.CategoryID)
	}
}

func TestCreateInForeignCategoryIsForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{
		CategoryID: f.category.ID,
		Name:       "Sparkling Lime",
	})
	if codeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("code = %v, want forbidden", codeOf(err))
	}
}

func TestDeleteEnqueuesProductAssets(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := &models.Product{ID: uuid.New(), CategoryID: f.category.ID, Name: "P", Slug: "p"}
	f.repo.existing[product.ID] = product

	f.assets.assets = []models.Asset{
		{
			ID:              uuid.New(),
			Kind:            enums.AssetKindAngledShot,
			CategoryID:      f.category.ID,
			StorageProvider: enums.StorageProviderGDrive,
			StoragePath:     "categories/summer-drinks/p/angled-shots/a.png",
		},
	}

	if err := f.svc.Delete(context.Background(), f.userID, product.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if len(f.queue.entries) != 1 {
		t.Fatalf("queue entries = %d, want 1", len(f.queue.entries))
	}
	if f.queue.entries[0].Status != enums.DeletionStatusPending {
		t.Fatalf("status = %v", f.queue.entries[0].Status)
	}
	if len(f.assets.purged) != 1 || len(f.repo.deletedTx) != 1 {
		t.Fatalf("cascade = assets %v product %v", f.assets.purged, f.repo.deletedTx)
	}
}

func TestGetUnknownProductIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), f.userID, uuid.New())
	if codeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("code = %v, want not found", codeOf(err))
	}
}
