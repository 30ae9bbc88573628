package reconciler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

type stubAssetSource struct {
	byKind  map[enums.AssetKind][]models.Asset
	deleted [][]uuid.UUID
}

func (s *stubAssetSource) ListForSweep(_ context.Context, kind enums.AssetKind, afterID uuid.UUID, limit int) ([]models.Asset, error) {
	rows := s.byKind[kind]
	if afterID != uuid.Nil {
		for i := range rows {
			if rows[i].ID == afterID {
				rows = rows[i+1:]
				break
			}
		}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubAssetSource) BatchDelete(_ context.Context, ids []uuid.UUID) (int64, error) {
	s.deleted = append(s.deleted, ids)
	return int64(len(ids)), nil
}

func (s *stubAssetSource) CountByKind(context.Context) (map[enums.AssetKind]int64, error) {
	counts := make(map[enums.AssetKind]int64, len(s.byKind))
	for kind, rows := range s.byKind {
		counts[kind] = int64(len(rows))
	}
	return counts, nil
}

type stubExistsAdapter struct {
	provider enums.StorageProvider
	missing  map[string]bool // identifier key -> gone
	errOn    map[string]error
	checks   int
	deletes  int
}

func key(id storage.Identifier) string {
	if id.ProviderFileID != "" {
		return "id:" + id.ProviderFileID
	}
	return "path:" + id.StoragePath
}

func (s *stubExistsAdapter) Provider() enums.StorageProvider { return s.provider }

func (s *stubExistsAdapter) Upload(context.Context, storage.UploadInput) (*storage.Object, error) {
	return nil, errors.New("not implemented")
}

func (s *stubExistsAdapter) Exists(_ context.Context, id storage.Identifier) (bool, error) {
	s.checks++
	if err, ok := s.errOn[key(id)]; ok {
		return false, err
	}
	return !s.missing[key(id)], nil
}

func (s *stubExistsAdapter) Delete(context.Context, storage.Identifier) error {
	s.deletes++
	return nil
}

func (s *stubExistsAdapter) Ping(context.Context) error { return nil }

type singleResolver struct {
	adapter storage.Adapter
}

func (s singleResolver) For(enums.StorageProvider) (storage.Adapter, error) {
	return s.adapter, nil
}

func gdriveAsset(kind enums.AssetKind, fileID string) models.Asset {
	asset := models.Asset{
		ID:              uuid.New(),
		Kind:            kind,
		StorageProvider: enums.StorageProviderGDrive,
		StoragePath:     "categories/c/" + kind.Folder() + "/" + fileID + ".png",
	}
	if fileID != "" {
		asset.ProviderFileID = &fileID
	}
	return asset
}

func newReconciler(t *testing.T, source *stubAssetSource, adapter storage.Adapter, policy enums.OrphanPolicy) *Service {
	t.Helper()

	svc, err := NewService(source, singleResolver{adapter: adapter}, logger.New(logger.Options{Output: io.Discard}), policy, 10, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestReconcileDryRunReportsWithoutDeleting(t *testing.T) {
	t.Parallel()

	live := gdriveAsset(enums.AssetKindProductImage, "live-1")
	gone := gdriveAsset(enums.AssetKindProductImage, "gone-1")
	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindProductImage: {live, gone},
	}}
	adapter := &stubExistsAdapter{
		provider: enums.StorageProviderGDrive,
		missing:  map[string]bool{"id:gone-1": true},
	}

	svc := newReconciler(t, source, adapter, enums.OrphanPolicyConservative)
	res, err := svc.Reconcile(context.Background(), Options{DryRun: true, Kinds: []enums.AssetKind{enums.AssetKindProductImage}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	stats := res.PerKind[enums.AssetKindProductImage]
	if stats.Total != 2 || stats.Orphaned != 1 || stats.Deleted != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(source.deleted) != 0 {
		t.Fatalf("metadata deletes = %v, want none", source.deleted)
	}
	if len(res.Orphans) != 1 || res.Orphans[0].AssetID != gone.ID || res.Orphans[0].ProviderFileID != "gone-1" {
		t.Fatalf("orphan summaries = %+v", res.Orphans)
	}
}

func TestReconcileExecuteDeletesOrphanMetadata(t *testing.T) {
	t.Parallel()

	live := gdriveAsset(enums.AssetKindProductImage, "live-1")
	gone := gdriveAsset(enums.AssetKindProductImage, "gone-1")
	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindProductImage: {live, gone},
	}}
	adapter := &stubExistsAdapter{
		provider: enums.StorageProviderGDrive,
		missing:  map[string]bool{"id:gone-1": true},
	}

	svc := newReconciler(t, source, adapter, enums.OrphanPolicyConservative)
	res, err := svc.Reconcile(context.Background(), Options{Kinds: []enums.AssetKind{enums.AssetKindProductImage}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	stats := res.PerKind[enums.AssetKindProductImage]
	if stats.Orphaned != 1 || stats.Deleted != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(source.deleted) != 1 || len(source.deleted[0]) != 1 || source.deleted[0][0] != gone.ID {
		t.Fatalf("metadata deletes = %v, want [[%s]]", source.deleted, gone.ID)
	}
	// The reconciler must never delete physical objects.
	if adapter.deletes != 0 {
		t.Fatalf("physical deletes = %d, want 0", adapter.deletes)
	}
}

// Legacy supabase rows have no provider file id; the sweep must still reach
// them through their storage path.
func TestReconcileSweepsLegacyPathOnlyRecords(t *testing.T) {
	t.Parallel()

	legacy := models.Asset{
		ID:              uuid.New(),
		Kind:            enums.AssetKindProductImage,
		StorageProvider: enums.StorageProviderSupabase,
		StoragePath:     "categories/c/product-images/legacy.png",
	}
	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindProductImage: {legacy},
	}}
	adapter := &stubExistsAdapter{
		provider: enums.StorageProviderSupabase,
		missing:  map[string]bool{"path:categories/c/product-images/legacy.png": true},
	}

	svc := newReconciler(t, source, adapter, enums.OrphanPolicyConservative)
	res, err := svc.Reconcile(context.Background(), Options{Kinds: []enums.AssetKind{enums.AssetKindProductImage}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	stats := res.PerKind[enums.AssetKindProductImage]
	if stats.Orphaned != 1 || stats.Deleted != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(res.Orphans) != 1 || res.Orphans[0].StoragePath != legacy.StoragePath || res.Orphans[0].ProviderFileID != "" {
		t.Fatalf("orphan summaries = %+v", res.Orphans)
	}
}

func TestReconcileConservativePolicySkipsOnCheckError(t *testing.T) {
	t.Parallel()

	flaky := gdriveAsset(enums.AssetKindBackground, "flaky-1")
	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindBackground: {flaky},
	}}
	adapter := &stubExistsAdapter{
		provider: enums.StorageProviderGDrive,
		errOn:    map[string]error{"id:flaky-1": storage.ErrUnavailable},
	}

	svc := newReconciler(t, source, adapter, enums.OrphanPolicyConservative)
	res, err := svc.Reconcile(context.Background(), Options{Kinds: []enums.AssetKind{enums.AssetKindBackground}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	stats := res.PerKind[enums.AssetKindBackground]
	if stats.Skipped != 1 || stats.Orphaned != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(source.deleted) != 0 {
		t.Fatalf("metadata deletes = %v, want none", source.deleted)
	}
}

func TestReconcileAggressivePolicyTreatsCheckErrorAsOrphan(t *testing.T) {
	t.Parallel()

	flaky := gdriveAsset(enums.AssetKindBackground, "flaky-1")
	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindBackground: {flaky},
	}}
	adapter := &stubExistsAdapter{
		provider: enums.StorageProviderGDrive,
		errOn:    map[string]error{"id:flaky-1": storage.ErrUnavailable},
	}

	svc := newReconciler(t, source, adapter, enums.OrphanPolicyAggressive)
	res, err := svc.Reconcile(context.Background(), Options{Kinds: []enums.AssetKind{enums.AssetKindBackground}})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	stats := res.PerKind[enums.AssetKindBackground]
	if stats.Orphaned != 1 || stats.Deleted != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestReconcileThrottlesEveryTenChecks(t *testing.T) {
	t.Parallel()

	var rows []models.Asset
	for i := 0; i < 25; i++ {
		rows = append(rows, gdriveAsset(enums.AssetKindProductImage, uuid.NewString()))
	}
	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindProductImage: rows,
	}}
	adapter := &stubExistsAdapter{provider: enums.StorageProviderGDrive}

	svc := newReconciler(t, source, adapter, enums.OrphanPolicyConservative)
	pauses := 0
	svc.sleep = func(d time.Duration) {
		if d != 100*time.Millisecond {
			t.Fatalf("pause = %v, want 100ms", d)
		}
		pauses++
	}

	if _, err := svc.Reconcile(context.Background(), Options{DryRun: true, Kinds: []enums.AssetKind{enums.AssetKindProductImage}}); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if pauses != 2 {
		t.Fatalf("pauses = %d, want 2", pauses)
	}
	if adapter.checks != 25 {
		t.Fatalf("checks = %d, want 25", adapter.checks)
	}
}

func TestLastRunSnapshot(t *testing.T) {
	t.Parallel()

	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{}}
	adapter := &stubExistsAdapter{provider: enums.StorageProviderGDrive}
	svc := newReconciler(t, source, adapter, enums.OrphanPolicyConservative)

	if svc.LastRun() != nil {
		t.Fatal("expected nil before first run")
	}
	if _, err := svc.Reconcile(context.Background(), Options{DryRun: true}); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	last := svc.LastRun()
	if last == nil || !last.DryRun {
		t.Fatalf("last run = %+v", last)
	}
}

func TestStatusCountsRecordsPerKind(t *testing.T) {
	t.Parallel()

	source := &stubAssetSource{byKind: map[enums.AssetKind][]models.Asset{
		enums.AssetKindProductImage: {gdriveAsset(enums.AssetKindProductImage, "a"), gdriveAsset(enums.AssetKindProductImage, "b")},
		enums.AssetKindCopyDoc:      {gdriveAsset(enums.AssetKindCopyDoc, "c")},
	}}
	svc := newReconciler(t, source, &stubExistsAdapter{provider: enums.StorageProviderGDrive}, enums.OrphanPolicyConservative)

	counts, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if counts[enums.AssetKindProductImage] != 2 || counts[enums.AssetKindCopyDoc] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
