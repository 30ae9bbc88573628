package deletionqueue

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

type markCall struct {
	id         uuid.UUID
	retryCount int
	errMsg     string
	at         time.Time
}

type stubQueueRepo struct {
	batch    []models.DeletionQueueEntry
	claimErr error

	completed []markCall
	retried   []markCall
	failed    []markCall

	reclaimCutoff time.Time
	reclaimCount  int64
}

func (s *stubQueueRepo) ClaimBatch(_ context.Context, batchSize int, _ time.Time) ([]models.DeletionQueueEntry, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	if len(s.batch) > batchSize {
		return s.batch[:batchSize], nil
	}
	return s.batch, nil
}

func (s *stubQueueRepo) MarkCompleted(_ context.Context, id uuid.UUID, now time.Time) error {
	s.completed = append(s.completed, markCall{id: id, at: now})
	return nil
}

func (s *stubQueueRepo) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	s.retried = append(s.retried, markCall{id: id, retryCount: retryCount, errMsg: errMsg})
	return nil
}

func (s *stubQueueRepo) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, errMsg string, now time.Time) error {
	s.failed = append(s.failed, markCall{id: id, retryCount: retryCount, errMsg: errMsg, at: now})
	return nil
}

func (s *stubQueueRepo) ReclaimStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.reclaimCutoff = cutoff
	return s.reclaimCount, nil
}

func (s *stubQueueRepo) StatusCounts(context.Context) (map[enums.DeletionStatus]int64, error) {
	return map[enums.DeletionStatus]int64{enums.DeletionStatusPending: int64(len(s.batch))}, nil
}

func (s *stubQueueRepo) OldestPending(context.Context) (*time.Time, error) {
	return nil, nil
}

type stubDeleteAdapter struct {
	provider enums.StorageProvider
	deleted  []storage.Identifier
	failPath string
}

func (s *stubDeleteAdapter) Provider() enums.StorageProvider { return s.provider }

func (s *stubDeleteAdapter) Upload(context.Context, storage.UploadInput) (*storage.Object, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDeleteAdapter) Exists(context.Context, storage.Identifier) (bool, error) {
	return false, nil
}

func (s *stubDeleteAdapter) Delete(_ context.Context, id storage.Identifier) error {
	if s.failPath != "" && (id.StoragePath == s.failPath || id.ProviderFileID == s.failPath) {
		return errors.New("provider unavailable")
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubDeleteAdapter) Ping(context.Context) error { return nil }

type stubResolver struct {
	adapters map[enums.StorageProvider]storage.Adapter
}

func (s stubResolver) For(provider enums.StorageProvider) (storage.Adapter, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, errors.New("no adapter for provider")
	}
	return adapter, nil
}

func pendingEntry(provider enums.StorageProvider, path string, fileID *string) models.DeletionQueueEntry {
	return models.DeletionQueueEntry{
		ID:              uuid.New(),
		ResourceType:    enums.AssetKindProductImage,
		StorageProvider: provider,
		StoragePath:     path,
		ProviderFileID:  fileID,
		Status:          enums.DeletionStatusPending,
		MaxRetries:      3,
	}
}

func newDrainService(t *testing.T, repo *stubQueueRepo, gdrive, supabase *stubDeleteAdapter) *Service {
	t.Helper()

	resolver := stubResolver{adapters: map[enums.StorageProvider]storage.Adapter{
		enums.StorageProviderGDrive:   gdrive,
		enums.StorageProviderSupabase: supabase,
	}}
	svc, err := NewService(repo, resolver, logger.New(logger.Options{Output: io.Discard}), 50, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestDrainPrefersProviderFileID(t *testing.T) {
	t.Parallel()

	fileID := "drive-123"
	repo := &stubQueueRepo{batch: []models.DeletionQueueEntry{
		pendingEntry(enums.StorageProviderGDrive, "categories/a/product-images/x.png", &fileID),
	}}
	gdrive := &stubDeleteAdapter{provider: enums.StorageProviderGDrive}
	supabase := &stubDeleteAdapter{provider: enums.StorageProviderSupabase}

	res, err := newDrainService(t, repo, gdrive, supabase).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if res.Claimed != 1 || res.Completed != 1 {
		t.Fatalf("result = %+v, want 1 claimed 1 completed", res)
	}
	if len(gdrive.deleted) != 1 || gdrive.deleted[0].ProviderFileID != fileID {
		t.Fatalf("gdrive deletes = %v", gdrive.deleted)
	}
	if gdrive.deleted[0].StoragePath != "" {
		t.Fatal("expected file-id addressing, not path")
	}
}

func TestDrainRoutesLegacyEntriesByPath(t *testing.T) {
	t.Parallel()

	repo := &stubQueueRepo{batch: []models.DeletionQueueEntry{
		pendingEntry(enums.StorageProviderSupabase, "legacy/old.png", nil),
	}}
	gdrive := &stubDeleteAdapter{provider: enums.StorageProviderGDrive}
	supabase := &stubDeleteAdapter{provider: enums.StorageProviderSupabase}

	res, err := newDrainService(t, repo, gdrive, supabase).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if res.Completed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(supabase.deleted) != 1 || supabase.deleted[0].StoragePath != "legacy/old.png" {
		t.Fatalf("supabase deletes = %v", supabase.deleted)
	}
	if len(gdrive.deleted) != 0 {
		t.Fatalf("gdrive deletes = %v, want none", gdrive.deleted)
	}
}

func TestDrainIsolatesFailures(t *testing.T) {
	t.Parallel()

	repo := &stubQueueRepo{batch: []models.DeletionQueueEntry{
		pendingEntry(enums.StorageProviderGDrive, "a.png", nil),
		pendingEntry(enums.StorageProviderGDrive, "broken.png", nil),
		pendingEntry(enums.StorageProviderGDrive, "b.png", nil),
	}}
	gdrive := &stubDeleteAdapter{provider: enums.StorageProviderGDrive, failPath: "broken.png"}

	res, err := newDrainService(t, repo, gdrive, &stubDeleteAdapter{provider: enums.StorageProviderSupabase}).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if res.Claimed != 3 || res.Completed != 2 || res.Retried != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.retried) != 1 {
		t.Fatalf("retried = %v", repo.retried)
	}
	if repo.retried[0].retryCount != 1 {
		t.Fatalf("retry count = %d, want 1", repo.retried[0].retryCount)
	}
	if repo.retried[0].errMsg == "" {
		t.Fatal("expected error message recorded")
	}
}

func TestDrainExhaustedRetriesBecomeFailed(t *testing.T) {
	t.Parallel()

	entry := pendingEntry(enums.StorageProviderGDrive, "broken.png", nil)
	entry.RetryCount = 2 // third attempt is the last allowed
	repo := &stubQueueRepo{batch: []models.DeletionQueueEntry{entry}}
	gdrive := &stubDeleteAdapter{provider: enums.StorageProviderGDrive, failPath: "broken.png"}

	res, err := newDrainService(t, repo, gdrive, &stubDeleteAdapter{provider: enums.StorageProviderSupabase}).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if res.Failed != 1 || res.Retried != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.failed) != 1 {
		t.Fatalf("failed calls = %v", repo.failed)
	}
	call := repo.failed[0]
	if call.retryCount != 3 {
		t.Fatalf("retry count = %d, want 3", call.retryCount)
	}
	if call.errMsg == "" {
		t.Fatal("expected error message recorded")
	}
	if call.at.IsZero() {
		t.Fatal("expected processed_at timestamp")
	}
}

func TestDrainRespectsBatchSize(t *testing.T) {
	t.Parallel()

	var batch []models.DeletionQueueEntry
	for i := 0; i < 60; i++ {
		batch = append(batch, pendingEntry(enums.StorageProviderGDrive, "x.png", nil))
	}
	repo := &stubQueueRepo{batch: batch}
	gdrive := &stubDeleteAdapter{provider: enums.StorageProviderGDrive}

	res, err := newDrainService(t, repo, gdrive, &stubDeleteAdapter{provider: enums.StorageProviderSupabase}).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if res.Claimed != 50 {
		t.Fatalf("claimed = %d, want 50", res.Claimed)
	}
}

func TestReclaimStaleUsesLeaseCutoff(t *testing.T) {
	t.Parallel()

	repo := &stubQueueRepo{reclaimCount: 2}
	svc := newDrainService(t, repo, &stubDeleteAdapter{provider: enums.StorageProviderGDrive}, &stubDeleteAdapter{provider: enums.StorageProviderSupabase})

	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	reclaimed, err := svc.ReclaimStale(context.Background())
	if err != nil {
		t.Fatalf("ReclaimStale returned error: %v", err)
	}
	if reclaimed != 2 {
		t.Fatalf("reclaimed = %d, want 2", reclaimed)
	}
	if want := fixed.Add(-15 * time.Minute); !repo.reclaimCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", repo.reclaimCutoff, want)
	}
}
