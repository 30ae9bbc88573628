// Package reconciler sweeps asset metadata against physical storage and
// removes rows whose objects no longer exist. It is the inverse of the
// deletion queue: the queue cleans up bytes for deleted rows, the
// reconciler cleans up rows for deleted bytes. It never touches physical
// objects itself.
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/db/models"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
	"github.com/adforgehq/adforge-backend/pkg/logger"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

const sweepPageSize = 500

type assetSource interface {
	ListForSweep(ctx context.Context, kind enums.AssetKind, afterID uuid.UUID, limit int) ([]models.Asset, error)
	BatchDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountByKind(ctx context.Context) (map[enums.AssetKind]int64, error)
}

type adapterResolver interface {
	For(provider enums.StorageProvider) (storage.Adapter, error)
}

// KindStats aggregates one kind's sweep outcome.
type KindStats struct {
	Total    int `json:"total"`
	Orphaned int `json:"orphaned"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
}

// OrphanSummary identifies one metadata row whose object is gone.
type OrphanSummary struct {
	AssetID        uuid.UUID       `json:"asset_id"`
	Kind           enums.AssetKind `json:"kind"`
	StoragePath    string          `json:"storage_path"`
	ProviderFileID string          `json:"provider_file_id,omitempty"`
}

// Result summarizes a full reconciliation run.
type Result struct {
	DryRun     bool                          `json:"dry_run"`
	StartedAt  time.Time                     `json:"started_at"`
	FinishedAt time.Time                     `json:"finished_at"`
	PerKind    map[enums.AssetKind]KindStats `json:"per_kind"`
	Totals     KindStats                     `json:"totals"`
	Orphans    []OrphanSummary               `json:"orphans"`
}

// Options tunes a reconciliation pass.
type Options struct {
	// DryRun reports orphans without deleting their metadata rows.
	DryRun bool
	// Kinds limits the sweep; empty means all kinds.
	Kinds []enums.AssetKind
}

// Service runs metadata-vs-storage sweeps.
type Service struct {
	repo     assetSource
	adapters adapterResolver
	log      *logger.Logger
	policy   enums.OrphanPolicy

	throttleEvery int
	throttlePause time.Duration
	sleep         func(time.Duration)

	mu      sync.Mutex
	lastRun *Result
}

// NewService constructs the reconciler.
func NewService(repo assetSource, adapters adapterResolver, log *logger.Logger, policy enums.OrphanPolicy, throttleEvery int, throttlePause time.Duration) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("asset source required")
	}
	if adapters == nil {
		return nil, fmt.Errorf("adapter resolver required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid orphan policy %q", policy)
	}
	if throttleEvery <= 0 {
		return nil, fmt.Errorf("throttle interval must be positive")
	}
	return &Service{
		repo:          repo,
		adapters:      adapters,
		log:           log,
		policy:        policy,
		throttleEvery: throttleEvery,
		throttlePause: throttlePause,
		sleep:         time.Sleep,
	}, nil
}

// Reconcile sweeps each kind's metadata against storage. Existence checks
// are throttled to avoid hammering provider APIs; metadata deletes happen in
// one batch per kind after the sweep.
func (s *Service) Reconcile(ctx context.Context, opts Options) (*Result, error) {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = enums.AllAssetKinds()
	}

	result := &Result{
		DryRun:    opts.DryRun,
		StartedAt: time.Now(),
		PerKind:   make(map[enums.AssetKind]KindStats, len(kinds)),
	}

	checks := 0
	for _, kind := range kinds {
		stats, err := s.sweepKind(ctx, kind, opts.DryRun, &checks, result)
		if err != nil {
			return nil, err
		}
		result.PerKind[kind] = *stats
		result.Totals.Total += stats.Total
		result.Totals.Orphaned += stats.Orphaned
		result.Totals.Deleted += stats.Deleted
		result.Totals.Skipped += stats.Skipped
	}
	result.FinishedAt = time.Now()

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"dry_run":  result.DryRun,
		"total":    result.Totals.Total,
		"orphaned": result.Totals.Orphaned,
		"deleted":  result.Totals.Deleted,
		"skipped":  result.Totals.Skipped,
	}), "reconciliation pass finished")
	return result, nil
}

// LastRun returns the most recent run's result, or nil before the first run.
func (s *Service) LastRun() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Status reports how many storage-backed records exist per kind. Purely
// diagnostic; it reads metadata only.
func (s *Service) Status(ctx context.Context) (map[enums.AssetKind]int64, error) {
	counts, err := s.repo.CountByKind(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count assets by kind")
	}
	return counts, nil
}

func (s *Service) sweepKind(ctx context.Context, kind enums.AssetKind, dryRun bool, checks *int, result *Result) (*KindStats, error) {
	stats := &KindStats{}
	var orphanIDs []uuid.UUID

	afterID := uuid.Nil
	for {
		page, err := s.repo.ListForSweep(ctx, kind, afterID, sweepPageSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets for sweep")
		}
		if len(page) == 0 {
			break
		}
		afterID = page[len(page)-1].ID

		for i := range page {
			asset := &page[i]
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			stats.Total++

			orphaned, skipped := s.checkAsset(ctx, asset)
			if skipped {
				stats.Skipped++
			} else if orphaned {
				stats.Orphaned++
				orphanIDs = append(orphanIDs, asset.ID)
				summary := OrphanSummary{AssetID: asset.ID, Kind: asset.Kind, StoragePath: asset.StoragePath}
				if asset.ProviderFileID != nil {
					summary.ProviderFileID = *asset.ProviderFileID
				}
				result.Orphans = append(result.Orphans, summary)
			}

			*checks++
			if s.throttlePause > 0 && *checks%s.throttleEvery == 0 {
				s.sleep(s.throttlePause)
			}
		}
		if len(page) < sweepPageSize {
			break
		}
	}

	if dryRun || len(orphanIDs) == 0 {
		return stats, nil
	}

	deleted, err := s.repo.BatchDelete(ctx, orphanIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete orphaned metadata")
	}
	stats.Deleted = int(deleted)
	return stats, nil
}

// checkAsset reports (orphaned, skipped). A definitive not-found means
// orphaned; an ambiguous check error falls to the configured policy.
func (s *Service) checkAsset(ctx context.Context, asset *models.Asset) (bool, bool) {
	adapter, err := s.adapters.For(asset.StorageProvider)
	if err != nil {
		s.log.Error(s.assetCtx(ctx, asset), "no adapter for asset provider", err)
		return false, true
	}

	id := storage.ByPath(asset.StoragePath)
	if asset.ProviderFileID != nil && *asset.ProviderFileID != "" {
		id = storage.ByID(*asset.ProviderFileID)
	}

	exists, err := adapter.Exists(ctx, id)
	if err != nil {
		if s.policy == enums.OrphanPolicyAggressive {
			s.log.Warn(s.assetCtx(ctx, asset), "existence check failed, treating as orphan per policy")
			return true, false
		}
		s.log.Warn(s.assetCtx(ctx, asset), "existence check failed, skipping per policy")
		return false, true
	}
	return !exists, false
}

func (s *Service) assetCtx(ctx context.Context, asset *models.Asset) context.Context {
	return s.log.WithFields(ctx, map[string]any{
		"asset_id":     asset.ID.String(),
		"kind":         asset.Kind.String(),
		"provider":     asset.StorageProvider.String(),
		"storage_path": asset.StoragePath,
	})
}
