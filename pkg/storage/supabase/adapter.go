// Package supabase implements the storage adapter over Supabase Storage.
// It exists for legacy records created before the Drive migration: objects
// are addressed by bucket-relative path only, never by provider file ID.
package supabase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

// supabaseAPI is the slice of the storage-go client the adapter needs.
type supabaseAPI interface {
	UploadFile(bucketID, relativePath string, data io.Reader, options ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error)
	ListFiles(bucketID, queryPath string, options storage_go.FileSearchOptions) ([]storage_go.FileObject, error)
}

var _ supabaseAPI = (*storage_go.Client)(nil)

// Adapter fronts a single Supabase Storage bucket.
type Adapter struct {
	api     supabaseAPI
	bucket  string
	baseURL string
}

var _ storage.Adapter = (*Adapter)(nil)

// New builds an Adapter from project credentials.
func New(cfg config.SupabaseConfig) (*Adapter, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase: url and service role key are required")
	}
	baseURL := strings.TrimRight(cfg.URL, "/")
	client := storage_go.NewClient(baseURL+"/storage/v1", cfg.ServiceRoleKey, nil)
	return newAdapter(client, cfg.Bucket, baseURL), nil
}

func newAdapter(api supabaseAPI, bucket, baseURL string) *Adapter {
	return &Adapter{api: api, bucket: bucket, baseURL: baseURL}
}

// Provider identifies this adapter as the legacy supabase backend.
func (a *Adapter) Provider() enums.StorageProvider {
	return enums.StorageProviderSupabase
}

// Upload stores the object with upsert semantics. Kept for completeness;
// new writes normally target the default provider instead.
func (a *Adapter) Upload(ctx context.Context, in storage.UploadInput) (*storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Path == "" {
		return nil, fmt.Errorf("supabase: upload path is empty")
	}

	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if in.ContentType != "" {
		contentType := in.ContentType
		opts.ContentType = &contentType
	}
	if _, err := a.api.UploadFile(a.bucket, in.Path, in.Body, opts); err != nil {
		return nil, fmt.Errorf("supabase: upload %s: %w", in.Path, err)
	}

	return &storage.Object{
		Path:      in.Path,
		PublicURL: a.publicURL(in.Path),
		Size:      in.Size,
	}, nil
}

// Exists lists the object's directory and matches on the file name.
func (a *Adapter) Exists(ctx context.Context, id storage.Identifier) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	storagePath, err := requirePath(id)
	if err != nil {
		return false, err
	}

	dir, name := path.Split(storagePath)
	files, err := a.api.ListFiles(a.bucket, strings.Trim(dir, "/"), storage_go.FileSearchOptions{Limit: 1000})
	if err != nil {
		return false, fmt.Errorf("supabase: list %s: %w", dir, err)
	}
	for _, file := range files {
		if file.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the object. Supabase treats missing paths as a no-op, so
// the call is idempotent without extra handling.
func (a *Adapter) Delete(ctx context.Context, id storage.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	storagePath, err := requirePath(id)
	if err != nil {
		return err
	}

	if _, err := a.api.RemoveFile(a.bucket, []string{storagePath}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("supabase: delete %s: %w", storagePath, err)
	}
	return nil
}

// Ping lists the bucket root to verify credentials and reachability.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.api.ListFiles(a.bucket, "", storage_go.FileSearchOptions{Limit: 1}); err != nil {
		return fmt.Errorf("supabase: ping: %w", err)
	}
	return nil
}

func (a *Adapter) publicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", a.baseURL, a.bucket, storagePath)
}

// requirePath enforces path-only addressing; supabase has no provider file
// IDs.
func requirePath(id storage.Identifier) (string, error) {
	if id.StoragePath == "" {
		return "", storage.ErrInvalidIdentifier
	}
	return id.StoragePath, nil
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
}
