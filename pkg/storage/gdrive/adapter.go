// Package gdrive implements the storage adapter over the Google Drive v3
// API. Objects live in a folder tree mirroring their logical paths under a
// configured root folder, and every upload is granted anyone-with-link read
// access so the thumbnail URL serves without auth.
package gdrive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/adforgehq/adforge-backend/pkg/config"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/storage"
)

// Adapter fronts Google Drive. Safe for concurrent use.
type Adapter struct {
	api          driveAPI
	rootFolderID string

	mu          sync.Mutex
	folderCache map[string]string // logical folder path -> drive folder ID
}

var _ storage.Adapter = (*Adapter)(nil)

// New builds an Adapter from service-account credentials.
func New(ctx context.Context, cfg config.GDriveConfig) (*Adapter, error) {
	if cfg.RootFolderID == "" {
		return nil, fmt.Errorf("gdrive: root folder id is required")
	}
	api, err := newDriveService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newAdapter(api, cfg.RootFolderID), nil
}

func newAdapter(api driveAPI, rootFolderID string) *Adapter {
	return &Adapter{
		api:          api,
		rootFolderID: rootFolderID,
		folderCache:  make(map[string]string),
	}
}

// Provider identifies this adapter as the gdrive backend.
func (a *Adapter) Provider() enums.StorageProvider {
	return enums.StorageProviderGDrive
}

// Upload walks the folder tree for the path's directory, creating missing
// folders, stores the file under the leaf, and opens public read access.
func (a *Adapter) Upload(ctx context.Context, in storage.UploadInput) (*storage.Object, error) {
	if in.Path == "" {
		return nil, fmt.Errorf("gdrive: upload path is empty")
	}
	dir, name := path.Split(in.Path)
	if name == "" {
		return nil, fmt.Errorf("gdrive: upload path %q has no file name", in.Path)
	}

	parentID, err := a.ensureFolderPath(ctx, strings.Trim(dir, "/"))
	if err != nil {
		return nil, err
	}

	file, err := a.api.UploadFile(ctx, name, parentID, in.ContentType, in.Body)
	if err != nil {
		return nil, classify(err, "upload "+in.Path)
	}

	if err := a.api.AllowPublicRead(ctx, file.Id); err != nil {
		return nil, classify(err, "set public read on "+file.Id)
	}

	size := file.Size
	if size == 0 {
		size = in.Size
	}
	return &storage.Object{
		ProviderFileID: file.Id,
		Path:           in.Path,
		PublicURL:      PublicURL(file.Id),
		Size:           size,
	}, nil
}

// Exists prefers the file ID and falls back to a path walk for legacy
// records. Trashed files count as absent.
func (a *Adapter) Exists(ctx context.Context, id storage.Identifier) (bool, error) {
	fileID, err := a.resolveFileID(ctx, id)
	if err != nil || fileID == "" {
		return false, err
	}

	file, err := a.api.GetFile(ctx, fileID)
	if err != nil {
		if statusCode(err) == 404 {
			return false, nil
		}
		return false, classify(err, "stat "+fileID)
	}
	return !file.Trashed, nil
}

// Delete removes the file, treating an already-absent file as success.
func (a *Adapter) Delete(ctx context.Context, id storage.Identifier) error {
	fileID, err := a.resolveFileID(ctx, id)
	if err != nil {
		return err
	}
	if fileID == "" {
		// Path walk came up empty: nothing left to delete.
		return nil
	}

	if err := a.api.DeleteFile(ctx, fileID); err != nil {
		if statusCode(err) == 404 {
			return nil
		}
		return classify(err, "delete "+fileID)
	}
	return nil
}

// Ping verifies credentials against the About endpoint.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.api.About(ctx); err != nil {
		return classify(err, "ping")
	}
	return nil
}

// resolveFileID turns an identifier into a drive file ID. Returns "" with a
// nil error when a path walk finds nothing.
func (a *Adapter) resolveFileID(ctx context.Context, id storage.Identifier) (string, error) {
	if id.ProviderFileID != "" {
		return id.ProviderFileID, nil
	}
	if id.StoragePath == "" {
		return "", storage.ErrInvalidIdentifier
	}

	dir, name := path.Split(id.StoragePath)
	parentID, err := a.walkFolderPath(ctx, strings.Trim(dir, "/"))
	if err != nil || parentID == "" {
		return "", err
	}

	files, err := a.api.ListFilesByName(ctx, name, parentID)
	if err != nil {
		return "", classify(err, "lookup "+id.StoragePath)
	}
	if len(files) == 0 {
		return "", nil
	}
	return files[0].Id, nil
}

// ensureFolderPath resolves the folder for a logical directory path,
// creating any missing segments.
func (a *Adapter) ensureFolderPath(ctx context.Context, dir string) (string, error) {
	return a.folderPath(ctx, dir, true)
}

// walkFolderPath resolves the folder without creating anything. Returns ""
// when a segment does not exist.
func (a *Adapter) walkFolderPath(ctx context.Context, dir string) (string, error) {
	return a.folderPath(ctx, dir, false)
}

func (a *Adapter) folderPath(ctx context.Context, dir string, create bool) (string, error) {
	parentID := a.rootFolderID
	if dir == "" {
		return parentID, nil
	}

	walked := ""
	for _, segment := range strings.Split(dir, "/") {
		if segment == "" {
			continue
		}
		walked = path.Join(walked, segment)

		if cached, ok := a.cachedFolder(walked); ok {
			parentID = cached
			continue
		}

		folders, err := a.api.ListFolders(ctx, segment, parentID)
		if err != nil {
			return "", classify(err, "list folder "+walked)
		}

		switch {
		case len(folders) > 0:
			parentID = folders[0].Id
		case create:
			folder, err := a.api.CreateFolder(ctx, segment, parentID)
			if err != nil {
				return "", classify(err, "create folder "+walked)
			}
			parentID = folder.Id
		default:
			return "", nil
		}
		a.cacheFolder(walked, parentID)
	}
	return parentID, nil
}

func (a *Adapter) cachedFolder(dir string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.folderCache[dir]
	return id, ok
}

func (a *Adapter) cacheFolder(dir, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folderCache[dir] = id
}

// PublicURL returns the browser-reachable URL for a drive file. The
// thumbnail endpoint serves the raw image bytes for public files without a
// consent interstitial.
func PublicURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w2000", fileID)
}

// classify wraps drive errors with the provider-neutral sentinels.
func classify(err error, op string) error {
	code := statusCode(err)
	switch {
	case code == 404:
		return fmt.Errorf("gdrive: %s: %w", op, storage.ErrNotFound)
	case isRetryable(code):
		return fmt.Errorf("gdrive: %s: %v: %w", op, err, storage.ErrUnavailable)
	default:
		return fmt.Errorf("gdrive: %s: %w", op, err)
	}
}
