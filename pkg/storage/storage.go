// Package storage defines the provider-neutral surface for physical object
// storage. Adapters translate these calls into Google Drive or Supabase
// Storage API traffic; callers never see provider SDK types.
package storage

import (
	"context"
	"io"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// Identifier locates an object at a provider. ProviderFileID is the
// preferred handle; StoragePath is the fallback for legacy records created
// before file IDs were persisted. At least one must be set.
type Identifier struct {
	ProviderFileID string
	StoragePath    string
}

// IsZero reports whether the identifier carries no usable handle.
func (id Identifier) IsZero() bool {
	return id.ProviderFileID == "" && id.StoragePath == ""
}

// ByID builds an identifier from a provider file ID.
func ByID(fileID string) Identifier {
	return Identifier{ProviderFileID: fileID}
}

// ByPath builds an identifier from a storage path.
func ByPath(path string) Identifier {
	return Identifier{StoragePath: path}
}

// UploadInput describes one object to persist.
type UploadInput struct {
	// Path is the full logical path including the file name, e.g.
	// "categories/summer-drinks/product-images/hero.png".
	Path        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object is the provider's record of a stored file after upload.
type Object struct {
	// ProviderFileID is the provider-native handle. Always set for gdrive
	// uploads; empty for providers that only address by path.
	ProviderFileID string
	// Path echoes the logical path the object was stored under.
	Path string
	// PublicURL is a browser-reachable URL for the object.
	PublicURL string
	// Size is the stored byte count as reported by the provider.
	Size int64
}

// Adapter is the provider-neutral storage contract.
//
// Delete is idempotent: deleting an object that no longer exists returns
// nil. All other failures return an error wrapping one of the sentinel
// values in errors.go where the cause is classifiable.
type Adapter interface {
	// Provider identifies which backend this adapter fronts.
	Provider() enums.StorageProvider
	// Upload persists the object and makes it publicly readable.
	Upload(ctx context.Context, in UploadInput) (*Object, error)
	// Exists reports whether the identified object is present and live
	// (trashed objects count as absent).
	Exists(ctx context.Context, id Identifier) (bool, error)
	// Delete removes the identified object. Absent objects are a success.
	Delete(ctx context.Context, id Identifier) error
	// Ping verifies credentials and reachability.
	Ping(ctx context.Context) error
}
