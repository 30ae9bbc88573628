package enums

import "fmt"

// StorageProvider identifies the physical backend holding an object's bytes.
type StorageProvider string

const (
	StorageProviderGDrive   StorageProvider = "gdrive"
	StorageProviderSupabase StorageProvider = "supabase"
)

var validStorageProviders = []StorageProvider{
	StorageProviderGDrive,
	StorageProviderSupabase,
}

// String returns the literal string for the provider.
func (s StorageProvider) String() string {
	return string(s)
}

// IsValid reports whether the provider is known.
func (s StorageProvider) IsValid() bool {
	for _, candidate := range validStorageProviders {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStorageProvider converts raw input into a StorageProvider.
func ParseStorageProvider(value string) (StorageProvider, error) {
	for _, candidate := range validStorageProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid storage provider %q", value)
}
