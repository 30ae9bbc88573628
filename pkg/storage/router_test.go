package storage

import (
	"context"
	"testing"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

type stubAdapter struct {
	provider enums.StorageProvider
}

func (s stubAdapter) Provider() enums.StorageProvider { return s.provider }
func (s stubAdapter) Upload(context.Context, UploadInput) (*Object, error) {
	return &Object{}, nil
}
func (s stubAdapter) Exists(context.Context, Identifier) (bool, error) { return false, nil }
func (s stubAdapter) Delete(context.Context, Identifier) error         { return nil }
func (s stubAdapter) Ping(context.Context) error                       { return nil }

func TestRouterDispatchesByProvider(t *testing.T) {
	t.Parallel()

	gdrive := stubAdapter{provider: enums.StorageProviderGDrive}
	supabase := stubAdapter{provider: enums.StorageProviderSupabase}

	router, err := NewRouter(enums.StorageProviderGDrive, gdrive, supabase)
	if err != nil {
		t.Fatalf("NewRouter returned error: %v", err)
	}

	if got := router.Default().Provider(); got != enums.StorageProviderGDrive {
		t.Fatalf("Default provider = %v, want gdrive", got)
	}

	adapter, err := router.For(enums.StorageProviderSupabase)
	if err != nil {
		t.Fatalf("For returned error: %v", err)
	}
	if adapter.Provider() != enums.StorageProviderSupabase {
		t.Fatalf("For(supabase) provider = %v", adapter.Provider())
	}
}

func TestRouterRequiresDefaultAdapter(t *testing.T) {
	t.Parallel()

	_, err := NewRouter(enums.StorageProviderGDrive, stubAdapter{provider: enums.StorageProviderSupabase})
	if err == nil {
		t.Fatal("expected error for missing default adapter")
	}
}

func TestIdentifierIsZero(t *testing.T) {
	t.Parallel()

	if !(Identifier{}).IsZero() {
		t.Fatal("empty identifier should be zero")
	}
	if ByID("x").IsZero() || ByPath("y").IsZero() {
		t.Fatal("populated identifiers should not be zero")
	}
}
