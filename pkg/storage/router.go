package storage

import (
	"fmt"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// Router dispatches storage calls to the adapter registered for each
// provider. New writes go to the default provider; reads and deletes follow
// whatever provider the metadata row recorded.
type Router struct {
	adapters        map[enums.StorageProvider]Adapter
	defaultProvider enums.StorageProvider
}

// NewRouter wires the given adapters. The default provider must be among
// them.
func NewRouter(defaultProvider enums.StorageProvider, adapters ...Adapter) (*Router, error) {
	byProvider := make(map[enums.StorageProvider]Adapter, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		byProvider[adapter.Provider()] = adapter
	}
	if _, ok := byProvider[defaultProvider]; !ok {
		return nil, fmt.Errorf("storage: no adapter registered for default provider %q", defaultProvider)
	}
	return &Router{adapters: byProvider, defaultProvider: defaultProvider}, nil
}

// Default returns the adapter new uploads should use.
func (r *Router) Default() Adapter {
	return r.adapters[r.defaultProvider]
}

// DefaultProvider returns the provider new uploads are written to.
func (r *Router) DefaultProvider() enums.StorageProvider {
	return r.defaultProvider
}

// Adapters returns every registered adapter in a stable order.
func (r *Router) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, provider := range []enums.StorageProvider{enums.StorageProviderGDrive, enums.StorageProviderSupabase} {
		if adapter, ok := r.adapters[provider]; ok {
			out = append(out, adapter)
		}
	}
	return out
}

// For returns the adapter for the given provider.
func (r *Router) For(provider enums.StorageProvider) (Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("storage: no adapter registered for provider %q", provider)
	}
	return adapter, nil
}
