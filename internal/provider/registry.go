package provider

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/starterkit/internal/db"
	"github.com/starterkit/internal/domain"
)

var (
	// ErrProviderNotFound is returned when trying to get a provider that isn't registered
	ErrProviderNotFound = errors.New("auth provider not found")

	// ErrInvalidConfiguration is returned when provider options are incomplete
	ErrInvalidConfiguration = errors.New("invalid provider configuration")
)

// HTTPClient abstracts HTTP operations for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options carries everything a provider factory may need. Each provider
// reads only the fields it uses.
type Options struct {
	// Hosted provider
	URL        string
	APIKey     string
	HTTPClient HTTPClient
	Timeout    time.Duration

	// Local provider
	Database    *db.DB
	TokenSecret string
	TokenTTL    time.Duration
}

// Factory creates a provider instance from options
type Factory func(opts Options) (domain.AuthProvider, error)

// Registry manages the available auth providers and creates provider instances.
//
// Usage:
//
//	registry := provider.NewRegistry()
//	registry.Register("supabase", supabase.New)
//	registry.Register("local", local.New)
//
//	p, err := registry.Get(cfg.Provider.Name, opts)
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a provider factory to the registry.
// The name should be lowercase and match the provider's Name() return value.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// Get creates a provider instance using the registered factory.
// Returns ErrProviderNotFound if no provider with the given name is registered.
func (r *Registry) Get(name string, opts Options) (domain.AuthProvider, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	p, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
	}

	return p, nil
}

// IsRegistered checks if a provider with the given name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// List returns the sorted names of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
