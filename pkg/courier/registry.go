package courier

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a provider instance from a configuration bundle.
type Factory func(cfg Config) (Courier, error)

type registration struct {
	factory    Factory
	defaultCfg Config
}

// Registry maps provider identifiers to factories and caches the live
// instances they produce. It is an explicit object: whoever composes the
// system constructs one and hands it to the components that need it.
type Registry struct {
	mu        sync.Mutex
	types     map[string]registration
	instances map[string]Courier
}

// NewRegistry creates an empty courier registry.
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[string]registration),
		instances: make(map[string]Courier),
	}
}

// Register adds a provider factory under the given identifier together with
// the default configuration used when Get constructs lazily. Registering the
// same identifier again replaces the factory and drops any cached instance.
func (r *Registry) Register(name string, defaultCfg Config, factory Factory) {
	key := normalizeProvider(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[key] = registration{factory: factory, defaultCfg: defaultCfg}
	delete(r.instances, key)
}

// Get returns the cached instance for the identifier, constructing one with
// the registered default configuration on first use. Lookup, construction
// and insertion happen under one lock so concurrent callers never construct
// duplicates.
func (r *Registry) Get(name string) (Courier, error) {
	key := normalizeProvider(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.instances[key]; ok {
		return c, nil
	}

	reg, ok := r.types[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrProviderNotFound, name, strings.Join(r.registeredLocked(), ", "))
	}

	c, err := reg.factory(reg.defaultCfg)
	if err != nil {
		return nil, err
	}
	r.instances[key] = c
	return c, nil
}

// GetWithConfig constructs a fresh instance with an explicit configuration
// and replaces the cache entry for the identifier.
func (r *Registry) GetWithConfig(name string, cfg Config) (Courier, error) {
	key := normalizeProvider(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.types[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrProviderNotFound, name, strings.Join(r.registeredLocked(), ", "))
	}

	c, err := reg.factory(cfg)
	if err != nil {
		return nil, err
	}
	r.instances[key] = c
	return c, nil
}

// Providers returns the registered identifiers in sorted order.
func (r *Registry) Providers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registeredLocked()
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.types)
}

// BestCourier picks a provider identifier for the given lane. Domestic Saudi
// shipments route to SMSA when registered; otherwise the simulation provider
// when registered; otherwise the first registered identifier in sorted
// order. Fails only when the registry is empty.
func (r *Registry) BestCourier(origin, destination string, weight float64, priority Priority) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.types) == 0 {
		return "", ErrNoProviders
	}

	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))

	if origin == "SA" && destination == "SA" {
		if _, ok := r.types[ProviderSMSA]; ok {
			return ProviderSMSA, nil
		}
	}
	if _, ok := r.types[ProviderMock]; ok {
		return ProviderMock, nil
	}
	return r.registeredLocked()[0], nil
}

// SupportsFeature resolves the provider and delegates to its feature check.
// Resolution failures of any kind read as false, never an error.
func (r *Registry) SupportsFeature(name string, f Feature) bool {
	c, err := r.Get(name)
	if err != nil {
		return false
	}
	return c.SupportsFeature(f)
}

func (r *Registry) registeredLocked() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProvider(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
