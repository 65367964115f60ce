package provider

import (
	"net/http"
	"sync"
	"time"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// Registry holds the provider adapters, built once at startup from
// configuration. Config hot reload swaps the adapter set through Swap while
// request goroutines keep reading, so access goes through an RWMutex.
type Registry struct {
	mu       sync.RWMutex
	adapters map[types.ProviderID]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[types.ProviderID]Adapter),
	}
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ID()] = a
}

func (r *Registry) Get(id types.ProviderID) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// Configured reports whether the provider exists and has a credential.
func (r *Registry) Configured(id types.ProviderID) bool {
	a, ok := r.Get(id)
	return ok && a.Configured()
}

// ConfiguredIDs returns the configured providers in default priority order.
func (r *Registry) ConfiguredIDs() []types.ProviderID {
	var ids []types.ProviderID
	for _, id := range types.AllProviders {
		if r.Configured(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Swap replaces the adapter set with other's. The map reference is exchanged
// under the lock, so readers see either the old set or the new one, never a
// partial mix.
func (r *Registry) Swap(other *Registry) {
	other.mu.RLock()
	adapters := other.adapters
	other.mu.RUnlock()

	r.mu.Lock()
	r.adapters = adapters
	r.mu.Unlock()
}

// BuildFromConfig builds adapters for the closed provider set. Unconfigured
// providers are still registered so that selection can skip them statically.
func BuildFromConfig(provCfg *config.ProvidersConfig) *Registry {
	registry := NewRegistry()
	for _, id := range types.AllProviders {
		cfg := provCfg.Providers[string(id)]
		if cfg.Timeout <= 0 {
			cfg.Timeout = 60 * time.Second
		}
		client := &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}

		switch id {
		case types.ProviderOpenAI:
			registry.Register(NewOpenAIAdapter(cfg, client))
		case types.ProviderGemini:
			registry.Register(NewGeminiAdapter(cfg, client))
		case types.ProviderDeepseek:
			registry.Register(NewDeepseekAdapter(cfg, client))
		case types.ProviderMistral:
			registry.Register(NewMistralAdapter(cfg, client))
		}
	}
	return registry
}
