// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to hide each provider's wire format behind a common interface.
package adapter

import (
	"context"
	"sort"
	"sync"

	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// Provider issues a single completion for a prompt.
// All provider implementations must satisfy this interface.
type Provider interface {
	// Complete sends prompt to the provider and returns the raw text of the
	// first completion. The text is not parsed.
	Complete(ctx context.Context, prompt string, creds domain.Credentials) (string, error)

	// Name returns the provider's identifier string, matching Credentials.Provider.
	Name() string
}

// Registry maps provider names to adapters. It is the extension point for
// additional providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider under its Name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
