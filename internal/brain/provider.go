// Package brain talks to generative text providers for the astronomy tutor.
package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abelbrown/skydeck/internal/logging"
)

// ErrNoProvider is returned when no configured provider is available.
var ErrNoProvider = errors.New("no AI provider available")

// Provider is the interface for AI providers
type Provider interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to an AI provider
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the AI provider's response
type Response struct {
	Content  string
	Model    string
	Provider string
}

// ProviderManager manages multiple AI providers with fallback
type ProviderManager struct {
	mu        sync.RWMutex
	providers []Provider
	preferred string // Preferred provider name
}

// NewProviderManager creates a new provider manager
func NewProviderManager(providers ...Provider) *ProviderManager {
	return &ProviderManager{
		providers: append([]Provider(nil), providers...),
	}
}

// AddProvider adds a provider to the manager
func (pm *ProviderManager) AddProvider(p Provider) {
	pm.mu.Lock()
	pm.providers = append(pm.providers, p)
	pm.mu.Unlock()
}

// SetPreferred sets the preferred provider by name
func (pm *ProviderManager) SetPreferred(name string) {
	pm.mu.Lock()
	pm.preferred = name
	pm.mu.Unlock()
}

// GetAvailable returns the first available provider, preferring the preferred one
func (pm *ProviderManager) GetAvailable() Provider {
	candidates := pm.candidates()
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// GetByName returns a provider by name
func (pm *ProviderManager) GetByName(name string) Provider {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	for _, p := range pm.providers {
		if p.Name() == name && p.Available() {
			return p
		}
	}
	return nil
}

// ListAvailable returns names of all available providers
func (pm *ProviderManager) ListAvailable() []string {
	var names []string
	for _, p := range pm.candidates() {
		names = append(names, p.Name())
	}
	return names
}

// candidates returns available providers, preferred first.
func (pm *ProviderManager) candidates() []Provider {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	var out []Provider
	for _, p := range pm.providers {
		if p.Name() == pm.preferred && p.Available() {
			out = append(out, p)
		}
	}
	for _, p := range pm.providers {
		if p.Name() != pm.preferred && p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// Generate tries each available provider in order until one succeeds.
func (pm *ProviderManager) Generate(ctx context.Context, req Request) (Response, error) {
	candidates := pm.candidates()
	if len(candidates) == 0 {
		return Response{}, ErrNoProvider
	}

	var errs []error
	for _, p := range candidates {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			if resp.Provider == "" {
				resp.Provider = p.Name()
			}
			return resp, nil
		}
		logging.Warn("provider failed", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return Response{}, errors.Join(errs...)
}
