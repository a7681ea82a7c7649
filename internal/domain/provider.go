// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

import "strings"

// ProviderType identifies the completion provider a credential belongs to.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
)

// Default credential values applied when the store has nothing set.
const (
	DefaultProvider = ProviderOpenAI
	DefaultModel    = "gpt-4o-mini"
)

// KnownProviders lists the provider values the settings side accepts.
// Only a subset of these has an adapter registered.
func KnownProviders() []ProviderType {
	return []ProviderType{ProviderOpenAI, ProviderAnthropic}
}

// IsKnownProvider reports whether p is one of KnownProviders.
func IsKnownProvider(p string) bool {
	for _, known := range KnownProviders() {
		if ProviderType(p) == known {
			return true
		}
	}
	return false
}

// Credentials are the values read from the configuration store on every request.
type Credentials struct {
	// APIKey is the bearer credential for the provider.
	APIKey string `json:"apiKey" yaml:"apiKey"`

	// Provider selects the adapter.
	Provider string `json:"provider" yaml:"provider"`

	// Model is passed through to the provider.
	Model string `json:"model" yaml:"model"`
}

// WithDefaults returns a copy with provider and model filled in when empty.
func (c Credentials) WithDefaults() Credentials {
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = string(DefaultProvider)
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	return c
}

// Configured reports whether an API key is present.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// MaskedKey returns the key with only its first 8 and last 4 characters visible.
func (c Credentials) MaskedKey() string {
	return MaskKey(c.APIKey)
}

// MaskKey returns a masked version of an API key suitable for display.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
