package config

import "time"

type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`

	// Token ceilings are asymmetric by tier: unrestricted identities get
	// the premium value.
	MaxTokens        int `yaml:"max_tokens"`
	MaxTokensPremium int `yaml:"max_tokens_premium"`

	// AssistantID is only meaningful for the openai provider, which keeps
	// durable server-side threads.
	AssistantID string `yaml:"assistant_id,omitempty"`

	Headers map[string]string `yaml:"headers,omitempty"`
}

// Configured reports whether the provider has a credential. An absent
// api_key is equivalent to the provider not existing.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

// Default token ceilings applied when the config leaves them unset.
const (
	DefaultMaxTokens        = 600
	DefaultMaxTokensPremium = 2000
)

// Ceiling returns the token ceiling for the given tier.
func (p ProviderConfig) Ceiling(unrestricted bool) int {
	if unrestricted {
		if p.MaxTokensPremium > 0 {
			return p.MaxTokensPremium
		}
		return DefaultMaxTokensPremium
	}
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return DefaultMaxTokens
}
