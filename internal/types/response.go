package types

// ProviderID identifies one generation backend.
type ProviderID string

const (
	ProviderOpenAI   ProviderID = "openai"
	ProviderGemini   ProviderID = "gemini"
	ProviderDeepseek ProviderID = "deepseek"
	ProviderMistral  ProviderID = "mistral"

	// ProviderFallback marks a result served from the static canned pool
	// after every configured backend failed.
	ProviderFallback ProviderID = "fallback"

	// ProviderQuota marks a result served without a backend call because
	// the free-tier daily question allowance was used up.
	ProviderQuota ProviderID = "quota"
)

// AllProviders lists the real backends in default priority order.
var AllProviders = []ProviderID{
	ProviderOpenAI,
	ProviderGemini,
	ProviderDeepseek,
	ProviderMistral,
}

// GenerationResult is the only artifact the orchestration layer exposes.
// Callers always receive one; provider failure is masked by fallback.
type GenerationResult struct {
	RequestID  string     `json:"request_id"`
	Content    string     `json:"content"`
	Provider   ProviderID `json:"provider"`
	TokensUsed int        `json:"tokens_used,omitempty"`
	LatencyMs  int64      `json:"latency_ms"`
}
