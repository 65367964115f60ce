package orchestrate

import (
	"github.com/qaaqit/qbot-gateway/internal/provider"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// SelectionStrategy picks the first provider to attempt. Earlier iterations
// of this logic alternated providers by calendar day and similar tricks;
// keeping selection behind an interface lets such strategies be swapped
// without touching the fallback machinery.
type SelectionStrategy interface {
	First(preferred types.ProviderID, registry *provider.Registry) types.ProviderID
}

// PriorityStrategy honors the caller's preferred provider when it is
// configured and otherwise starts at the fixed default.
type PriorityStrategy struct {
	Default types.ProviderID
}

func (s PriorityStrategy) First(preferred types.ProviderID, registry *provider.Registry) types.ProviderID {
	if preferred != "" && registry.Configured(preferred) {
		return preferred
	}
	if registry.Configured(s.Default) {
		return s.Default
	}
	// Default unconfigured: start at the first configured backend.
	if ids := registry.ConfiguredIDs(); len(ids) > 0 {
		return ids[0]
	}
	return s.Default
}

// rescueOrders is each provider's preferred fallback chain. There is no
// single global list: the cheap stateless backends rescue each other before
// falling back to the expensive stateful one, and vice versa.
var rescueOrders = map[types.ProviderID][]types.ProviderID{
	types.ProviderOpenAI:   {types.ProviderGemini, types.ProviderDeepseek, types.ProviderMistral},
	types.ProviderGemini:   {types.ProviderDeepseek, types.ProviderMistral, types.ProviderOpenAI},
	types.ProviderDeepseek: {types.ProviderMistral, types.ProviderGemini, types.ProviderOpenAI},
	types.ProviderMistral:  {types.ProviderDeepseek, types.ProviderGemini, types.ProviderOpenAI},
}

// nextProvider returns the failed provider's first rescue that is configured
// and untried, falling back to any remaining configured provider. Empty
// means the cascade is exhausted.
func nextProvider(failed types.ProviderID, tried map[types.ProviderID]bool, registry *provider.Registry) types.ProviderID {
	for _, id := range rescueOrders[failed] {
		if !tried[id] && registry.Configured(id) {
			return id
		}
	}
	for _, id := range types.AllProviders {
		if !tried[id] && registry.Configured(id) {
			return id
		}
	}
	return ""
}
