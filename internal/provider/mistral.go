package provider

import (
	"net/http"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// NewMistralAdapter wraps the Mistral chat completions API, which follows
// the OpenAI-compatible shape.
func NewMistralAdapter(cfg config.ProviderConfig, client *http.Client) Adapter {
	return &chatCompletionsAdapter{id: types.ProviderMistral, cfg: cfg, client: client}
}
