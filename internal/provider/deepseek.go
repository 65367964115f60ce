package provider

import (
	"net/http"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// NewDeepseekAdapter wraps the Deepseek chat completions API, which follows
// the OpenAI-compatible shape.
func NewDeepseekAdapter(cfg config.ProviderConfig, client *http.Client) Adapter {
	return &chatCompletionsAdapter{id: types.ProviderDeepseek, cfg: cfg, client: client}
}
