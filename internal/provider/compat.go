package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// chatCompletionsAdapter covers the OpenAI-compatible chat completions shape
// shared by Deepseek and Mistral. Stateless per call: the system prompt and
// history are resent every time.
type chatCompletionsAdapter struct {
	id     types.ProviderID
	cfg    config.ProviderConfig
	client *http.Client
}

func (a *chatCompletionsAdapter) ID() types.ProviderID { return a.id }

func (a *chatCompletionsAdapter) Configured() bool { return a.cfg.Configured() }

func (a *chatCompletionsAdapter) TokenCeiling(unrestricted bool) int { return a.cfg.Ceiling(unrestricted) }

func (a *chatCompletionsAdapter) Generate(ctx context.Context, in Input) (Output, error) {
	if !a.Configured() {
		return Output{}, ErrNotConfigured
	}

	messages := make([]types.Message, 0, len(in.History)+2)
	if in.System != "" {
		messages = append(messages, types.Message{Role: types.RoleSystem, Content: in.System})
	}
	messages = append(messages, in.History...)
	messages = append(messages, types.Message{Role: types.RoleUser, Content: in.Message})

	body := chatCompletionsRequestBody{
		Model:    a.cfg.Model,
		Messages: messages,
	}
	if in.MaxTokens > 0 {
		body.MaxTokens = &in.MaxTokens
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Output{}, fmt.Errorf("marshal %s request: %w", a.id, err)
	}

	url := a.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Output{}, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	for k, v := range a.cfg.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %s: %v", ErrUpstream, a.id, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Output{}, fmt.Errorf("%w: read %s response: %v", ErrUpstream, a.id, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("%w: %s returned status %d: %s", ErrUpstream, a.id, resp.StatusCode, string(raw))
	}

	var cr chatCompletionsResponseBody
	if err := json.Unmarshal(raw, &cr); err != nil {
		return Output{}, fmt.Errorf("%w: unmarshal %s response: %v", ErrUpstream, a.id, err)
	}

	var content string
	if len(cr.Choices) > 0 {
		content = cr.Choices[0].Message.Content
	}
	if !usableText(content) {
		return resolveEmpty(Output{}, ErrEmptyContent)
	}

	return Output{
		Content:    content,
		TokensUsed: cr.Usage.TotalTokens,
	}, nil
}

type chatCompletionsRequestBody struct {
	Model     string          `json:"model"`
	Messages  []types.Message `json:"messages"`
	MaxTokens *int            `json:"max_tokens,omitempty"`
}

type chatCompletionsResponseBody struct {
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      types.Message `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
