package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

// OpenAIAdapter talks to the OpenAI Assistants API. It is the one backend
// with durable server-side threads: the caller passes a thread id and the
// provider retains the multi-turn context itself.
type OpenAIAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewOpenAIAdapter(cfg config.ProviderConfig, client *http.Client) *OpenAIAdapter {
	return &OpenAIAdapter{cfg: cfg, client: client}
}

func (a *OpenAIAdapter) ID() types.ProviderID { return types.ProviderOpenAI }

func (a *OpenAIAdapter) Configured() bool { return a.cfg.Configured() && a.cfg.AssistantID != "" }

func (a *OpenAIAdapter) TokenCeiling(unrestricted bool) int { return a.cfg.Ceiling(unrestricted) }

const runPollInterval = 800 * time.Millisecond

// CreateThread creates a new empty assistant thread and returns its id.
func (a *OpenAIAdapter) CreateThread(ctx context.Context) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := a.call(ctx, http.MethodPost, "/threads", nil, &created); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return created.ID, nil
}

func (a *OpenAIAdapter) Generate(ctx context.Context, in Input) (Output, error) {
	if !a.Configured() {
		return Output{}, ErrNotConfigured
	}
	if in.ThreadID == "" {
		return Output{}, fmt.Errorf("%w: missing thread id", ErrUpstream)
	}

	// Append the user message to the thread.
	msgBody := map[string]string{"role": types.RoleUser, "content": in.Message}
	if err := a.call(ctx, http.MethodPost, "/threads/"+in.ThreadID+"/messages", msgBody, nil); err != nil {
		return Output{}, err
	}

	// Start a run with the composed instructions.
	runBody := openAIRunBody{
		AssistantID:  a.cfg.AssistantID,
		Instructions: in.System,
	}
	if in.MaxTokens > 0 {
		runBody.MaxCompletionTokens = &in.MaxTokens
	}
	var run openAIRun
	if err := a.call(ctx, http.MethodPost, "/threads/"+in.ThreadID+"/runs", runBody, &run); err != nil {
		return Output{}, err
	}

	// Poll until the run settles or the attempt deadline expires.
	for run.Status == "queued" || run.Status == "in_progress" {
		select {
		case <-ctx.Done():
			return Output{}, fmt.Errorf("%w: run polling: %v", ErrUpstream, ctx.Err())
		case <-time.After(runPollInterval):
		}
		if err := a.call(ctx, http.MethodGet, "/threads/"+in.ThreadID+"/runs/"+run.ID, nil, &run); err != nil {
			return Output{}, err
		}
	}
	if run.Status != "completed" {
		return Output{}, fmt.Errorf("%w: run ended with status %s", ErrUpstream, run.Status)
	}

	// Fetch the newest assistant message.
	var msgs openAIMessageList
	if err := a.call(ctx, http.MethodGet, "/threads/"+in.ThreadID+"/messages?limit=1&order=desc", nil, &msgs); err != nil {
		return Output{}, err
	}

	var content string
	for _, m := range msgs.Data {
		if m.Role != types.RoleAssistant {
			continue
		}
		for _, c := range m.Content {
			if c.Type == "text" {
				content = c.Text.Value
				break
			}
		}
		break
	}
	if !usableText(content) {
		return resolveEmpty(Output{}, ErrEmptyContent)
	}

	return Output{
		Content:    content,
		TokensUsed: run.Usage.TotalTokens,
	}, nil
}

// call performs one Assistants API request and decodes the response into out.
// A 404 on a thread path is reported as ErrStaleThread so the conversation
// store can recreate the handle.
func (a *OpenAIAdapter) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal openai request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	for k, v := range a.cfg.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openai: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read openai response: %v", ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrStaleThread, string(data))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: openai returned status %d: %s", ErrUpstream, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: unmarshal openai response: %v", ErrUpstream, err)
		}
	}
	return nil
}

type openAIRunBody struct {
	AssistantID         string `json:"assistant_id"`
	Instructions        string `json:"instructions,omitempty"`
	MaxCompletionTokens *int   `json:"max_completion_tokens,omitempty"`
}

type openAIRun struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Usage  struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIMessageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}
