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

// GeminiAdapter talks to the Google Generative Language API. Stateless:
// conversation context travels with every call as alternating contents.
type GeminiAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewGeminiAdapter(cfg config.ProviderConfig, client *http.Client) *GeminiAdapter {
	return &GeminiAdapter{cfg: cfg, client: client}
}

func (a *GeminiAdapter) ID() types.ProviderID { return types.ProviderGemini }

func (a *GeminiAdapter) Configured() bool { return a.cfg.Configured() }

func (a *GeminiAdapter) TokenCeiling(unrestricted bool) int { return a.cfg.Ceiling(unrestricted) }

func (a *GeminiAdapter) Generate(ctx context.Context, in Input) (Output, error) {
	if !a.Configured() {
		return Output{}, ErrNotConfigured
	}

	var contents []geminiContent
	for _, m := range in.History {
		role := "user"
		if m.Role == types.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: in.Message}},
	})

	body := geminiRequestBody{Contents: contents}
	if in.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: in.System}}}
	}
	if in.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: in.MaxTokens}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Output{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := a.cfg.BaseURL + "/models/" + a.cfg.Model + ":generateContent?key=" + a.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Output{}, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("%w: gemini: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Output{}, fmt.Errorf("%w: read gemini response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("%w: gemini returned status %d: %s", ErrUpstream, resp.StatusCode, string(raw))
	}

	var gr geminiResponseBody
	if err := json.Unmarshal(raw, &gr); err != nil {
		return Output{}, fmt.Errorf("%w: unmarshal gemini response: %v", ErrUpstream, err)
	}

	var content string
	if len(gr.Candidates) > 0 {
		for _, p := range gr.Candidates[0].Content.Parts {
			content += p.Text
		}
	}
	if !usableText(content) {
		// Gemini legitimately returns no candidates under safety filtering.
		return resolveEmpty(Output{}, ErrEmptyContent)
	}

	return Output{
		Content:    content,
		TokensUsed: gr.UsageMetadata.TotalTokenCount,
	}, nil
}

type geminiRequestBody struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type geminiResponseBody struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}
