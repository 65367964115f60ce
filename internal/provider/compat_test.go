package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

func compatServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Adapter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	adapter := NewDeepseekAdapter(config.ProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "deepseek-chat",
	}, srv.Client())
	return srv, adapter
}

func TestChatCompletions_Success(t *testing.T) {
	_, adapter := compatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}

		var body chatCompletionsRequestBody
		json.NewDecoder(r.Body).Decode(&body)
		if body.Messages[0].Role != types.RoleSystem {
			t.Errorf("expected system message first, got %s", body.Messages[0].Role)
		}
		if body.MaxTokens == nil || *body.MaxTokens != 500 {
			t.Error("expected max_tokens 500")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "• Check the purifier bowl."}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	})

	out, err := adapter.Generate(context.Background(), Input{
		System:    "You are QBOT.",
		Message:   "purifier overflowing",
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Content != "• Check the purifier bowl." {
		t.Errorf("unexpected content %q", out.Content)
	}
	if out.TokensUsed != 42 {
		t.Errorf("expected 42 tokens, got %d", out.TokensUsed)
	}
}

func TestChatCompletions_NonSuccessIsUpstreamError(t *testing.T) {
	_, adapter := compatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := adapter.Generate(context.Background(), Input{Message: "hi"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestChatCompletions_EmptyContentResolvedLocally(t *testing.T) {
	_, adapter := compatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "   "}},
			},
		})
	})

	out, err := adapter.Generate(context.Background(), Input{Message: "hi"})
	if err != nil {
		t.Fatalf("empty content must not surface as an error, got %v", err)
	}
	if out.Content == "" {
		t.Error("expected a canned micro-answer for empty content")
	}
}

func TestChatCompletions_NotConfigured(t *testing.T) {
	adapter := NewMistralAdapter(config.ProviderConfig{}, http.DefaultClient)
	_, err := adapter.Generate(context.Background(), Input{Message: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
