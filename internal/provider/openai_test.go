package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qaaqit/qbot-gateway/internal/config"
)

func openAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAIAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIAdapter(config.ProviderConfig{
		BaseURL:     srv.URL,
		APIKey:      "sk-test",
		AssistantID: "asst_test",
	}, srv.Client())
}

func TestOpenAI_CreateThread(t *testing.T) {
	adapter := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads" || r.Method != http.MethodPost {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if beta := r.Header.Get("OpenAI-Beta"); beta != "assistants=v2" {
			t.Errorf("missing assistants beta header, got %q", beta)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "thread_abc"})
	})

	id, err := adapter.CreateThread(context.Background())
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if id != "thread_abc" {
		t.Errorf("expected thread_abc, got %s", id)
	}
}

func TestOpenAI_GenerateRunLifecycle(t *testing.T) {
	polls := 0
	adapter := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/messages":
			w.Write([]byte(`{}`))
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/runs":
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/runs/run_1":
			polls++
			status := "in_progress"
			if polls >= 2 {
				status = "completed"
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "run_1", "status": status,
				"usage": map[string]int{"total_tokens": 77},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/messages":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{
						"role": "assistant",
						"content": []map[string]interface{}{
							{"type": "text", "text": map[string]string{"value": "• Drain the starting air line."}},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	out, err := adapter.Generate(context.Background(), Input{
		System:   "You are QBOT.",
		Message:  "air start valve leaking",
		ThreadID: "thread_abc",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Content != "• Drain the starting air line." {
		t.Errorf("unexpected content %q", out.Content)
	}
	if out.TokensUsed != 77 {
		t.Errorf("expected 77 tokens, got %d", out.TokensUsed)
	}
}

func TestOpenAI_UnknownThreadIsStale(t *testing.T) {
	adapter := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"No thread found"}}`))
	})

	_, err := adapter.Generate(context.Background(), Input{Message: "hi", ThreadID: "thread_gone"})
	if !errors.Is(err, ErrStaleThread) {
		t.Errorf("expected ErrStaleThread for 404, got %v", err)
	}
}

func TestOpenAI_FailedRunIsUpstream(t *testing.T) {
	adapter := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/threads/thread_abc/messages" && r.Method == http.MethodPost:
			w.Write([]byte(`{}`))
		case r.URL.Path == "/threads/thread_abc/runs":
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "failed"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	_, err := adapter.Generate(context.Background(), Input{Message: "hi", ThreadID: "thread_abc"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream for failed run, got %v", err)
	}
}
