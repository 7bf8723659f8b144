package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected path /api/chat, got %s", r.URL.Path)
		}
		var req ollamaChat
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("Expected stream=false")
		}
		if string(req.Format) != `"json"` {
			t.Errorf("Expected format json, got %s", req.Format)
		}
		if req.Model != "llama3.1:8b" {
			t.Errorf("Unexpected model %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "classify" {
			t.Errorf("Unexpected messages %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(ollamaReply{
			Model:           "llama3.1:8b",
			Message:         ollamaMessage{Role: "assistant", Content: `{"page_type":"activity_list"}`},
			Done:            true,
			PromptEvalCount: 30,
			EvalCount:       12,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{System: "sort pages", Prompt: "classify", JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"page_type":"activity_list"}` {
		t.Errorf("Unexpected text %q", resp.Text)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_Complete_SchemaFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChat
		_ = json.NewDecoder(r.Body).Decode(&req)
		var format map[string]any
		if err := json.Unmarshal(req.Format, &format); err != nil {
			t.Errorf("Expected schema object as format, got %s", req.Format)
		}
		if format["type"] != "object" {
			t.Errorf("Unexpected schema %v", format)
		}
		if len(req.Messages) != 1 {
			t.Errorf("Expected no system message, got %d messages", len(req.Messages))
		}
		_, _ = w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"{\"status\":\"unclear\"}"},"done":true}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "m", Timeout: 5})
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Prompt: "classify",
		JSON:   true,
		Schema: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"status":"unclear"}` {
		t.Errorf("Unexpected text %q", resp.Text)
	}
	if resp.TokensUsed == 0 {
		t.Error("Expected an estimated token count")
	}
}

func TestOllamaProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "missing", Timeout: 5})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("Expected model not found error, got %v", err)
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "m"})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}
}

func TestOllamaProvider_NoModel(t *testing.T) {
	if _, err := NewOllamaProvider(Config{}); err == nil {
		t.Error("Expected error when no model is configured")
	}
}
