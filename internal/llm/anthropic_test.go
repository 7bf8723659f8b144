package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.System != "be precise" {
			t.Errorf("Expected system prompt to be forwarded, got %q", req.System)
		}
		if !strings.Contains(req.Messages[0].Content, "single JSON object") {
			t.Errorf("Expected JSON instruction in prompt")
		}

		_, _ = w.Write([]byte(`{"id":"msg_1","model":"claude-3-5-haiku-20241022",
			"content":[{"type":"text","text":"{\"status\":\"satisfied\"}"}],
			"usage":{"input_tokens":40,"output_tokens":10}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{System: "be precise", Prompt: "classify", JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"status":"satisfied"}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 50 {
		t.Errorf("Expected 50 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "rate_limit_error - slow down") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestAnthropicProvider_Complete_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "unmarshal response") {
		t.Errorf("Expected unmarshal error, got %v", err)
	}
}

func TestAnthropicProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"Hello"}]}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}
}

func TestAnthropicProvider_Complete_ForcedTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].Name != recordTool {
			t.Fatalf("Expected one record tool, got %+v", req.Tools)
		}
		if req.Tools[0].InputSchema["type"] != "object" {
			t.Errorf("Expected schema to be forwarded, got %v", req.Tools[0].InputSchema)
		}
		if req.ToolChoice == nil || req.ToolChoice.Type != "tool" || req.ToolChoice.Name != recordTool {
			t.Errorf("Expected forced tool choice, got %+v", req.ToolChoice)
		}
		if strings.Contains(req.Messages[0].Content, "single JSON object") {
			t.Error("Did not expect the JSON instruction when a tool is forced")
		}

		_, _ = w.Write([]byte(`{"id":"msg_2","model":"claude-3-5-haiku-20241022","stop_reason":"tool_use",
			"content":[{"type":"text","text":"Sure."},{"type":"tool_use","name":"record","input":{"status":"refinement"}}],
			"usage":{"input_tokens":20,"output_tokens":5}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Prompt: "classify",
		Shape:  "turn_feedback",
		JSON:   true,
		Schema: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"status":"refinement"}` {
		t.Errorf("Expected tool input as text, got %s", resp.Text)
	}
}
