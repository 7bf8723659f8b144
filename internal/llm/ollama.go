package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/wayfind/internal/util"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server through its chat endpoint.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
	config  Config
}

type ollamaChat struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaReply struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// NewOllamaProvider needs a model name; the base URL defaults to the local daemon.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, qwen2.5)")
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	timeout := 60 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	return &OllamaProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)},
		},
		config: config,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the daemon answers its model listing.
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Complete sends a two-message chat. A request schema is passed through as
// the format constraint, otherwise JSON requests ask for plain json mode.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	chat := ollamaChat{
		Model:    p.config.modelFor(req, ""),
		Messages: []ollamaMessage{{Role: "user", Content: req.Prompt}},
		Options: ollamaOptions{
			Temperature: p.config.temperature(req),
			NumPredict:  p.config.maxTokens(req),
		},
	}
	if req.System != "" {
		chat.Messages = append([]ollamaMessage{{Role: "system", Content: req.System}}, chat.Messages...)
	}

	format, err := ollamaFormat(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	chat.Format = format

	reply, err := p.post(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	text := strings.TrimSpace(reply.Message.Content)
	if text == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	used := reply.PromptEvalCount + reply.EvalCount
	if used == 0 {
		used = (len(req.System) + len(req.Prompt) + len(text)) / 4
	}

	return &CompletionResponse{Text: text, Model: reply.Model, TokensUsed: used}, nil
}

func ollamaFormat(req CompletionRequest) (json.RawMessage, error) {
	switch {
	case req.Schema != nil:
		doc, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("encode schema: %w", err)
		}
		return doc, nil
	case req.JSON:
		return json.RawMessage(`"json"`), nil
	}
	return nil, nil
}

func (p *OllamaProvider) post(ctx context.Context, chat ollamaChat) (*ollamaReply, error) {
	body, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var reply ollamaReply
	decodeErr := json.Unmarshal(raw, &reply)
	if httpResp.StatusCode != http.StatusOK {
		if decodeErr == nil && reply.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, reply.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", decodeErr)
	}
	return &reply, nil
}
