package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a Gemini API client
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, missingKey("Gemini")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable issues a tiny generation request
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Models.GenerateContent(ctx, p.config.modelFor(CompletionRequest{}, defaultGeminiModel), genai.Text("Hi"), &genai.GenerateContentConfig{
		MaxOutputTokens: 5,
	})
	return err == nil
}

// Complete runs GenerateContent with the request's system instruction
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	modelName := p.config.modelFor(req, defaultGeminiModel)
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](float32(p.config.temperature(req))),
		MaxOutputTokens: int32(p.config.maxTokens(req)),
	}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
		if req.Schema != nil {
			genConfig.ResponseJsonSchema = req.Schema
		}
	}

	result, err := p.client.Models.GenerateContent(ctx, modelName, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	tokens := 0
	if result.UsageMetadata != nil {
		tokens = int(result.UsageMetadata.TotalTokenCount)
	}

	return &CompletionResponse{Text: text, Model: modelName, TokensUsed: tokens}, nil
}
