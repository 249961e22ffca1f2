// internal/advisor/provider.go
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"edupath-ksa/internal/common/config"
	apphttp "edupath-ksa/internal/common/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Provider answers a single prompt with free text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

var ErrEmptyCompletion = errors.New("empty completion")

// ==========================
// OpenRouter
// ==========================

type OpenRouterProvider struct {
	client     *apphttp.Client
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
	maxRetries int
}

func NewOpenRouterProvider(cfg config.APIsConfig) *OpenRouterProvider {
	or := cfg.OpenRouter
	return &OpenRouterProvider{
		client:     apphttp.NewClient(config.GetDuration(or.Timeout)),
		baseURL:    strings.TrimRight(or.BaseURL, "/"),
		apiKey:     or.APIKey,
		model:      or.Model,
		referer:    or.Referer,
		title:      or.Title,
		maxRetries: or.MaxRetries,
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete posts a chat completion, retrying transport errors, 429 and 5xx with exponential backoff.
func (p *OpenRouterProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	payload := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if p.referer != "" {
		headers["HTTP-Referer"] = p.referer
	}
	if p.title != "" {
		headers["X-Title"] = p.title
	}

	var (
		body    []byte
		lastErr error
	)
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		body, lastErr = p.client.PostJSON(ctx, p.baseURL+"/chat/completions", headers, payload)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var statusErr *apphttp.StatusError
		if errors.As(lastErr, &statusErr) && !retryableStatus(statusErr.StatusCode) {
			break
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("openrouter: %w", lastErr)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// ==========================
// Gemini
// ==========================

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg config.APIsConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return nil, errors.New("missing gemini api key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: cfg.Gemini.Model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(0.2)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return sb.String(), nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// NewProvider builds the provider selected in configuration. It returns nil
// for "none" or when the selected provider has no API key.
func NewProvider(ctx context.Context, cfg config.APIsConfig) (Provider, error) {
	switch cfg.Provider {
	case "openrouter":
		if cfg.OpenRouter.APIKey == "" {
			return nil, nil
		}
		return NewOpenRouterProvider(cfg), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, nil
		}
		p, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, nil
	}
}
