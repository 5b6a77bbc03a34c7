// Package providers implements the model provider adapters. The loosely
// typed JSON the completion/embedding APIs return is decoded into typed
// structs here; nothing past this boundary inspects raw response fields.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mnemo-ai/mnemo/internal/memory"
)

var (
	// ErrNoAPIKey is returned at construction when no credential was
	// supplied. Surfaced to the caller as user-actionable, unlike
	// transient request failures.
	ErrNoAPIKey = errors.New("provider API key is required")

	// ErrEmptyResponse is returned when the API answered 200 with no
	// usable payload.
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// Config configures an OpenAI-compatible provider instance. The
// credential is passed at construction; there is no ambient default
// client.
type Config struct {
	APIKey     string
	APIBase    string // default https://api.openai.com/v1
	ChatModel  string
	EmbedModel string

	// RequestsPerMinute throttles outgoing calls. 0 disables throttling.
	RequestsPerMinute int
}

// OpenAIProvider talks to any OpenAI-compatible chat-completions +
// embeddings API. It implements memory.Provider.
type OpenAIProvider struct {
	name       string
	apiKey     string
	apiBase    string
	chatModel  string
	embedModel string
	client     *http.Client
	limiter    *rate.Limiter
}

func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultOpenAIBase
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	return &OpenAIProvider{
		name:       "openai",
		apiKey:     cfg.APIKey,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		chatModel:  chatModel,
		embedModel: embedModel,
		client:     &http.Client{Timeout: 60 * time.Second},
		limiter:    limiter,
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

// --- Wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements memory.Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req memory.CompletionRequest) (string, error) {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       p.chatModel,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var resp chatResponse
	if err := p.post(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed implements memory.Provider. One vector per input text, in input
// order.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	if err := p.post(ctx, "/embeddings", embeddingRequest{Model: p.embedModel, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}

func (p *OpenAIProvider) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%s read response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s: %s (%s, status %d)", path, apiErr.Error.Message, apiErr.Error.Type, resp.StatusCode)
		}
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s decode response: %w", path, err)
	}

	slog.Debug("provider call", "provider", p.name, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))
	return nil
}
