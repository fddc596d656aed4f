package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/narrowsfm/podgraph/pkg/config"
)

// maxCompleteRetries bounds retries of transient generation-service
// failures; pipeline stages have their own fallbacks above this.
const maxCompleteRetries = 2

// Client is a minimal chat-completion client for the generation service.
// Every pipeline call that needs text generation goes through Complete; the
// caller is responsible for fallbacks when it errors.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// NewClient creates a generation-service client using values from the
// provided config. Pass a nil config to fall back to environment variables.
func NewClient(cfg *config.LLMConfig) *Client {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("LLM_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.1-70b-versatile"
	temperature := 0.3
	maxTokens := 8000
	timeout := 120 * time.Second
	if cfg != nil {
		if cfg.Model != "" {
			model = cfg.Model
		}
		if cfg.Temperature > 0 {
			temperature = cfg.Temperature
		}
		if cfg.MaxTokens > 0 {
			maxTokens = cfg.MaxTokens
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}

	return &Client{
		apiKey:      apiKey,
		baseURL:     base,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string      `json:"model,omitempty"`
	Messages       interface{} `json:"messages,omitempty"`
	Temperature    float64     `json:"temperature,omitempty"`
	MaxTokens      int         `json:"max_tokens,omitempty"`
	ResponseFormat interface{} `json:"response_format,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a system/user prompt pair and returns the assistant
// content. The response is requested in JSON mode; callers still have to
// treat the content as untrusted and parse defensively. Transport errors
// and 5xx responses are retried with exponential backoff; 4xx responses
// are not.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": userPrompt},
	}

	reqBody := ChatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	endpoint := c.baseURL + "/openai/v1/chat/completions"

	var content string
	completeFn := func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("generation service returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("generation service returned status %d", resp.StatusCode))
		}

		var cr ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return backoff.Permanent(err)
		}
		if len(cr.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("empty response from generation service"))
		}
		content = cr.Choices[0].Message.Content
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	if err := backoff.Retry(completeFn, backoff.WithContext(backoff.WithMaxRetries(bo, maxCompleteRetries), ctx)); err != nil {
		return "", err
	}
	return content, nil
}
