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

	"go.uber.org/zap"
)

// GroqClient talks to the Groq chat completions API. Any OpenAI-compatible
// endpoint works by pointing BaseURL at it.
type GroqClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
}

// GroqOption configures a GroqClient.
type GroqOption func(*GroqClient)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) GroqOption {
	return func(c *GroqClient) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) GroqOption {
	return func(c *GroqClient) {
		c.client.Timeout = d
	}
}

// WithSampling sets temperature and max completion tokens.
func WithSampling(temperature float64, maxTokens int) GroqOption {
	return func(c *GroqClient) {
		c.temperature = temperature
		c.maxTokens = maxTokens
	}
}

// NewGroqClient creates a client for the given API key and model. An empty
// key yields an unconfigured client whose calls fail until a key is set.
func NewGroqClient(apiKey, baseURL, model string, opts ...GroqOption) *GroqClient {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	c := &GroqClient{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: 0.3,
		maxTokens:   1024,
		client:      &http.Client{Timeout: 60 * time.Second},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends messages and returns the first choice's content.
func (c *GroqClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("API key not set")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)))

	return out.Choices[0].Message.Content, nil
}

// Configured reports whether an API key is present.
func (c *GroqClient) Configured() bool {
	return c.apiKey != ""
}

// Close is a no-op for GroqClient.
func (c *GroqClient) Close() error {
	return nil
}
