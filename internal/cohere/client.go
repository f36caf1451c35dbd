package cohere

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/neurosense/internal/observability"
)

const (
	baseURL   = "https://api.cohere.ai/v2/chat"
	userAgent = "neurosense/1.0"

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "command-r-plus-08-2024"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second

	maxTokens   = 300
	temperature = 0.7
)

// Sentinel errors.
var (
	// ErrAPIFailure is returned for non-2xx responses.
	ErrAPIFailure = errors.New("cohere API error")

	// ErrEmptyResponse is returned when the reply carries no text.
	ErrEmptyResponse = errors.New("empty response from Cohere")
)

// Client is a Cohere chat API client. It makes exactly one request per call.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Cohere client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		apiKey: cfg.APIKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}, nil
}

// Prompt builds the instruction sent for a user's description of their mood.
func Prompt(feeling string) string {
	return fmt.Sprintf("User feels: %s. Respond with empathy in 3-4 sentences.", feeling)
}

// Respond returns an empathetic reply to feeling.
func (c *Client) Respond(ctx context.Context, feeling string) (string, error) {
	start := time.Now()
	text, status, err := c.chat(ctx, Prompt(feeling))
	observability.ExternalRequestDuration.
		WithLabelValues("cohere", status).
		Observe(time.Since(start).Seconds())
	return text, err
}

// chat performs a single chat request and returns the reply text along with
// a status label for metrics.
func (c *Client) chat(ctx context.Context, prompt string) (string, string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", "error", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", "error", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "error", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", status, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return "", status, fmt.Errorf("%w: status %d: %s", ErrAPIFailure, resp.StatusCode, msg)
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return "", status, fmt.Errorf("parsing response: %w", err)
	}

	var sb strings.Builder
	for _, part := range chat.Message.Content {
		if part.Type == "" || part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", status, ErrEmptyResponse
	}
	return text, status, nil
}
