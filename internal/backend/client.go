// Package backend is the HTTP client for the chat backend.
//
// The backend exposes a connectivity probe, a chat endpoint and an admin API
// for the server-held API key. Response bodies are read field by field with
// gjson so that a missing or mistyped field degrades into ErrUnexpectedShape
// instead of a decode failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"parley/internal/models"
)

// Client talks to one backend origin.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type setKeyRequest struct {
	APIKey string `json:"api_key"`
}

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// New creates a client for the given origin. An empty origin means
// same-origin relative paths. No client-side timeout is applied.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithHTTPClient swaps the underlying transport client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIKeyStatus reports whether the backend has a usable API key and where it came from.
func (c *Client) APIKeyStatus(ctx context.Context) (models.CredentialStatus, error) {
	data, err := c.do(ctx, "api key status", http.MethodGet, "/admin/api-key/status", nil)
	if err != nil {
		return models.CredentialStatus{}, err
	}

	configured := gjson.GetBytes(data, "configured")
	if configured.Type != gjson.True && configured.Type != gjson.False {
		return models.CredentialStatus{}, shapeError("api key status", "configured")
	}

	status := models.CredentialStatus{Configured: configured.Bool()}

	source := gjson.GetBytes(data, "source")
	switch source.Type {
	case gjson.Null:
		// absent or explicit null
	case gjson.String:
		parsed, ok := models.ParseCredentialSource(source.String())
		if !ok {
			return models.CredentialStatus{}, shapeError("api key status", "source")
		}
		status.Source = parsed
	default:
		return models.CredentialStatus{}, shapeError("api key status", "source")
	}

	return status, nil
}

// SetAPIKey stores a key in the backend's memory.
func (c *Client) SetAPIKey(ctx context.Context, apiKey string) error {
	_, err := c.do(ctx, "set api key", http.MethodPost, "/admin/api-key", setKeyRequest{APIKey: apiKey})
	return err
}

// ClearAPIKey removes the in-memory key.
func (c *Client) ClearAPIKey(ctx context.Context) error {
	_, err := c.do(ctx, "clear api key", http.MethodDelete, "/admin/api-key", nil)
	return err
}

// Test hits the connectivity endpoint and returns its message.
func (c *Client) Test(ctx context.Context) (string, error) {
	data, err := c.do(ctx, "test backend", http.MethodGet, "/test", nil)
	if err != nil {
		return "", err
	}

	message := gjson.GetBytes(data, "message")
	if message.Type != gjson.String {
		return "", shapeError("test backend", "message")
	}
	return message.String(), nil
}

// Chat sends one message and returns the model's reply.
func (c *Client) Chat(ctx context.Context, message, model string) (models.ChatReply, error) {
	data, err := c.do(ctx, "chat", http.MethodPost, "/chat", chatRequest{Message: message, Model: model})
	if err != nil {
		return models.ChatReply{}, err
	}

	response := gjson.GetBytes(data, "response")
	if response.Type != gjson.String {
		return models.ChatReply{}, shapeError("chat", "response")
	}

	reply := models.ChatReply{
		Response: response.String(),
		Model:    gjson.GetBytes(data, "model").String(),
	}
	if reply.Model == "" {
		reply.Model = model
	}

	usage := gjson.GetBytes(data, "usage")
	if usage.IsObject() {
		reply.Usage = models.Usage{
			PromptTokens:     usage.Get("prompt_tokens").Int(),
			CompletionTokens: usage.Get("completion_tokens").Int(),
			TotalTokens:      usage.Get("total_tokens").Int(),
		}
	}

	return reply, nil
}

// Health calls the liveness probe used by orchestrators.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	data, err := c.do(ctx, "health", http.MethodGet, "/health", nil)
	if err != nil {
		return models.Health{}, err
	}

	status := gjson.GetBytes(data, "status")
	if status.Type != gjson.String {
		return models.Health{}, shapeError("health", "status")
	}
	return models.Health{
		Status:  status.String(),
		Service: gjson.GetBytes(data, "service").String(),
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, unexpectedStatus(op, resp.StatusCode, resp.Body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 && !gjson.ValidBytes(data) {
		return nil, shapeError(op, "body")
	}
	return data, nil
}
