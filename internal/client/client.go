// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client implements the chat completion client for the x.ai API.
//
// Requests can travel one of two paths: directly to the hosted API with a
// bearer token header, or through the local forwarding server, which holds
// the key server-side and injects the header itself. The caller picks the
// path per request via the client's forwarder setting.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the x.ai chat completions API.
const (
	// DefaultEndpoint is the hosted chat completions endpoint.
	DefaultEndpoint = "https://api.x.ai/v1/chat/completions"

	// DefaultForwarderURL is where the local forwarding server listens.
	DefaultForwarderURL = "http://127.0.0.1:8090"

	// ForwarderChatPath is the forwarding server's single chat route.
	ForwarderChatPath = "/api/chat"

	// DefaultModel is the model requested on every completion.
	DefaultModel = "grok-beta"

	// DefaultTemperature is sent with every request.
	DefaultTemperature = 0.7

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// ErrNotConfigured indicates no API key is set.
var ErrNotConfigured = errors.New("API key not configured")

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage represents a single message in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// chatRequest is the direct-path request body sent to the hosted API.
type chatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

// forwardRequest is the forwarder-path request body. The credential rides
// in the body; the forwarding server turns it into the bearer header.
type forwardRequest struct {
	APIKey      string        `json:"apiKey"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

// Usage reports the token split for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one completion candidate in a response.
type Choice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatResponse represents a response from the chat completions endpoint.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// HasUsage reports whether the response carried a token split.
func (r *ChatResponse) HasUsage() bool {
	return r.Usage != nil
}

// apiErrorResponse covers the error shapes both paths can return: the
// hosted API nests the message under "error.message", while the
// forwarding server uses flat "error"/"details" strings.
type apiErrorResponse struct {
	Error   json.RawMessage `json:"error"`
	Details string          `json:"details"`
}

// errorMessage digs the human-readable message out of whichever shape
// the body used. Returns "" when nothing useful was found.
func (e *apiErrorResponse) errorMessage() string {
	if len(e.Error) == 0 {
		return e.Details
	}

	// Flat string form: {"error": "...", "details": "..."}
	var flat string
	if err := json.Unmarshal(e.Error, &flat); err == nil {
		if e.Details != "" {
			return flat + ": " + e.Details
		}
		return flat
	}

	// Nested form: {"error": {"message": "...", "code": "..."}}
	var nested struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(e.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}

	return e.Details
}

// APIError represents a non-2xx response from either path.
type APIError struct {
	Status     int    // HTTP status code
	StatusText string // e.g. "Unauthorized"
	Detail     string // server-provided error text, may be empty
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error (HTTP %d %s): %s", e.Status, e.StatusText, e.Detail)
	}
	return fmt.Sprintf("API error (HTTP %d %s)", e.Status, e.StatusText)
}

// =============================================================================
// CLIENT TYPE
// =============================================================================

// Client sends chat completion requests over the direct or forwarded path.
type Client struct {
	apiKey       string
	endpoint     string
	forwarderURL string
	useForwarder bool
	model        string
	temperature  float64
	httpClient   *http.Client
}

// New creates a client with the given API key and default settings.
//
// An empty key still yields a usable client; Complete then fails with
// ErrNotConfigured before any network traffic happens.
func New(apiKey string) *Client {
	return &Client{
		apiKey:       strings.TrimSpace(apiKey),
		endpoint:     DefaultEndpoint,
		forwarderURL: DefaultForwarderURL,
		model:        DefaultModel,
		temperature:  DefaultTemperature,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
	}
}

// WithEndpoint sets a custom direct API endpoint.
func (c *Client) WithEndpoint(url string) *Client {
	c.endpoint = strings.TrimSuffix(url, "/")
	return c
}

// WithForwarderURL sets the base URL of the local forwarding server.
func (c *Client) WithForwarderURL(url string) *Client {
	c.forwarderURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the model requested on completions.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// WithTemperature sets the sampling temperature.
func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = t
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// SetAPIKey replaces the credential.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = strings.TrimSpace(key)
}

// SetUseForwarder switches between the direct and forwarded paths.
func (c *Client) SetUseForwarder(enabled bool) {
	c.useForwarder = enabled
}

// UseForwarder reports which path the next request takes.
func (c *Client) UseForwarder() bool {
	return c.useForwarder
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a masked version of the API key for display.
// SECURITY: Never exposes key fragments, only length and fingerprint.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return fmt.Sprintf("[set, length=%d, fingerprint=%s]", len(c.apiKey), hex.EncodeToString(h[:4]))
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends one chat completion request and returns the parsed
// response. Non-2xx responses return an *APIError carrying the status
// and whatever error detail the server provided.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var (
		url  string
		body any
	)
	if c.useForwarder {
		url = c.forwarderURL + ForwarderChatPath
		body = forwardRequest{
			APIKey:      c.apiKey,
			Messages:    messages,
			Temperature: c.temperature,
		}
	} else {
		url = c.endpoint
		body = chatRequest{
			Messages:    messages,
			Model:       c.model,
			Stream:      false,
			Temperature: c.temperature,
		}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.useForwarder {
		// The forwarded path never carries the credential in a header;
		// the forwarding server injects it upstream.
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after the request
	// so a logged request can never leak the credential.
	req.Header.Del("Authorization")

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// newAPIError builds an APIError from a non-2xx response body.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Status:     statusCode,
		StatusText: http.StatusText(statusCode),
	}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Detail = parsed.errorMessage()
	}
	if apiErr.Detail == "" && len(body) > 0 {
		// Unparseable bodies still often hold the only clue
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}
