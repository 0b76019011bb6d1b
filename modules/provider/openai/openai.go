// Package openai provides an OpenAI-compatible LLM client. It works with
// any API that implements the OpenAI chat completions interface (Mistral,
// Groq, DeepSeek, vLLM, LiteLLM, etc.) via a configurable base_url.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sednafx/memwell/internal/provider"
	"github.com/sednafx/memwell/pkg/turn"
)

// Client is an OpenAI-compatible LLM provider.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a Client from a validated config.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: cfg,
		// Response-header timeout instead of a global client timeout:
		// per-request context handles cancellation of slow bodies.
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		logger: logger,
	}, nil
}

// Compile-time interface check.
var _ provider.Provider = (*Client)(nil)

// Complete implements provider.Provider.
func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	oaiReq := buildRequest(c.config.Model, c.config.MaxTokens, req)

	resp, err := c.doRequest(ctx, oaiReq)
	if err != nil {
		return provider.CompletionResponse{}, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		return provider.CompletionResponse{}, handleErrorResponse(resp)
	}

	var oaiResp oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("decode response: %w", err)
	}

	cr := parseResponse(oaiResp)
	c.logger.Debug("completion received",
		"model", c.config.Model,
		"finish_reason", string(cr.FinishReason),
		"total_tokens", cr.Usage.TotalTokens)
	return cr, nil
}

// ModelName implements provider.Provider.
func (c *Client) ModelName() string {
	return c.config.Model
}

// wireRole maps a turn role to its OpenAI chat role. Summary turns travel
// as system messages: the model treats them as conversation context, and
// they are already excluded from re-summarization upstream by role.
func wireRole(r turn.Role) string {
	switch r {
	case turn.RoleUser:
		return "user"
	case turn.RoleAssistant:
		return "assistant"
	case turn.RoleSummary:
		return "system"
	default:
		return string(r)
	}
}
