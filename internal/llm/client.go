// Package llm provides the chat-completion client used by the planner and
// the built-in DeFi agents. It speaks either the OpenAI-compatible or the
// Anthropic messages API, selected once at construction.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentfi/agentfi/internal/config"
)

// Completer is the planning/agent capability: one system+user exchange in,
// text out.
type Completer interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// Client calls a hosted chat-completion API.
type Client struct {
	kind     string
	endpoint string
	apiKey   string
	client   *http.Client
}

// New creates a client from LLM config.
func New(cfg config.LLMConfig) *Client {
	return &Client{
		kind:     cfg.Kind,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Complete sends one exchange and returns the model's text.
func (c *Client) Complete(ctx context.Context, model, system, user string) (string, error) {
	switch c.kind {
	case "anthropic":
		return c.completeAnthropic(ctx, model, system, user)
	default:
		return c.completeOpenAI(ctx, model, system, user)
	}
}

// ── OpenAI-compatible endpoint ──────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) completeOpenAI(ctx context.Context, model, system, user string) (string, error) {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: api key not configured")
	}

	body, _ := json.Marshal(openAIRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai: status %d: %s", resp.StatusCode, string(respBody))
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return oaiResp.Choices[0].Message.Content, nil
}

// ── Anthropic endpoint ──────────────────────────────────────

type anthropicRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) completeAnthropic(ctx context.Context, model, system, user string) (string, error) {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = "https://api.anthropic.com"
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic: api key not configured")
	}

	body, _ := json.Marshal(anthropicRequest{
		Model:     model,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: user}},
		MaxTokens: 1024,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, string(respBody))
	}

	var anthResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthResp); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}

	content := ""
	for _, c := range anthResp.Content {
		if c.Type == "text" {
			content += c.Text
		}
	}
	return content, nil
}
