package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

// CompletionClient produces assistant replies. When no endpoint is
// configured it falls back to a deterministic local reply so the chat
// pipeline works without external credentials.
type CompletionClient struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

func NewCompletionClient(endpoint, apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) *CompletionClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &CompletionClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the assistant reply for the conversation history.
// History is oldest first and already includes the system prompt.
func (c *CompletionClient) Complete(ctx context.Context, history []*models.Message) (string, error) {
	if c.endpoint == "" {
		return c.simulate(history), nil
	}

	payload := completionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, m := range history {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errs.Internal("failed to encode completion request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errs.Internal("failed to build completion request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.Gateway(0, "completion call failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Gateway(resp.StatusCode, "failed to read completion response: %v", err)
	}

	var decoded completionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", errs.Gateway(resp.StatusCode, "invalid completion response")
	}
	if resp.StatusCode != http.StatusOK {
		message := "completion request failed"
		if decoded.Error != nil && decoded.Error.Message != "" {
			message = decoded.Error.Message
		}
		return "", errs.Gateway(resp.StatusCode, "%s", message)
	}
	if len(decoded.Choices) == 0 {
		return "", errs.Gateway(resp.StatusCode, "completion returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// simulate builds a canned reply out of the latest user message.
func (c *CompletionClient) simulate(history []*models.Message) string {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			last = strings.TrimSpace(history[i].Content)
			break
		}
	}
	if last == "" {
		return "Hello! How can I help you today?"
	}
	if runes := []rune(last); len(runes) > 120 {
		last = string(runes[:120]) + "..."
	}
	return fmt.Sprintf("I received your message: %q. This deployment has no completion endpoint configured, so replies are generated locally.", last)
}
