package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

// ErrEmptyCompletion marks a 2xx response whose output is unusable.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

// Message is one turn of a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to the external AI provider over its chat-completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Analyze runs one stateless analysis feature: the structured input payload
// is rendered into a prompt and the assistant text is returned.
func (c *Client) Analyze(ctx context.Context, feature model.FeatureType, payload json.RawMessage) (string, error) {
	prompt, err := buildPrompt(feature, payload)
	if err != nil {
		return "", err
	}

	return c.complete(ctx, []Message{
		{Role: "system", Content: systemPrompt(feature)},
		{Role: "user", Content: prompt},
	})
}

// Chat appends one user turn to the advisor conversation and returns the
// assistant reply. History arrives oldest first.
func (c *Client) Chat(ctx context.Context, history []model.ChatMessage, userMessage string) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt(model.FeatureAdvisorChat)})
	for _, m := range history {
		messages = append(messages, Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, Message{Role: "user", Content: userMessage})

	return c.complete(ctx, messages)
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("provider error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	return result.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
