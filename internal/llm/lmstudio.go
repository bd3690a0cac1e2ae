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
)

const defaultLMStudioURL = "http://localhost:1234/v1/chat/completions"

// LMStudioClient talks to a locally hosted model behind an OpenAI-compatible
// chat completions endpoint.
type LMStudioClient struct {
	url        string
	httpClient *http.Client
}

func NewLMStudioClient(url string) *LMStudioClient {
	if url == "" {
		url = defaultLMStudioURL
	}
	return &LMStudioClient{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (c *LMStudioClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", unavailable("connection failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", unavailable("read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", unavailable("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return strings.TrimSpace(extractContent(respBody)), nil
}
