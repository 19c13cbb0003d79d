package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"eduquest-service/internal/domain"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client calls the OpenAI chat completions API to generate short
// explanations for missed quiz questions. Callers are expected to fall back
// to local text on any error.
type Client struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// New builds a client. model and apiURL fall back to sensible defaults;
// apiKey is required.
func New(apiKey, apiURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is not set")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		apiKey:      apiKey,
		apiURL:      apiURL,
		model:       model,
		maxTokens:   200,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Explain asks for a short explanation of why the correct option is right
// and the learner's pick is not.
func (c *Client) Explain(ctx context.Context, q domain.Question, topicID string, selectedOption int) (string, error) {
	selected := "(none)"
	if selectedOption >= 0 && selectedOption < len(q.Options) {
		selected = q.Options[selectedOption]
	}
	prompt := fmt.Sprintf(
		"Question (topic %s): %s\nCorrect answer: %s\nThe learner picked: %s\nIn two or three sentences, explain why the correct answer is right and why the learner's choice is not.",
		topicID, q.Prompt, q.Options[q.CorrectOptionIndex], selected,
	)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: "You are a friendly tutor for a quiz app. Keep explanations short, concrete, and encouraging."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
