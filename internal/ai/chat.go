package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"failarchive/internal/apperr"
	"failarchive/internal/config"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var temperatures = map[Task]float64{
	TaskModeration: 0.1,
	TaskExtraction: 0.3,
	TaskPreMortem:  0.4,
}

// ChatClient 调用 OpenAI 兼容的 /chat/completions 接口
type ChatClient struct {
	baseURL    string
	apiKey     string
	models     map[Task]string
	httpClient *http.Client
}

func NewChatClient(cfg config.AIConfig) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		models: map[Task]string{
			TaskModeration: cfg.ModerationModel,
			TaskExtraction: cfg.ExtractionModel,
			TaskPreMortem:  cfg.PreMortemModel,
		},
		httpClient: &http.Client{},
	}
}

func (c *ChatClient) Complete(ctx context.Context, task Task, system string, payload any) (string, error) {
	user, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	body, err := json.Marshal(ChatRequest{
		Model: c.models[task],
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: string(user)},
		},
		Temperature: temperatures[task],
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.External("AI service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperr.External(fmt.Sprintf("AI service returned %d", resp.StatusCode), fmt.Errorf("%s", snippet))
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", apperr.External("AI service returned invalid JSON", err)
	}
	if len(chat.Choices) == 0 {
		return "", apperr.External("AI service returned no choices", nil)
	}
	return chat.Choices[0].Message.Content, nil
}
