package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"failarchive/internal/apperr"
	"failarchive/internal/config"

	"google.golang.org/genai"
)

// GenAIClient 通过 Gemini 完成同样的三类任务
type GenAIClient struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, cfg config.AIConfig) (*GenAIClient, error) {
	if cfg.GenAIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	model := cfg.GenAIModel
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GenAIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

func (g *GenAIClient) Complete(ctx context.Context, task Task, system string, payload any) (string, error) {
	user, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(string(user)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(temperatures[task])),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", apperr.External("GenAI request failed", err)
	}
	text := resp.Text()
	if text == "" {
		return "", apperr.External("GenAI returned no text", nil)
	}
	return text, nil
}
