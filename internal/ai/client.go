// Package ai talks to the language model used for moderation, knowledge
// extraction and pre-mortem analysis.
package ai

import (
	"context"
	"fmt"

	"failarchive/internal/config"
)

// ModerationInput 审核请求
type ModerationInput struct {
	Title      string   `json:"title"`
	Hypothesis string   `json:"hypothesis"`
	Method     string   `json:"method"`
	Links      []string `json:"links,omitempty"`
}

// Verdict 审核结论
type Verdict struct {
	Safe     bool
	Flags    []string
	Analysis string
}

type ExtractionInput struct {
	Title         string   `json:"title"`
	Hypothesis    string   `json:"hypothesis"`
	Method        string   `json:"method"`
	Domain        []string `json:"domain"`
	FailurePoints []string `json:"failurePoints"`
}

type Extraction struct {
	NormalizedHypothesis string   `json:"normalizedHypothesis"`
	TaxonomyTags         []string `json:"taxonomyTags"`
	CommonPatterns       []string `json:"commonPatterns"`
	RiskFactors          []string `json:"riskFactors"`
}

type PreMortemInput struct {
	Idea       string   `json:"idea"`
	Domain     []string `json:"domain,omitempty"`
	Hypothesis string   `json:"hypothesis,omitempty"`
}

type PreMortem struct {
	CommonPatterns           []string `json:"commonPatterns"`
	LikelyInvalidAssumptions []string `json:"likelyInvalidAssumptions"`
	RiskLevel                string   `json:"riskLevel"`
	Recommendations          []string `json:"recommendations"`
}

// Client 外部模型的三个能力，调用方负责超时
type Client interface {
	Moderate(ctx context.Context, in ModerationInput) (Verdict, error)
	Extract(ctx context.Context, in ExtractionInput) (Extraction, error)
	PreMortem(ctx context.Context, in PreMortemInput) (PreMortem, error)
}

type Task string

const (
	TaskModeration Task = "moderation"
	TaskExtraction Task = "extraction"
	TaskPreMortem  Task = "premortem"
)

// Completer sends one system prompt plus a JSON payload and returns the raw model text.
type Completer interface {
	Complete(ctx context.Context, task Task, system string, payload any) (string, error)
}

// New 根据配置选择模型提供方
func New(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	switch cfg.Provider {
	case "", "chat":
		return NewService(NewChatClient(cfg)), nil
	case "genai":
		c, err := NewGenAIClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewService(c), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
