package ai

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"failarchive/internal/apperr"
)

// Service 在 Completer 之上解析结构化输出，实现 Client
type Service struct {
	completer Completer
}

func NewService(c Completer) *Service {
	return &Service{completer: c}
}

var _ Client = (*Service)(nil)

type verdictWire struct {
	Safe     *bool           `json:"safe"`
	Flags    []string        `json:"flags"`
	Analysis json.RawMessage `json:"analysis"`
}

func (s *Service) Moderate(ctx context.Context, in ModerationInput) (Verdict, error) {
	var w verdictWire
	if err := s.call(ctx, TaskModeration, moderationPrompt, in, &w); err != nil {
		return Verdict{}, err
	}
	if w.Safe == nil {
		return Verdict{}, apperr.External("moderation response missing safe", nil)
	}
	flags, analysis := mergeAnalysis(w.Flags, w.Analysis)
	return Verdict{Safe: *w.Safe, Flags: flags, Analysis: analysis}, nil
}

func (s *Service) Extract(ctx context.Context, in ExtractionInput) (Extraction, error) {
	var out Extraction
	if err := s.call(ctx, TaskExtraction, extractionPrompt, in, &out); err != nil {
		return Extraction{}, err
	}
	if out.NormalizedHypothesis == "" && len(out.TaxonomyTags) == 0 {
		return Extraction{}, apperr.External("extraction response is empty", nil)
	}
	return out, nil
}

func (s *Service) PreMortem(ctx context.Context, in PreMortemInput) (PreMortem, error) {
	var out PreMortem
	if err := s.call(ctx, TaskPreMortem, preMortemPrompt, in, &out); err != nil {
		return PreMortem{}, err
	}
	out.RiskLevel = NormalizeRiskLevel(out.RiskLevel)
	return out, nil
}

func (s *Service) call(ctx context.Context, task Task, system string, payload, out any) error {
	text, err := s.completer.Complete(ctx, task, system, payload)
	if err != nil {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperr.External(string(task)+" request failed", err)
	}
	if err := DecodeJSON(text, out); err != nil {
		return apperr.External(string(task)+" returned unparseable output", err)
	}
	return nil
}

// NormalizeRiskLevel 归一化为 LOW / MEDIUM / HIGH，无法识别时取 MEDIUM
func NormalizeRiskLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "LOW", "MEDIUM", "HIGH":
		return l
	}
	return "MEDIUM"
}

// mergeAnalysis folds boolean analysis keys into the flag list and renders the
// analysis as text. The model returns either a prose string or an object of booleans.
func mergeAnalysis(flags []string, raw json.RawMessage) ([]string, string) {
	out := append([]string(nil), flags...)
	if len(raw) == 0 || string(raw) == "null" {
		return out, ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return out, text
	}

	var checks map[string]bool
	if err := json.Unmarshal(raw, &checks); err == nil {
		keys := make([]string, 0, len(checks))
		for k, hit := range checks {
			if hit {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !contains(out, k) {
				out = append(out, k)
			}
		}
	}
	return out, string(raw)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
