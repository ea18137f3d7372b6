package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Details 按记录类型区分的附加字段
type Details interface {
	RecordType() RecordType
	validate() error
}

type TechnicalProject struct {
	IntendedOutcome string   `json:"intendedOutcome,omitempty"`
	Architecture    string   `json:"architecture,omitempty"`
	Stack           []string `json:"stack,omitempty"`
}

type ResearchPaper struct {
	ResearchMethod     string `json:"researchMethod,omitempty"`
	ResultSummary      string `json:"resultSummary,omitempty"`
	WhyNegativeMatters string `json:"whyNegativeMatters,omitempty"`
}

type ResearchIdea struct {
	MissingTheory     string `json:"missingTheory,omitempty"`
	MissingData       string `json:"missingData,omitempty"`
	MissingTooling    string `json:"missingTooling,omitempty"`
	WeakestAssumption string `json:"weakestAssumption,omitempty"`
}

type AssumptionType string

const (
	AssumptionMarketSize    AssumptionType = "MARKET_SIZE"
	AssumptionUserBehavior  AssumptionType = "USER_BEHAVIOR"
	AssumptionDistribution  AssumptionType = "DISTRIBUTION"
	AssumptionCostStructure AssumptionType = "COST_STRUCTURE"
	AssumptionTiming        AssumptionType = "TIMING"
)

type FailedAssumption struct {
	Type        AssumptionType `json:"type"`
	Description string         `json:"description"`
}

type BusinessIdea struct {
	TargetUser       string            `json:"targetUser,omitempty"`
	ValueProposition string            `json:"valueProposition,omitempty"`
	FailedAssumption *FailedAssumption `json:"failedAssumption,omitempty"`
}

type FutureTechIdea struct {
	Vision                     string   `json:"vision,omitempty"`
	BlockingLimitations        []string `json:"blockingLimitations,omitempty"`
	RequiredBreakthroughs      []string `json:"requiredBreakthroughs,omitempty"`
	WhyCurrentTechInsufficient string   `json:"whyCurrentTechInsufficient,omitempty"`
}

type AIProject struct {
	Model                     string `json:"model,omitempty"`
	Data                      string `json:"data,omitempty"`
	EvaluationMethod          string `json:"evaluationMethod,omitempty"`
	WhereGeneralizationFailed string `json:"whereGeneralizationFailed,omitempty"`
	WhyScalingDidNotHelp      string `json:"whyScalingDidNotHelp,omitempty"`
}

func (TechnicalProject) RecordType() RecordType { return TypeTechnicalProject }
func (ResearchPaper) RecordType() RecordType    { return TypeResearchPaper }
func (ResearchIdea) RecordType() RecordType     { return TypeResearchIdea }
func (BusinessIdea) RecordType() RecordType     { return TypeBusinessIdea }
func (FutureTechIdea) RecordType() RecordType   { return TypeFutureTechIdea }
func (AIProject) RecordType() RecordType        { return TypeAIProject }

func (d TechnicalProject) validate() error { return nonBlank("stack", d.Stack) }
func (ResearchPaper) validate() error      { return nil }
func (ResearchIdea) validate() error       { return nil }
func (AIProject) validate() error          { return nil }

func (d BusinessIdea) validate() error {
	if d.FailedAssumption == nil {
		return nil
	}
	switch d.FailedAssumption.Type {
	case AssumptionMarketSize, AssumptionUserBehavior, AssumptionDistribution,
		AssumptionCostStructure, AssumptionTiming:
	default:
		return fmt.Errorf("failedAssumption.type %q is not valid", d.FailedAssumption.Type)
	}
	if strings.TrimSpace(d.FailedAssumption.Description) == "" {
		return errors.New("failedAssumption.description is required")
	}
	return nil
}

func (d FutureTechIdea) validate() error {
	if err := nonBlank("blockingLimitations", d.BlockingLimitations); err != nil {
		return err
	}
	return nonBlank("requiredBreakthroughs", d.RequiredBreakthroughs)
}

func nonBlank(field string, items []string) error {
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not contain blank entries", field)
		}
	}
	return nil
}

// DecodeDetails 按记录类型解析附加字段，未知字段直接拒绝。空载荷得到该类型的零值
func DecodeDetails(t RecordType, raw json.RawMessage) (Details, error) {
	var d Details
	switch t {
	case TypeTechnicalProject:
		d = &TechnicalProject{}
	case TypeResearchPaper:
		d = &ResearchPaper{}
	case TypeResearchIdea:
		d = &ResearchIdea{}
	case TypeBusinessIdea:
		d = &BusinessIdea{}
	case TypeFutureTechIdea:
		d = &FutureTechIdea{}
	case TypeAIProject:
		d = &AIProject{}
	default:
		return nil, fmt.Errorf("unknown record type %q", t)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return d, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("typeSpecificData for %s: %w", t, err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}
