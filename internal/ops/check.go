package ops

import (
	"strings"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/comparative"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/guardrail"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// CheckInput describes an ad-hoc proposal to evaluate.
type CheckInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Topic            string   `json:"topic"`
	MonetizationType string   `json:"monetization_type"`
	Priority         float64  `json:"priority"`
	ComparativeNotes []string `json:"comparative_notes"`
	Enrich           bool     `json:"enrich"` // add comparative notes before evaluating
}

// CheckOutput contains the result of the Check operation.
type CheckOutput struct {
	Proposal *proposal.FeatureProposal `json:"proposal"`
	Results  []guardrail.Result        `json:"results"`
}

// Check evaluates one proposal against the active guardrail policy. Nothing is stored.
func Check(cfg *config.Config, input CheckInput) (*CheckOutput, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if input.Priority < 0 {
		return nil, errors.NewInvalidRequest("priority must not be negative")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	p := &proposal.FeatureProposal{
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		SourceInsights:   []string{},
		Category:         input.Category,
		Topic:            input.Topic,
		MonetizationType: proposal.MonetizationType(strings.TrimSpace(input.MonetizationType)),
		Priority:         input.Priority,
		GuardrailNotes:   []string{},
		ComparativeNotes: append([]string{}, input.ComparativeNotes...),
		CreatedAt:        time.Now().UTC(),
	}
	if p.MonetizationType == "" {
		p.MonetizationType = proposal.Other
	}

	if input.Enrich {
		refs, err := cfg.References()
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		e := comparative.NewEnricher(refs)
		if cfg.MaxComparativeNotes > 0 {
			e.MaxNotes = cfg.MaxComparativeNotes
		}
		e.Enrich(p)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	results := guardrail.NewEvaluator(policy).Evaluate(p)

	return &CheckOutput{
		Proposal: p,
		Results:  results,
	}, nil
}
