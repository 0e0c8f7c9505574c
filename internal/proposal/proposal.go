// Package proposal turns batches of community insights into feature proposals.
package proposal

import (
	"time"
)

// MonetizationType classifies how a proposed feature would be monetized.
// Values outside the known set are kept verbatim so guardrails can reject them.
type MonetizationType string

const (
	Cosmetic MonetizationType = "cosmetic"
	Free     MonetizationType = "free"
	QoL      MonetizationType = "qol"
	Other    MonetizationType = "other"
)

// Known reports whether m is one of the four declared types.
func (m MonetizationType) Known() bool {
	switch m {
	case Cosmetic, Free, QoL, Other:
		return true
	}
	return false
}

// FeatureProposal is a candidate game feature derived from one or more insights.
//
// F2PCompliant and GuardrailNotes are written only by the guardrail evaluator;
// ComparativeNotes is appended to only by the comparative enricher.
type FeatureProposal struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	SourceInsights   []string         `json:"source_insights"`
	Category         string           `json:"category"`
	Topic            string           `json:"topic,omitempty"`
	MonetizationType MonetizationType `json:"monetization_type"`
	Priority         float64          `json:"priority"`
	F2PCompliant     bool             `json:"f2p_compliant"`
	GuardrailNotes   []string         `json:"guardrail_notes"`
	ComparativeNotes []string         `json:"comparative_notes"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Clone returns a deep copy of p.
func (p *FeatureProposal) Clone() *FeatureProposal {
	c := *p
	c.SourceInsights = append([]string{}, p.SourceInsights...)
	c.GuardrailNotes = append([]string{}, p.GuardrailNotes...)
	c.ComparativeNotes = append([]string{}, p.ComparativeNotes...)
	return &c
}
