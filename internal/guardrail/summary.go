package guardrail

import (
	"context"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// ProposalCheck is the evaluation of one proposal inside a Summary.
type ProposalCheck struct {
	ProposalTitle string   `json:"proposal_title"`
	F2PCompliant  bool     `json:"f2p_compliant"`
	Checks        []Result `json:"checks"`
}

// Summary reports compliance across a set of proposals.
type Summary struct {
	TotalProposals     int             `json:"total_proposals"`
	CompliantProposals int             `json:"compliant_proposals"`
	ComplianceRate     float64         `json:"compliance_rate"`
	Results            []ProposalCheck `json:"results"`
}

// Validate evaluates proposals and summarizes the outcome.
// An empty set has a compliance rate of 1.
func (e *Evaluator) Validate(ctx context.Context, proposals []*proposal.FeatureProposal) (Summary, error) {
	results, err := e.EvaluateAll(ctx, proposals)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalProposals: len(proposals),
		ComplianceRate: 1.0,
		Results:        make([]ProposalCheck, len(proposals)),
	}
	for i, p := range proposals {
		if p.F2PCompliant {
			s.CompliantProposals++
		}
		s.Results[i] = ProposalCheck{
			ProposalTitle: p.Title,
			F2PCompliant:  p.F2PCompliant,
			Checks:        results[i],
		}
	}
	if len(proposals) > 0 {
		s.ComplianceRate = float64(s.CompliantProposals) / float64(len(proposals))
	}
	return s, nil
}
