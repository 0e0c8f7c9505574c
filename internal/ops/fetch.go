package ops

import (
	"context"
	"database/sql"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/drafting"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
	IncludeResult  *bool // default: false (nil means default)
	CompliantOnly  bool  // only return proposals that passed every guardrail
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	run.Summary
	Proposals []*proposal.FeatureProposal `json:"proposals"`
	Drafts    []drafting.Issue            `json:"drafts"`
	Report    string                      `json:"report"`
	Result    *pipeline.Result            `json:"result,omitempty"`
}

// Fetch retrieves a stored run by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id, err := ValidateRunID(input.ID)
	if err != nil {
		return nil, err
	}

	r, err := db.GetRunByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	drafts, err := db.ListDrafts(ctx, database, id)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{
		Summary:   r.ToSummary(),
		Proposals: []*proposal.FeatureProposal{},
		Drafts:    append([]drafting.Issue{}, drafts...),
		Report:    r.Result.Report(),
	}
	for _, p := range r.Result.Proposals {
		if input.CompliantOnly && !p.F2PCompliant {
			continue
		}
		output.Proposals = append(output.Proposals, p)
	}

	if input.IncludeResult != nil && *input.IncludeResult {
		output.Result = r.Result
	}

	return output, nil
}
