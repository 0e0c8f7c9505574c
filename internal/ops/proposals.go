package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
)

// ProposalsInput contains parameters for the Proposals operation.
type ProposalsInput struct {
	RunID         string // optional filter
	Category      string // optional filter
	CompliantOnly bool
	Limit         int // default: 100, max: 500
	Offset        int
}

// ProposalsOutput contains the result of the Proposals operation.
type ProposalsOutput struct {
	Items      []db.ProposalRow `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// Proposals lists stored proposals across active runs, newest run first.
func Proposals(ctx context.Context, database *sql.DB, input ProposalsInput) (*ProposalsOutput, error) {
	limit := clampLimit(input.Limit, DefaultProposalsLimit, MaxProposalsLimit)
	offset := max(input.Offset, 0)

	rows, err := db.ListProposals(ctx, database, db.ProposalFilter{
		RunID:         strings.TrimSpace(input.RunID),
		Category:      strings.TrimSpace(input.Category),
		CompliantOnly: input.CompliantOnly,
	})
	if err != nil {
		return nil, err
	}

	total := len(rows)
	start := min(offset, total)
	end := min(start+limit, total)

	return &ProposalsOutput{
		Items: rows[start:end],
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
	}, nil
}
