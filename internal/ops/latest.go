package ops

import (
	"context"
	"database/sql"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
)

// LatestInput contains parameters for the Latest operation.
type LatestInput struct {
	IncludeResult  *bool // default: false (summary only)
	IncludeDeleted bool
}

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item *LatestItem `json:"item"` // nil if no run is stored
}

// LatestItem is the most recent run with an optional result document.
type LatestItem struct {
	run.Summary
	Result *pipeline.Result `json:"result,omitempty"`
}

// Latest retrieves the most recent run.
func Latest(ctx context.Context, database *sql.DB, input LatestInput) (*LatestOutput, error) {
	r, err := db.GetLatestRun(ctx, database, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &LatestOutput{Item: nil}, nil
	}

	item := &LatestItem{Summary: r.ToSummary()}
	if input.IncludeResult != nil && *input.IncludeResult {
		item.Result = r.Result
	}
	return &LatestOutput{Item: item}, nil
}
