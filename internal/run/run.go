package run

import (
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
)

// Run is a stored pipeline run: the summary columns of the runs table plus
// the full result document.
type Run struct {
	// ID is the run's ULID
	ID string

	// Success reports whether every stage completed
	Success bool

	TotalInsights      int
	TotalProposals     int
	CompliantProposals int
	SkippedRecords     int

	// SourceErrors is the number of collaborators that could not be fetched
	SourceErrors int

	ExecutionTimeSeconds float64

	// ErrorMessage is set only for failed runs
	ErrorMessage *string

	// Result is the full artifact, stored as JSON
	Result *pipeline.Result

	// CreatedAt is the Unix timestamp of the run result
	CreatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// FromResult builds a Run from a finished pipeline result.
func FromResult(r *pipeline.Result) *Run {
	out := &Run{
		ID:                   r.RunID,
		Success:              r.Success,
		TotalInsights:        r.TotalInsights,
		TotalProposals:       r.TotalProposals,
		CompliantProposals:   r.CompliantProposals,
		SkippedRecords:       r.SkippedRecords,
		SourceErrors:         len(r.SourceErrors),
		ExecutionTimeSeconds: r.ExecutionTimeSeconds,
		Result:               r,
		CreatedAt:            r.Timestamp.Unix(),
	}
	if r.ErrorMessage != "" {
		msg := r.ErrorMessage
		out.ErrorMessage = &msg
	}
	return out
}

// ComplianceRate is the compliant share of proposals, 1.0 when there are none.
func (r *Run) ComplianceRate() float64 {
	if r.TotalProposals == 0 {
		return 1.0
	}
	return float64(r.CompliantProposals) / float64(r.TotalProposals)
}
