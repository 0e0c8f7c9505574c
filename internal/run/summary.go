package run

// Summary is a run's metadata without the result document.
// Used by browse operations (list, latest) to keep responses small.
type Summary struct {
	ID                   string  `json:"id"`
	Success              bool    `json:"success"`
	TotalInsights        int     `json:"total_insights"`
	TotalProposals       int     `json:"total_proposals"`
	CompliantProposals   int     `json:"compliant_proposals"`
	ComplianceRate       float64 `json:"compliance_rate"`
	SkippedRecords       int     `json:"skipped_records"`
	SourceErrors         int     `json:"source_errors"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
	ErrorMessage         *string `json:"error_message,omitempty"`
	CreatedAt            int64   `json:"created_at"`
	DeletedAt            *int64  `json:"deleted_at,omitempty"`
}

// ToSummary strips the result document from a Run.
func (r *Run) ToSummary() Summary {
	return Summary{
		ID:                   r.ID,
		Success:              r.Success,
		TotalInsights:        r.TotalInsights,
		TotalProposals:       r.TotalProposals,
		CompliantProposals:   r.CompliantProposals,
		ComplianceRate:       r.ComplianceRate(),
		SkippedRecords:       r.SkippedRecords,
		SourceErrors:         r.SourceErrors,
		ExecutionTimeSeconds: r.ExecutionTimeSeconds,
		ErrorMessage:         r.ErrorMessage,
		CreatedAt:            r.CreatedAt,
		DeletedAt:            r.DeletedAt,
	}
}
