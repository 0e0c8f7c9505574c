package run

import (
	"fmt"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
)

// ExportSchemaVersion is written to the header line of every export file.
const ExportSchemaVersion = "1.0"

// ExportRecord is one line of a JSONL export file. The first line is a
// header with TGSExport set; every other line carries a run.
type ExportRecord struct {
	// Header detection field - true only for header line
	TGSExport bool `json:"_tgs_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	// Run fields
	ID        string           `json:"id,omitempty"`
	CreatedAt int64            `json:"created_at,omitempty"`
	DeletedAt *int64           `json:"deleted_at,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
}

// ToRun rebuilds a Run from an export line. Summary columns are recomputed
// from the result document rather than trusted from the file.
func (e *ExportRecord) ToRun() (*Run, error) {
	if e.Result == nil {
		return nil, fmt.Errorf("export record %q has no result", e.ID)
	}
	if e.ID != "" && e.ID != e.Result.RunID {
		return nil, fmt.Errorf("export record id %q does not match result run_id %q", e.ID, e.Result.RunID)
	}
	r := FromResult(e.Result)
	if e.CreatedAt != 0 {
		r.CreatedAt = e.CreatedAt
	}
	r.DeletedAt = e.DeletedAt
	return r, nil
}

// ToExportRecord converts a Run to an export line.
func ToExportRecord(r *Run) *ExportRecord {
	return &ExportRecord{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		DeletedAt: r.DeletedAt,
		Result:    r.Result,
	}
}
