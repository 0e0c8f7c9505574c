package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/drafting"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// ResultFileName is the artifact name a run is written under.
const ResultFileName = "pipeline_result.json"

// Result is the single persisted artifact of a run. It is built once when the
// run reaches a terminal state and is not modified afterwards.
type Result struct {
	RunID                string                      `json:"run_id"`
	Success              bool                        `json:"success"`
	Timestamp            time.Time                   `json:"timestamp"`
	TotalInsights        int                         `json:"total_insights"`
	TotalProposals       int                         `json:"total_proposals"`
	CompliantProposals   int                         `json:"compliant_proposals"`
	ExecutionTimeSeconds float64                     `json:"execution_time_seconds"`
	Insights             []insight.CommunityInsight  `json:"insights"`
	Proposals            []*proposal.FeatureProposal `json:"proposals"`
	ErrorMessage         string                      `json:"error_message,omitempty"`
	Stages               []StageRecord               `json:"stages"`
	SourceErrors         []SourceError               `json:"source_errors"`
	SkippedRecords       int                         `json:"skipped_records"`
	Drafts               []drafting.Issue            `json:"drafts"`
}

func (o *Orchestrator) result(fatal error, elapsed time.Duration) *Result {
	r := &Result{
		RunID:                o.cfg.RunID,
		Success:              fatal == nil,
		Timestamp:            o.cfg.Now().UTC(),
		ExecutionTimeSeconds: elapsed.Seconds(),
		Insights:             append([]insight.CommunityInsight{}, o.insights...),
		Proposals:            cloneAll(o.proposals),
		Stages:               o.StageRecords(),
		SourceErrors:         append([]SourceError{}, o.sourceErrors...),
		SkippedRecords:       o.skipped,
		Drafts:               append([]drafting.Issue{}, o.drafts...),
	}
	if fatal != nil {
		r.ErrorMessage = fatal.Error()
	}
	r.TotalInsights = len(r.Insights)
	r.TotalProposals = len(r.Proposals)
	for _, p := range r.Proposals {
		if p.F2PCompliant {
			r.CompliantProposals++
		}
	}
	return r
}

// Summary aggregates the insights of the run.
func (r *Result) Summary() insight.Summary {
	return insight.Summarize(r.Insights)
}

// Report renders the run as Markdown.
func (r *Result) Report() string {
	return drafting.RunReport(drafting.RunSummary{
		RunID:         r.RunID,
		Success:       r.Success,
		ErrorMessage:  r.ErrorMessage,
		TotalInsights: r.TotalInsights,
		Insights:      r.Summary(),
		Proposals:     r.Proposals,
	})
}

// WriteFile writes the result as indented JSON to dir/pipeline_result.json
// and returns the path.
func (r *Result) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	path := filepath.Join(dir, ResultFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}
