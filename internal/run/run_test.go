package run

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:                "01JABCDEF0000000000000000",
		Success:              true,
		Timestamp:            time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC),
		TotalInsights:        4,
		TotalProposals:       2,
		CompliantProposals:   1,
		ExecutionTimeSeconds: 0.25,
		Proposals: []*proposal.FeatureProposal{
			{Title: "a", F2PCompliant: true},
			{Title: "b"},
		},
		SourceErrors:   []pipeline.SourceError{{Source: "steam", Error: "steam: source unavailable"}},
		SkippedRecords: 3,
	}
}

func TestFromResult(t *testing.T) {
	r := FromResult(sampleResult())

	require.Equal(t, "01JABCDEF0000000000000000", r.ID)
	require.True(t, r.Success)
	require.Equal(t, 4, r.TotalInsights)
	require.Equal(t, 2, r.TotalProposals)
	require.Equal(t, 1, r.CompliantProposals)
	require.Equal(t, 3, r.SkippedRecords)
	require.Equal(t, 1, r.SourceErrors)
	require.Nil(t, r.ErrorMessage)
	require.Equal(t, int64(1736337600), r.CreatedAt)
	require.InDelta(t, 0.5, r.ComplianceRate(), 1e-9)
}

func TestFromResult_Failed(t *testing.T) {
	res := sampleResult()
	res.Success = false
	res.ErrorMessage = "validate stage failed: boom"

	r := FromResult(res)
	require.NotNil(t, r.ErrorMessage)
	require.Equal(t, "validate stage failed: boom", *r.ErrorMessage)
}

func TestComplianceRate_NoProposals(t *testing.T) {
	r := &Run{}
	require.Equal(t, 1.0, r.ComplianceRate())
}

func TestToSummary(t *testing.T) {
	deleted := int64(99)
	r := FromResult(sampleResult())
	r.DeletedAt = &deleted

	s := r.ToSummary()
	require.Equal(t, r.ID, s.ID)
	require.Equal(t, 0.5, s.ComplianceRate)
	require.Equal(t, &deleted, s.DeletedAt)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NotContains(t, string(data), "error_message")
}

func TestExportRecord_RoundTrip(t *testing.T) {
	orig := FromResult(sampleResult())

	line, err := json.Marshal(ToExportRecord(orig))
	require.NoError(t, err)
	require.NotContains(t, string(line), "_tgs_export")

	var rec ExportRecord
	require.NoError(t, json.Unmarshal(line, &rec))
	got, err := rec.ToRun()
	require.NoError(t, err)
	require.Equal(t, orig.ID, got.ID)
	require.Equal(t, orig.CreatedAt, got.CreatedAt)
	require.Equal(t, orig.CompliantProposals, got.CompliantProposals)
	require.Len(t, got.Result.Proposals, 2)
}

func TestExportRecord_ToRunErrors(t *testing.T) {
	_, err := (&ExportRecord{ID: "x"}).ToRun()
	require.Error(t, err)

	res := sampleResult()
	_, err = (&ExportRecord{ID: "other", Result: res}).ToRun()
	require.ErrorContains(t, err, "does not match")
}
