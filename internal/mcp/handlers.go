package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/logging"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance. A nil logger discards output.
func NewHandlers(db *sql.DB, cfg *config.Config, baseDir string, logger *zap.Logger) *Handlers {
	return &Handlers{db: db, cfg: cfg, baseDir: baseDir, logger: logging.OrNop(logger)}
}

// RunRequest represents the arguments for pipeline_run.
type RunRequest struct {
	Sources []string `json:"sources,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Since   string   `json:"since,omitempty"`
	NoWrite bool     `json:"no_write,omitempty"`
}

// FetchRequest represents the arguments for run_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	CompliantOnly  bool   `json:"compliant_only,omitempty"`
	IncludeResult  *bool  `json:"include_result,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for run_list.
type ListRequest struct {
	Limit          int   `json:"limit,omitempty"`
	Offset         int   `json:"offset,omitempty"`
	Success        *bool `json:"success,omitempty"`
	IncludeDeleted bool  `json:"include_deleted,omitempty"`
}

// LatestRequest represents the arguments for run_latest.
type LatestRequest struct {
	IncludeResult  *bool `json:"include_result,omitempty"`
	IncludeDeleted bool  `json:"include_deleted,omitempty"`
}

// DeleteRequest represents the arguments for run_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// PurgeRequest represents the arguments for run_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// ExportRequest represents the arguments for run_export.
type ExportRequest struct {
	Path           string `json:"path,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for run_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// ProposalsRequest represents the arguments for proposal_list.
type ProposalsRequest struct {
	RunID         string `json:"run_id,omitempty"`
	Category      string `json:"category,omitempty"`
	CompliantOnly bool   `json:"compliant_only,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// CompetitorRequest represents the arguments for competitor_report.
type CompetitorRequest struct {
	Category string `json:"category,omitempty"`
}

// HandleRun handles the pipeline_run tool.
func (h *Handlers) HandleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[RunRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Run(ctx, h.db, h.cfg, h.baseDir, h.logger, ops.RunInput{
		Sources: req.Sources,
		Limit:   req.Limit,
		Since:   req.Since,
		NoWrite: req.NoWrite,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the run_fetch tool.
func (h *Handlers) HandleFetch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[FetchRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             req.ID,
		IncludeDeleted: req.IncludeDeleted,
		IncludeResult:  req.IncludeResult,
		CompliantOnly:  req.CompliantOnly,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the run_list tool.
func (h *Handlers) HandleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ListRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Limit:          req.Limit,
		Offset:         req.Offset,
		Success:        req.Success,
		IncludeDeleted: req.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLatest handles the run_latest tool.
func (h *Handlers) HandleLatest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[LatestRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Latest(ctx, h.db, ops.LatestInput{
		IncludeResult:  req.IncludeResult,
		IncludeDeleted: req.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the run_delete tool.
func (h *Handlers) HandleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[DeleteRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: req.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePurge handles the run_purge tool.
func (h *Handlers) HandlePurge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[PurgeRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: req.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the run_export tool.
func (h *Handlers) HandleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ExportRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, h.baseDir, ops.ExportInput{
		Path:           req.Path,
		IncludeDeleted: req.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the run_import tool.
func (h *Handlers) HandleImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ImportRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, h.baseDir, ops.ImportInput{
		Path: req.Path,
		Mode: ops.ImportMode(req.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProposals handles the proposal_list tool.
func (h *Handlers) HandleProposals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ProposalsRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Proposals(ctx, h.db, ops.ProposalsInput{
		RunID:         req.RunID,
		Category:      req.Category,
		CompliantOnly: req.CompliantOnly,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCheck handles the guardrail_check tool.
func (h *Handlers) HandleCheck(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ops.CheckInput](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Check(h.cfg, req)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePolicy handles the guardrail_policy tool.
func (h *Handlers) HandlePolicy(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Policy(h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCompetitors handles the competitor_report tool.
func (h *Handlers) HandleCompetitors(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[CompetitorRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Competitors(h.cfg, ops.CompetitorsInput{Category: req.Category})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult converts an error into an MCP error result. Wrapped studio
// errors keep their code; the message carries the wrapping context.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.StudioError
	if stderrors.As(err, &sErr) {
		msg := sErr.Message
		if err != error(sErr) {
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": msg,
			"status":  sErr.Status,
		}
		// Internal errors may carry paths or SQL text.
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, mErr := json.Marshal(payload)
	if mErr != nil {
		content = []byte(fmt.Sprintf(`{"error":{"code":%q,"status":500}}`, errors.ErrInternal))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
