package mcp

import "github.com/mark3labs/mcp-go/mcp"

var runToolDef = mcp.NewTool("pipeline_run",
	mcp.WithDescription("Run the feedback pipeline: fetch community feedback, normalize it into insights, "+
		"generate feature proposals, validate them against the F2P guardrails and add comparative notes. "+
		"The run is stored and its result written to the output directory."),
	mcp.WithArray("sources",
		mcp.Description("Sources to fetch (reddit, discord, steam). Defaults to enabled_sources."),
		mcp.WithStringItems(),
	),
	mcp.WithNumber("limit", mcp.Description("Max raw records per source. Defaults to limit_per_source.")),
	mcp.WithString("since", mcp.Description("Only feedback newer than this RFC3339 time or duration (e.g. 72h).")),
	mcp.WithBoolean("no_write", mcp.Description("Store the run without writing result files.")),
)

var fetchToolDef = mcp.NewTool("run_fetch",
	mcp.WithDescription("Fetch a stored run with its proposals, drafted issues and Markdown report."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Run ID")),
	mcp.WithBoolean("compliant_only", mcp.Description("Only return proposals that passed every guardrail.")),
	mcp.WithBoolean("include_result", mcp.Description("Include the full result document (insights, stages).")),
	mcp.WithBoolean("include_deleted", mcp.Description("Allow fetching a soft-deleted run.")),
)

var listToolDef = mcp.NewTool("run_list",
	mcp.WithDescription("List stored runs, newest first."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Page offset.")),
	mcp.WithBoolean("success", mcp.Description("Only successful (true) or failed (false) runs.")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted runs.")),
)

var latestToolDef = mcp.NewTool("run_latest",
	mcp.WithDescription("Get the most recent run."),
	mcp.WithBoolean("include_result", mcp.Description("Include the full result document.")),
	mcp.WithBoolean("include_deleted", mcp.Description("Consider soft-deleted runs.")),
)

var deleteToolDef = mcp.NewTool("run_delete",
	mcp.WithDescription("Soft-delete a run. It stays recoverable until purged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Run ID")),
)

var purgeToolDef = mcp.NewTool("run_purge",
	mcp.WithDescription("Permanently remove soft-deleted runs."),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge runs deleted more than N days ago.")),
)

var exportToolDef = mcp.NewTool("run_export",
	mcp.WithDescription("Export stored runs to a JSONL file in the exports directory."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path. Defaults to <data dir>/exports/runs-<timestamp>.jsonl.")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted runs.")),
)

var importToolDef = mcp.NewTool("run_import",
	mcp.WithDescription("Import runs from a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path.")),
	mcp.WithString("mode", mcp.Description("error (default) or skip."), mcp.Enum("error", "skip")),
)

var proposalsToolDef = mcp.NewTool("proposal_list",
	mcp.WithDescription("List stored proposals across active runs, newest run first."),
	mcp.WithString("run_id", mcp.Description("Only proposals of this run.")),
	mcp.WithString("category", mcp.Description("Only proposals of this feedback category.")),
	mcp.WithBoolean("compliant_only", mcp.Description("Only proposals that passed every guardrail.")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 100, max 500).")),
	mcp.WithNumber("offset", mcp.Description("Page offset.")),
)

var checkToolDef = mcp.NewTool("guardrail_check",
	mcp.WithDescription("Evaluate one proposed feature against the F2P guardrails. Nothing is stored."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Feature title.")),
	mcp.WithString("description", mcp.Description("Feature description.")),
	mcp.WithString("category", mcp.Description("Feedback category, e.g. feature_request.")),
	mcp.WithString("topic", mcp.Description("Topic, e.g. customization.")),
	mcp.WithString("monetization_type", mcp.Description("cosmetic, free, qol or other (default other).")),
	mcp.WithNumber("priority", mcp.Description("Priority in [0, 1].")),
	mcp.WithArray("comparative_notes", mcp.Description("Existing comparative notes."), mcp.WithStringItems()),
	mcp.WithBoolean("enrich", mcp.Description("Add comparative notes before evaluating.")),
)

var policyToolDef = mcp.NewTool("guardrail_policy",
	mcp.WithDescription("Get the F2P policy document, the guardrails in evaluation order and the active policy terms."),
)

var competitorToolDef = mcp.NewTool("competitor_report",
	mcp.WithDescription("Comparative analysis of competitor games: what to adapt and what to avoid."),
	mcp.WithString("category", mcp.Description("Restrict the report to one category.")),
)
