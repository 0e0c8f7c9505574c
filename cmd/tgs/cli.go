package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/logging"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/ops"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/web"
)

// maxStdinBytes bounds a proposal read by "check --json".
const maxStdinBytes = 1 << 20

// deps are the shared handles every command closes over.
type deps struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
	logger  *zap.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d deps) *cli.App {
	if d.cfg == nil {
		d.cfg = config.DefaultConfig()
	}
	d.logger = logging.OrNop(d.logger)

	app := &cli.App{
		Name:    "tgs",
		Usage:   "Turn player feedback into F2P-compliant feature proposals",
		Version: Version,
		Commands: []*cli.Command{
			runCmd(d),
			fetchCmd(d),
			listCmd(d),
			latestCmd(d),
			deleteCmd(d),
			purgeCmd(d),
			exportCmd(d),
			importCmd(d),
			proposalsCmd(d),
			checkCmd(d),
			policyCmd(d),
			competitorsCmd(d),
			uiCmd(d),
		},
	}
	// Return errors instead of exiting so tests can observe them.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func runCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the pipeline: fetch, normalize, generate, validate, enrich",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source to fetch (repeatable): reddit, discord, steam"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Max raw records per source"},
			&cli.StringFlag{Name: "since", Usage: "Only feedback newer than an RFC3339 time or a duration (e.g. 72h)"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory for pipeline_result.json and report.md"},
			&cli.BoolFlag{Name: "no-write", Usage: "Store the run without writing result files"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Run(c.Context, d.db, d.cfg, d.baseDir, d.logger, ops.RunInput{
				Sources:   c.StringSlice("source"),
				Limit:     c.Int("limit"),
				Since:     c.String("since"),
				OutputDir: c.String("output-dir"),
				NoWrite:   c.Bool("no-write"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func fetchCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a stored run with its proposals and drafted issues",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "compliant-only", Usage: "Only proposals that passed every guardrail"},
			&cli.BoolFlag{Name: "include-result", Usage: "Include the full result document"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Allow fetching a soft-deleted run"},
			&cli.BoolFlag{Name: "report", Usage: "Print the Markdown report instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
				CompliantOnly:  c.Bool("compliant-only"),
			}
			if c.Bool("include-result") {
				input.IncludeResult = boolPtr(true)
			}

			output, err := ops.Fetch(c.Context, d.db, input)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("report") {
				_, err := fmt.Fprint(os.Stdout, output.Report)
				return err
			}
			return outputJSON(output)
		},
	}
}

func listCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Usage: "Pagination offset"},
			&cli.StringFlag{Name: "status", Usage: "Filter by outcome: success|failed"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted runs"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListInput{
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			switch status := c.String("status"); status {
			case "":
			case "success":
				input.Success = boolPtr(true)
			case "failed":
				input.Success = boolPtr(false)
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("status must be success or failed, got %q", status)))
			}

			output, err := ops.List(c.Context, d.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func latestCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the most recent run",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-result", Usage: "Include the full result document"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Consider soft-deleted runs"},
		},
		Action: func(c *cli.Context) error {
			input := ops.LatestInput{IncludeDeleted: c.Bool("include-deleted")}
			if c.Bool("include-result") {
				input.IncludeResult = boolPtr(true)
			}

			output, err := ops.Latest(c.Context, d.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func deleteCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a run",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, d.db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func purgeCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge runs deleted more than N days ago (e.g. 7d)"},
		},
		Action: func(c *cli.Context) error {
			var input ops.PurgeInput
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, d.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func exportCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored runs to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: <data dir>/exports/runs-<timestamp>.jsonl)"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted runs"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, d.db, d.cfg, d.baseDir, ops.ExportInput{
				Path:           c.String("path"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func importCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import runs from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, d.db, d.cfg, d.baseDir, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func proposalsCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "proposals",
		Usage: "List stored proposals across runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Usage: "Only proposals of this run ID"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only proposals of this category"},
			&cli.BoolFlag{Name: "compliant-only", Usage: "Only proposals that passed every guardrail"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultProposalsLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Proposals(c.Context, d.db, ops.ProposalsInput{
				RunID:         c.String("run"),
				Category:      c.String("category"),
				CompliantOnly: c.Bool("compliant-only"),
				Limit:         c.Int("limit"),
				Offset:        c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func checkCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Evaluate one proposed feature against the F2P guardrails",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Feature title"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Feature description"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Feedback category"},
			&cli.StringFlag{Name: "topic", Usage: "Topic"},
			&cli.StringFlag{Name: "type", Usage: "Monetization type: cosmetic|free|qol|other"},
			&cli.Float64Flag{Name: "priority", Usage: "Priority in [0, 1]"},
			&cli.StringSliceFlag{Name: "note", Usage: "Existing comparative note (repeatable)"},
			&cli.BoolFlag{Name: "enrich", Usage: "Add comparative notes before evaluating"},
			&cli.BoolFlag{Name: "json", Usage: "Read the proposal as JSON from stdin"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CheckInput{
				Title:            c.String("title"),
				Description:      c.String("description"),
				Category:         c.String("category"),
				Topic:            c.String("topic"),
				MonetizationType: c.String("type"),
				Priority:         c.Float64("priority"),
				ComparativeNotes: c.StringSlice("note"),
				Enrich:           c.Bool("enrich"),
			}
			if c.Bool("json") {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input = ops.CheckInput{}
				if err := json.Unmarshal([]byte(text), &input); err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid proposal JSON: %v", err)))
				}
				input.Enrich = input.Enrich || c.Bool("enrich")
			}

			output, err := ops.Check(d.cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func policyCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Show the F2P policy and active guardrail terms",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Usage: "Print only the policy document"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Policy(d.cfg)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") {
				_, err := fmt.Fprint(os.Stdout, output.Document)
				return err
			}
			return outputJSON(output)
		},
	}
}

func competitorsCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "competitors",
		Usage: "Comparative analysis of competitor games",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Restrict to one category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Competitors(d.cfg, ops.CompetitorsInput{Category: c.String("category")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func uiCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Browse runs and proposals in a local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			srv, err := web.NewServer(d.db, d.cfg, d.logger, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, d.logger)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var sErr *errors.StudioError
	if stderrors.As(err, &sErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}

func boolPtr(b bool) *bool { return &b }
