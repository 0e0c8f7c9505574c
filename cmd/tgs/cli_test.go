package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/ops"
)

// setupTestDeps creates a temporary database and base directory for testing.
func setupTestDeps(t *testing.T) deps {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return deps{db: database, cfg: config.DefaultConfig(), baseDir: baseDir}
}

// runCLI runs the app with args and returns what it wrote to stdout.
func runCLI(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	runErr := newCLIApp(d).Run(append([]string{"tgs"}, args...))

	w.Close()
	os.Stdout = oldStdout
	return string(<-done), runErr
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	return v
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"7d", 7, false},
		{"0d", 0, false},
		{"30d", 30, false},
		{"-1d", 0, true},
		{"7", 0, true},
		{"7h", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCLIRun(t *testing.T) {
	d := setupTestDeps(t)
	outDir := filepath.Join(d.baseDir, "artifacts")

	out, err := runCLI(t, d, "run", "--output-dir", outDir)
	if err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	output := decodeOutput[ops.RunOutput](t, out)
	if output.ID == "" || !output.Success {
		t.Fatalf("unexpected run output: %+v", output)
	}
	if output.TotalInsights != 15 {
		t.Errorf("total_insights = %d, want 15", output.TotalInsights)
	}
	for _, name := range []string{"pipeline_result.json", ops.ReportFileName} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s in output dir: %v", name, err)
		}
	}
}

func TestCLIRun_SourceAndLimit(t *testing.T) {
	d := setupTestDeps(t)

	out, err := runCLI(t, d, "run", "--source", "reddit", "--limit", "2", "--no-write")
	if err != nil {
		t.Fatalf("run command failed: %v", err)
	}
	output := decodeOutput[ops.RunOutput](t, out)
	if output.TotalInsights != 2 {
		t.Errorf("total_insights = %d, want 2", output.TotalInsights)
	}
	if output.ResultPath != "" {
		t.Errorf("result_path = %q, want empty with --no-write", output.ResultPath)
	}
}

func TestCLIFetchListLatest(t *testing.T) {
	d := setupTestDeps(t)

	out, err := runCLI(t, d, "run", "--no-write")
	if err != nil {
		t.Fatalf("run command failed: %v", err)
	}
	id := decodeOutput[ops.RunOutput](t, out).ID

	out, err = runCLI(t, d, "fetch", "--compliant-only", id)
	if err != nil {
		t.Fatalf("fetch command failed: %v", err)
	}
	fetched := decodeOutput[ops.FetchOutput](t, out)
	if fetched.ID != id {
		t.Errorf("fetch id = %s, want %s", fetched.ID, id)
	}
	for _, p := range fetched.Proposals {
		if !p.F2PCompliant {
			t.Errorf("--compliant-only returned %q", p.Title)
		}
	}
	if fetched.Result != nil {
		t.Error("result should be omitted without --include-result")
	}

	out, err = runCLI(t, d, "fetch", "--report", id)
	if err != nil {
		t.Fatalf("fetch --report failed: %v", err)
	}
	if !strings.Contains(out, "## Pipeline Run Summary") {
		t.Errorf("report output missing summary heading:\n%s", out)
	}

	out, err = runCLI(t, d, "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	list := decodeOutput[ops.ListOutput](t, out)
	if len(list.Items) != 1 || list.Items[0].ID != id {
		t.Errorf("list items = %+v, want [%s]", list.Items, id)
	}

	out, err = runCLI(t, d, "latest")
	if err != nil {
		t.Fatalf("latest command failed: %v", err)
	}
	latest := decodeOutput[ops.LatestOutput](t, out)
	if latest.Item == nil || latest.Item.ID != id {
		t.Errorf("latest = %+v, want %s", latest.Item, id)
	}
}

func TestCLIDeletePurge(t *testing.T) {
	d := setupTestDeps(t)

	out, _ := runCLI(t, d, "run", "--no-write")
	id := decodeOutput[ops.RunOutput](t, out).ID

	out, err := runCLI(t, d, "delete", id)
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}
	if !decodeOutput[ops.DeleteOutput](t, out).Deleted {
		t.Error("expected deleted=true")
	}

	if _, err := runCLI(t, d, "fetch", id); err == nil {
		t.Error("fetching a deleted run should fail")
	}

	out, err = runCLI(t, d, "purge", "--older-than", "30d")
	if err != nil {
		t.Fatalf("purge command failed: %v", err)
	}
	if purged := decodeOutput[ops.PurgeOutput](t, out).Purged; purged != 0 {
		t.Errorf("purged = %d, want 0 for a run deleted just now", purged)
	}

	out, err = runCLI(t, d, "purge")
	if err != nil {
		t.Fatalf("purge command failed: %v", err)
	}
	if purged := decodeOutput[ops.PurgeOutput](t, out).Purged; purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}

func TestCLIExportImport(t *testing.T) {
	d := setupTestDeps(t)

	if _, err := runCLI(t, d, "run", "--no-write"); err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	exportPath := filepath.Join(d.baseDir, "exports", "cli.jsonl")
	out, err := runCLI(t, d, "export", "--path", exportPath)
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	if count := decodeOutput[ops.ExportOutput](t, out).Count; count != 1 {
		t.Errorf("export count = %d, want 1", count)
	}

	// Import into a fresh store.
	fresh := setupTestDeps(t)
	freshPath := filepath.Join(fresh.baseDir, "exports", "cli.jsonl")
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if err := os.WriteFile(freshPath, data, 0600); err != nil {
		t.Fatalf("copy export: %v", err)
	}

	out, err = runCLI(t, fresh, "import", "--path", freshPath)
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}
	if imported := decodeOutput[ops.ImportOutput](t, out).Imported; imported != 1 {
		t.Errorf("imported = %d, want 1", imported)
	}

	out, err = runCLI(t, fresh, "import", "--path", freshPath, "--mode", "skip")
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if skipped := decodeOutput[ops.ImportOutput](t, out).Skipped; skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestCLIProposals(t *testing.T) {
	d := setupTestDeps(t)
	out, _ := runCLI(t, d, "run", "--no-write")
	id := decodeOutput[ops.RunOutput](t, out).ID

	out, err := runCLI(t, d, "proposals", "--run", id, "--limit", "1")
	if err != nil {
		t.Fatalf("proposals command failed: %v", err)
	}
	output := decodeOutput[ops.ProposalsOutput](t, out)
	if len(output.Items) != 1 || output.Items[0].RunID != id {
		t.Errorf("items = %+v", output.Items)
	}
}

func TestCLICheck(t *testing.T) {
	d := setupTestDeps(t)

	out, err := runCLI(t, d, "check", "--title", "Seasonal outfit colors", "--type", "cosmetic", "--priority", "0.5")
	if err != nil {
		t.Fatalf("check command failed: %v", err)
	}
	output := decodeOutput[ops.CheckOutput](t, out)
	if !output.Proposal.F2PCompliant {
		t.Errorf("expected compliant, notes: %v", output.Proposal.GuardrailNotes)
	}
	if len(output.Results) != 7 {
		t.Errorf("results = %d, want 7", len(output.Results))
	}

	out, err = runCLI(t, d, "check", "--title", "Mystery loot box rewards", "--description", "Random chests")
	if err != nil {
		t.Fatalf("check command failed: %v", err)
	}
	if decodeOutput[ops.CheckOutput](t, out).Proposal.F2PCompliant {
		t.Error("loot box proposal should not be compliant")
	}
}

func TestCLICheck_JSONStdin(t *testing.T) {
	d := setupTestDeps(t)

	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()
	go func() {
		_, _ = w.WriteString(`{"title":"Guild banners","monetization_type":"cosmetic","category":"social"}`)
		w.Close()
	}()

	out, err := runCLI(t, d, "check", "--json")
	if err != nil {
		t.Fatalf("check --json failed: %v", err)
	}
	output := decodeOutput[ops.CheckOutput](t, out)
	if output.Proposal.Title != "Guild banners" || output.Proposal.Category != "social" {
		t.Errorf("proposal = %+v", output.Proposal)
	}
}

func TestCLIPolicyAndCompetitors(t *testing.T) {
	d := setupTestDeps(t)

	out, err := runCLI(t, d, "policy", "--markdown")
	if err != nil {
		t.Fatalf("policy command failed: %v", err)
	}
	if !strings.HasPrefix(out, "# Thirsty's Game Studio F2P Policy") {
		t.Errorf("unexpected policy output: %.60s", out)
	}

	out, err = runCLI(t, d, "competitors")
	if err != nil {
		t.Fatalf("competitors command failed: %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if report["total_insights"].(float64) <= 0 {
		t.Errorf("total_insights = %v, want > 0", report["total_insights"])
	}
}

func TestCLIErrorHandling(t *testing.T) {
	d := setupTestDeps(t)

	tests := []struct {
		name string
		args []string
	}{
		{"fetch without id", []string{"fetch"}},
		{"fetch not found", []string{"fetch", "01JNOTFOUND"}},
		{"delete not found", []string{"delete", "01JNOTFOUND"}},
		{"invalid duration", []string{"purge", "--older-than=invalid"}},
		{"unknown source", []string{"run", "--source", "myspace", "--no-write"}},
		{"bad status filter", []string{"list", "--status", "maybe"}},
		{"check without title", []string{"check"}},
		{"import outside exports", []string{"import", "--path", "/tmp/elsewhere.jsonl"}},
		{"ui bad port", []string{"ui", "--port", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, d, tt.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"tgs"}, false},
		{"run command", []string{"tgs", "run"}, true},
		{"check command", []string{"tgs", "check"}, true},
		{"ui command", []string{"tgs", "ui"}, true},
		{"help flag", []string{"tgs", "--help"}, true},
		{"version flag", []string{"tgs", "--version"}, true},
		{"short help flag", []string{"tgs", "-h"}, true},
		{"short version flag", []string{"tgs", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"tgs", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isCLIMode(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"tgs"}, false},
		{"help flag", []string{"tgs", "--help"}, true},
		{"short help flag", []string{"tgs", "-h"}, true},
		{"version flag", []string{"tgs", "--version"}, true},
		{"help subcommand", []string{"tgs", "help"}, true},
		{"run command is not help", []string{"tgs", "run"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isHelpOrVersion(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestReadStdinWithLimit(t *testing.T) {
	withStdin := func(t *testing.T, content string) {
		t.Helper()
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("pipe: %v", err)
		}
		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()
		oldStdin := os.Stdin
		os.Stdin = r
		t.Cleanup(func() { os.Stdin = oldStdin })
	}

	t.Run("within limit", func(t *testing.T) {
		withStdin(t, "  small content \n")
		got, err := readStdin(1000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "small content" {
			t.Errorf("got %q, want trimmed content", got)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		withStdin(t, strings.Repeat("x", 100))
		if _, err := readStdin(50); err == nil {
			t.Error("expected error for content exceeding limit")
		}
	})
}
