package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
)

func TestExportImport_RoundTrip(t *testing.T) {
	src, srcBase := openTestDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()

	first, err := Run(ctx, src, cfg, srcBase, nil, RunInput{NoWrite: true})
	require.NoError(t, err)
	second, err := Run(ctx, src, cfg, srcBase, nil, RunInput{Sources: []string{"steam"}, NoWrite: true})
	require.NoError(t, err)

	exported, err := Export(ctx, src, cfg, srcBase, ExportInput{})
	require.NoError(t, err)
	require.Equal(t, 2, exported.Count)
	require.Equal(t, DefaultExportsDir(srcBase), filepath.Dir(exported.Path))

	// Header line first, then one record per run.
	f, err := os.Open(exported.Path)
	require.NoError(t, err)
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	require.True(t, scanner.Scan())
	var header ExportHeader
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &header))
	require.True(t, header.TGSExport)
	require.Equal(t, run.ExportSchemaVersion, header.SchemaVersion)
	lines := 0
	for scanner.Scan() {
		lines++
	}
	require.Equal(t, 2, lines)

	// Import into a fresh store; the file must sit in that store's exports dir.
	dst, dstBase := openTestDB(t)
	data, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	importPath := filepath.Join(DefaultExportsDir(dstBase), "runs.jsonl")
	require.NoError(t, os.WriteFile(importPath, data, 0600))

	imported, err := Import(ctx, dst, cfg, dstBase, ImportInput{Path: importPath})
	require.NoError(t, err)
	require.Equal(t, 2, imported.Imported)
	require.Empty(t, imported.Errors)

	for _, id := range []string{first.ID, second.ID} {
		got, err := db.GetRunByID(ctx, dst, id, false)
		require.NoError(t, err)
		require.Equal(t, id, got.ID)
	}
	rows, err := db.ListProposals(ctx, dst, db.ProposalFilter{RunID: first.ID})
	require.NoError(t, err)
	require.Len(t, rows, first.TotalProposals)

	// Mode error refuses to overwrite; mode skip keeps existing runs.
	again, err := Import(ctx, dst, cfg, dstBase, ImportInput{Path: importPath})
	require.NoError(t, err)
	require.Zero(t, again.Imported)
	require.Len(t, again.Errors, 2)
	require.Equal(t, string(errors.ErrConflict), again.Errors[0].Code)

	skipped, err := Import(ctx, dst, cfg, dstBase, ImportInput{Path: importPath, Mode: ImportModeSkip})
	require.NoError(t, err)
	require.Zero(t, skipped.Imported)
	require.Equal(t, 2, skipped.Skipped)
}

func TestExport_ExcludesDeletedByDefault(t *testing.T) {
	database, baseDir := openTestDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()

	out, err := Run(ctx, database, cfg, baseDir, nil, RunInput{NoWrite: true})
	require.NoError(t, err)
	_, err = Delete(ctx, database, DeleteInput{ID: out.ID})
	require.NoError(t, err)

	active, err := Export(ctx, database, cfg, baseDir, ExportInput{Path: filepath.Join(DefaultExportsDir(baseDir), "active.jsonl")})
	require.NoError(t, err)
	require.Zero(t, active.Count)

	all, err := Export(ctx, database, cfg, baseDir, ExportInput{
		Path:           filepath.Join(DefaultExportsDir(baseDir), "all.jsonl"),
		IncludeDeleted: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, all.Count)
}

func TestExport_RejectsOutsidePath(t *testing.T) {
	database, baseDir := openTestDB(t)

	_, err := Export(context.Background(), database, nil, baseDir, ExportInput{Path: filepath.Join(t.TempDir(), "x.jsonl")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "err = %v", err)
}

func TestImport_ParseErrors(t *testing.T) {
	database, baseDir := openTestDB(t)
	ctx := context.Background()

	path := filepath.Join(DefaultExportsDir(baseDir), "bad.jsonl")
	content := `{"_tgs_export":true,"schema_version":"1.0","exported_at":1}
not json
{"id":"01JNORESULT"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	out, err := Import(ctx, database, nil, baseDir, ImportInput{Path: path})
	require.NoError(t, err)
	require.Zero(t, out.Imported)
	require.Len(t, out.Errors, 2)
	require.Equal(t, 2, out.Errors[0].Line)
	require.Equal(t, "PARSE_ERROR", out.Errors[0].Code)
	require.Equal(t, "INVALID_RECORD", out.Errors[1].Code)
}

func TestImport_InvalidMode(t *testing.T) {
	database, baseDir := openTestDB(t)
	_, err := Import(context.Background(), database, nil, baseDir, ImportInput{Path: "x.jsonl", Mode: "rename"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "err = %v", err)
}
