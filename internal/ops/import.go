package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
)

// maxImportLine bounds one JSONL line; a run carries all of its insights.
const maxImportLine = 64 << 20

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // fail before writing anything if any run already exists
	ImportModeSkip  ImportMode = "skip"  // keep existing runs, import the rest
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a line that could not be imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importLine struct {
	line int
	run  *run.Run
}

// Import loads runs from a JSONL file produced by Export.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, baseDir string, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip")
	}
	if err := ValidatePath(input.Path, PathCheckRead, baseDir, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.StudioError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	lines, parseErrors := parseExportFile(file)
	out := &ImportOutput{Errors: parseErrors}
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}

	if input.Mode == ImportModeError {
		if len(parseErrors) > 0 {
			return out, nil
		}
		for _, l := range lines {
			if _, err := db.GetRunByID(ctx, database, l.run.ID, true); err == nil {
				out.Errors = append(out.Errors, ImportError{
					Line:    l.line,
					ID:      l.run.ID,
					Code:    string(errors.ErrConflict),
					Message: "run already exists",
				})
			} else if !errors.Is(err, errors.ErrNotFound) {
				return nil, err
			}
		}
		if len(out.Errors) > 0 {
			return out, nil
		}
	}

	for _, l := range lines {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}
		err := db.InsertRun(ctx, database, l.run)
		switch {
		case err == nil:
			out.Imported++
		case errors.Is(err, errors.ErrConflict):
			out.Skipped++
		default:
			return nil, err
		}
	}

	return out, nil
}

// parseExportFile reads export lines, skipping the header.
func parseExportFile(r io.Reader) ([]importLine, []ImportError) {
	var (
		lines  []importLine
		errs   []ImportError
		lineNo int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var record run.ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			errs = append(errs, ImportError{
				Line:    lineNo,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if record.TGSExport {
			continue
		}

		r, err := record.ToRun()
		if err != nil {
			errs = append(errs, ImportError{
				Line:    lineNo,
				ID:      record.ID,
				Code:    "INVALID_RECORD",
				Message: err.Error(),
			})
			continue
		}
		if r.ID == "" {
			errs = append(errs, ImportError{
				Line:    lineNo,
				Code:    "INVALID_RECORD",
				Message: "missing run_id",
			})
			continue
		}
		lines = append(lines, importLine{line: lineNo, run: r})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{
			Line:    lineNo,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return lines, errs
}
