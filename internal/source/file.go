package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 1 << 20

// File reads raw records exported from a platform, either as a JSON array
// or as JSON Lines (one object per line).
type File struct {
	Source insight.Source
	Path   string
}

func (f File) Name() insight.Source { return f.Source }

func (f File) Fetch(ctx context.Context, limit int, since time.Time) ([]insight.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s records: %w", f.Source, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []insight.RawRecord{}, nil
	}

	var records []insight.RawRecord
	if trimmed[0] == '[' {
		records, err = decodeArray(trimmed)
	} else {
		records, err = decodeLines(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return window(records, limit, since), nil
}

func decodeLines(data []byte) ([]insight.RawRecord, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []insight.RawRecord
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var r insight.RawRecord
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
