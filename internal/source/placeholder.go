package source

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
)

//go:embed placeholders/*.json
var placeholderFS embed.FS

// Placeholder serves the bundled demo records for a platform.
// It is the default fetcher when no live credentials or record file are configured.
type Placeholder struct {
	Source insight.Source
}

func (p Placeholder) Name() insight.Source { return p.Source }

func (p Placeholder) Fetch(ctx context.Context, limit int, since time.Time) ([]insight.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := placeholderFS.ReadFile(fmt.Sprintf("placeholders/%s.json", p.Source))
	if err != nil {
		return nil, fmt.Errorf("no placeholder records for %s: %w", p.Source, err)
	}
	records, err := decodeArray(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s placeholders: %w", p.Source, err)
	}
	return window(records, limit, since), nil
}

func decodeArray(data []byte) ([]insight.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []insight.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}
