// Package source provides the community fetchers that feed the pipeline.
// Fetchers return raw records; normalization happens in the pipeline.
package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
)

// Fetcher retrieves raw records from one community platform.
type Fetcher interface {
	Name() insight.Source
	// Fetch returns at most limit records (limit <= 0 means no limit) newer than since
	// (zero since means no cutoff).
	Fetch(ctx context.Context, limit int, since time.Time) ([]insight.RawRecord, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc struct {
	Source insight.Source
	Fn     func(ctx context.Context, limit int, since time.Time) ([]insight.RawRecord, error)
}

func (f FetchFunc) Name() insight.Source { return f.Source }

func (f FetchFunc) Fetch(ctx context.Context, limit int, since time.Time) ([]insight.RawRecord, error) {
	return f.Fn(ctx, limit, since)
}

// Unavailable is a fetcher that always fails, standing in for a source that cannot be reached.
type Unavailable struct {
	Source insight.Source
	Reason string
}

func (u Unavailable) Name() insight.Source { return u.Source }

func (u Unavailable) Fetch(context.Context, int, time.Time) ([]insight.RawRecord, error) {
	reason := u.Reason
	if reason == "" {
		reason = "source unavailable"
	}
	return nil, fmt.Errorf("%s: %s", u.Source, reason)
}

// credentialEnv lists the environment variables a live client for each platform needs.
var credentialEnv = map[insight.Source][]string{
	insight.SourceReddit:  {"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET"},
	insight.SourceDiscord: {"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID"},
	insight.SourceSteam:   {"STEAM_API_KEY", "STEAM_APP_ID"},
}

// CredentialEnv returns the environment variables required for src.
func CredentialEnv(src insight.Source) []string {
	return credentialEnv[src]
}

// Configured reports whether every credential variable for src is set.
func Configured(src insight.Source) bool {
	vars, ok := credentialEnv[src]
	if !ok {
		return false
	}
	for _, v := range vars {
		if os.Getenv(v) == "" {
			return false
		}
	}
	return true
}

// window applies the since cutoff and limit to records in order.
// Records whose timestamp cannot be read are kept; the normalizer rejects them later.
func window(records []insight.RawRecord, limit int, since time.Time) []insight.RawRecord {
	out := make([]insight.RawRecord, 0, len(records))
	for _, r := range records {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !since.IsZero() {
			if s, ok := r["timestamp"].(string); ok {
				if ts, err := time.Parse(time.RFC3339, s); err == nil && !ts.After(since) {
					continue
				}
			}
		}
		out = append(out, r)
	}
	return out
}
