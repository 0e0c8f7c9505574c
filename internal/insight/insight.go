package insight

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the community platform an insight came from.
type Source string

const (
	SourceReddit  Source = "reddit"
	SourceDiscord Source = "discord"
	SourceSteam   Source = "steam"
)

// AllSources lists every supported source in fetch order.
var AllSources = []Source{SourceReddit, SourceDiscord, SourceSteam}

// ParseSource validates a source name (case-insensitive).
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSources {
		if src == known {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q (want reddit, discord or steam)", s)
}

// RawRecord is an unnormalized record as delivered by a source fetcher.
type RawRecord map[string]any

// CommunityInsight is a normalized piece of community feedback.
// Values are produced only by a Normalizer and are not modified afterwards.
type CommunityInsight struct {
	// ID is stable for a given raw record (source-provided or content-derived)
	ID string `json:"id"`

	Source  Source `json:"source"`
	Content string `json:"content"`

	// Sentiment is in [-1.0, 1.0]
	Sentiment float64 `json:"sentiment"`

	// Topics is an ordered set (no duplicates)
	Topics []string `json:"topics"`

	Author     string         `json:"author"`
	Timestamp  time.Time      `json:"timestamp"`
	Engagement map[string]int `json:"engagement"`
	Category   string         `json:"category"`

	// Priority is in [0.0, 1.0]
	Priority float64 `json:"priority"`
}

// HasTopic reports whether the insight carries the given topic.
func (c CommunityInsight) HasTopic(topic string) bool {
	for _, t := range c.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// TotalEngagement sums all engagement metrics.
func (c CommunityInsight) TotalEngagement() int {
	total := 0
	for _, n := range c.Engagement {
		total += n
	}
	return total
}
