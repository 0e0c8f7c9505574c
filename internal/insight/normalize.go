package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a raw record omits optional fields.
const (
	DefaultAuthor   = "anonymous"
	DefaultCategory = "general"
)

// timestampLayouts are the string forms accepted for the timestamp field.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizationError reports a raw record that cannot become a CommunityInsight.
type NormalizationError struct {
	Source Source
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s record: %s %s", e.Source, e.Field, e.Reason)
}

// Classifier derives sentiment and topics from free text.
type Classifier interface {
	Classify(text string) (sentiment float64, topics []string)
}

// Normalizer converts raw source records into CommunityInsight values.
// The zero value is usable: without a Classifier, sentiment defaults to 0.0
// and topics come only from the raw record.
type Normalizer struct {
	Classifier Classifier
}

// Normalize builds a CommunityInsight from a raw record.
// content and timestamp are required; everything else has a default.
func (n Normalizer) Normalize(source Source, raw RawRecord) (CommunityInsight, error) {
	content := strings.TrimSpace(stringField(raw, "content"))
	if content == "" {
		reason := "is missing"
		if _, ok := raw["content"]; ok {
			reason = "is empty"
		}
		return CommunityInsight{}, &NormalizationError{Source: source, Field: "content", Reason: reason}
	}

	rawTS, ok := raw["timestamp"]
	if !ok || rawTS == nil {
		return CommunityInsight{}, &NormalizationError{Source: source, Field: "timestamp", Reason: "is missing"}
	}
	ts, err := parseTimestamp(rawTS)
	if err != nil {
		return CommunityInsight{}, &NormalizationError{Source: source, Field: "timestamp", Reason: err.Error()}
	}

	var (
		classified       bool
		classSentiment   float64
		classifiedTopics []string
	)
	if n.Classifier != nil {
		classSentiment, classifiedTopics = n.Classifier.Classify(content)
		classified = true
	}

	sentiment := 0.0
	if v, ok := floatField(raw, "sentiment"); ok {
		sentiment = v
	} else if classified {
		sentiment = classSentiment
	}
	sentiment = clamp(sentiment, -1, 1)

	var topics []string
	if v, ok := raw["topics"]; ok && v != nil {
		topics = stringSlice(v)
	} else if classified {
		topics = classifiedTopics
	}
	topics = dedupe(topics)

	author := strings.TrimSpace(stringField(raw, "author"))
	if author == "" {
		author = DefaultAuthor
	}

	category := strings.TrimSpace(stringField(raw, "category"))
	if category == "" {
		category = DefaultCategory
	}

	engagement := intMap(raw["engagement"])

	priority, ok := floatField(raw, "priority")
	if !ok {
		priority = ScorePriority(engagement, category, sentiment)
	}
	priority = clamp(priority, 0, 1)

	id := strings.TrimSpace(stringField(raw, "id"))
	if id == "" {
		id = DeriveID(source, author, ts, content)
	}

	return CommunityInsight{
		ID:         id,
		Source:     source,
		Content:    content,
		Sentiment:  sentiment,
		Topics:     topics,
		Author:     author,
		Timestamp:  ts.UTC(),
		Engagement: engagement,
		Category:   category,
		Priority:   priority,
	}, nil
}

// DeriveID returns a content-derived identifier, stable across re-normalization.
func DeriveID(source Source, author string, ts time.Time, content string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%s", source, author, ts.UTC().Unix(), content)
	return "src-" + hex.EncodeToString(h.Sum(nil))[:12]
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, fmt.Errorf("is zero")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, fmt.Errorf("is empty")
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0), nil
		}
		return time.Time{}, fmt.Errorf("has unrecognized format %q", s)
	case json.Number:
		secs, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("is not a number")
		}
		return unixFloat(secs), nil
	case int:
		return time.Unix(int64(t), 0), nil
	case int64:
		return time.Unix(t, 0), nil
	case float64:
		return unixFloat(t), nil
	default:
		return time.Time{}, fmt.Errorf("has unsupported type %T", v)
	}
}

func unixFloat(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9))
}

func stringField(raw RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func floatField(raw RawRecord, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{s}
	default:
		return nil
	}
}

func intMap(v any) map[string]int {
	out := make(map[string]int)
	switch m := v.(type) {
	case map[string]int:
		for k, n := range m {
			out[k] = n
		}
	case map[string]any:
		for k, raw := range m {
			if f, ok := toFloat(raw); ok {
				out[k] = int(f)
			}
		}
	}
	return out
}

// dedupe trims topics and removes blanks and repeats, keeping first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
