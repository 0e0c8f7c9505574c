package insight

import (
	"regexp"
	"strings"
)

// CategoryFeatureRequest is the category that gets a priority boost.
const CategoryFeatureRequest = "feature_request"

var positiveWords = map[string]bool{
	"love": true, "great": true, "amazing": true, "excellent": true, "awesome": true,
	"fantastic": true, "perfect": true, "best": true, "fun": true, "enjoy": true,
	"wonderful": true, "brilliant": true, "superb": true, "outstanding": true,
	"incredible": true, "thanks": true, "thank": true, "appreciate": true,
	"helpful": true, "beautiful": true, "cool": true, "nice": true, "good": true,
}

var negativeWords = map[string]bool{
	"hate": true, "bad": true, "terrible": true, "awful": true, "horrible": true,
	"worst": true, "boring": true, "frustrating": true, "annoying": true, "broken": true,
	"buggy": true, "crash": true, "laggy": true, "unfair": true, "expensive": true,
	"scam": true, "p2w": true, "pay-to-win": true, "greedy": true, "garbage": true,
	"trash": true, "disappointed": true,
}

// topicKeywords is ordered so extracted topics are deterministic.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"customization", []string{"customization", "customize", "custom", "personalize", "skins", "outfits"}},
	{"cosmetics", []string{"cosmetic", "cosmetics", "skin", "outfit", "appearance", "visual"}},
	{"gameplay", []string{"gameplay", "mechanics", "combat", "movement", "controls"}},
	{"social", []string{"guild", "clan", "friends", "chat", "party", "team", "social"}},
	{"monetization", []string{"shop", "store", "buy", "purchase", "price", "cost", "f2p", "free"}},
	{"progression", []string{"level", "xp", "unlock", "progression", "grind", "earn", "reward"}},
	{"events", []string{"event", "season", "seasonal", "battle pass", "limited"}},
	{"performance", []string{"lag", "fps", "performance", "crash", "bug", "optimization"}},
	{"balance", []string{"balance", "nerf", "buff", "overpowered", "underpowered", "op"}},
	{"content", []string{"content", "update", "new", "feature", "addition", "map", "mode"}},
}

var categoryPatterns = []struct {
	category string
	patterns []*regexp.Regexp
}{
	{CategoryFeatureRequest, compileAll(
		`\bwould love\b`, `\bshould add\b`, `\bcan we get\b`, `\bsuggestion\b`,
		`\bidea\b`, `\brequest\b`, `\bwish\b`, `\bplease add\b`,
	)},
	{"bug_report", compileAll(
		`\bbug\b`, `\bcrash\b`, `\bbroken\b`, `\bissue\b`, `\bglitch\b`, `\berror\b`, `\bnot working\b`,
	)},
	{"praise", compileAll(
		`\blove this\b`, `\bamazing\b`, `\bgreat job\b`, `\bthank you\b`, `\bawesome\b`, `\bbest game\b`,
	)},
	{"complaint", compileAll(
		`\bhate\b`, `\bterrible\b`, `\bworst\b`, `\bunfair\b`, `\bunfun\b`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// LexiconClassifier is a rule-based Classifier backed by fixed word lists.
type LexiconClassifier struct{}

// Classify returns a lexicon sentiment score and the topics whose keywords appear in text.
// Text without any known keyword yields the single topic "general".
func (LexiconClassifier) Classify(text string) (float64, []string) {
	return Sentiment(text), ExtractTopics(text)
}

// Sentiment scores text as (positive - negative) / (positive + negative).
func Sentiment(text string) float64 {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if positiveWords[word] {
			pos++
		}
		if negativeWords[word] {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return clamp(float64(pos-neg)/float64(total), -1, 1)
}

// ExtractTopics returns every topic with at least one keyword in text.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, entry := range topicKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				found = append(found, entry.topic)
				break
			}
		}
	}
	if len(found) == 0 {
		return []string{DefaultCategory}
	}
	return found
}

// Categorize assigns a feedback category from phrase patterns, or "discussion".
func Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range categoryPatterns {
		for _, re := range entry.patterns {
			if re.MatchString(lower) {
				return entry.category
			}
		}
	}
	return "discussion"
}

// ScorePriority derives a priority in [0, 1] from engagement, category and sentiment.
func ScorePriority(engagement map[string]int, category string, sentiment float64) float64 {
	total := 0
	for _, n := range engagement {
		total += n
	}
	engagementScore := min(1.0, float64(total)/500)

	multiplier := 1.0
	if category == CategoryFeatureRequest {
		multiplier = 1.2
	}

	boost := 0.0
	if sentiment > 0.5 {
		boost = 0.1
	}

	return clamp((engagementScore*multiplier+boost)/1.3, 0, 1)
}
