package proposal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
)

// Dominance thresholds for a topic within one category.
const (
	DominantCount    = 2
	DominantPriority = 0.7
)

const (
	maxRepresentatives = 3
	maxPointLength     = 200
)

const descriptionFooter = "This feature would enhance the player experience while maintaining our F2P-friendly approach.\n" +
	"Engagement metrics suggest high community interest in this area."

// CosmeticClassifier decides whether a group of insights is about cosmetics.
type CosmeticClassifier interface {
	IsCosmetic(topic string, insights []insight.CommunityInsight) bool
}

// DefaultCosmeticTopics are the topics TopicClassifier treats as cosmetic.
var DefaultCosmeticTopics = []string{"cosmetics", "customization", "skins", "outfits", "emotes"}

// TopicClassifier flags a group as cosmetic when its topic, or any topic
// carried by one of its insights, is in Topics.
type TopicClassifier struct {
	Topics []string
}

func (c TopicClassifier) IsCosmetic(topic string, insights []insight.CommunityInsight) bool {
	set := make(map[string]bool, len(c.Topics))
	for _, t := range c.Topics {
		set[strings.ToLower(t)] = true
	}
	if set[strings.ToLower(topic)] {
		return true
	}
	for _, in := range insights {
		for _, t := range in.Topics {
			if set[strings.ToLower(t)] {
				return true
			}
		}
	}
	return false
}

// Generator synthesizes proposals from insight batches.
// The zero value uses TopicClassifier with DefaultCosmeticTopics and time.Now.
type Generator struct {
	Cosmetic CosmeticClassifier
	Now      func() time.Time
}

type groupKey struct {
	category string
	topic    string
}

type group struct {
	key     groupKey
	members []insight.CommunityInsight
}

// Generate groups insights by category and dominant topic and emits one
// proposal per group in first-seen order. An empty batch yields no proposals.
//
// Within a category, each insight joins the group of its first dominant topic.
// Insights with no dominant topic merge into the category's first group, so a
// (category, topic) pair never produces more than one proposal.
func (g Generator) Generate(ctx context.Context, insights []insight.CommunityInsight) ([]*FeatureProposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(insights) == 0 {
		return []*FeatureProposal{}, nil
	}

	dominant := dominantTopics(insights)

	// First pass fixes group order from the first dominant member of each pair.
	var order []groupKey
	groups := make(map[groupKey]*group)
	firstInCategory := make(map[string]groupKey)
	assigned := make([]*groupKey, len(insights))
	for i, in := range insights {
		topic, ok := firstDominant(in, dominant[in.Category])
		if !ok {
			continue
		}
		key := groupKey{category: in.Category, topic: topic}
		if _, exists := groups[key]; !exists {
			groups[key] = &group{key: key}
			order = append(order, key)
			if _, seen := firstInCategory[in.Category]; !seen {
				firstInCategory[in.Category] = key
			}
		}
		assigned[i] = &key
	}

	// Second pass fills members in batch order.
	for i, in := range insights {
		key := assigned[i]
		if key == nil {
			k, ok := firstInCategory[in.Category]
			if !ok {
				continue
			}
			key = &k
		}
		groups[*key].members = append(groups[*key].members, in)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	var cosmetic CosmeticClassifier = TopicClassifier{Topics: DefaultCosmeticTopics}
	if g.Cosmetic != nil {
		cosmetic = g.Cosmetic
	}

	createdAt := now().UTC()
	proposals := make([]*FeatureProposal, 0, len(order))
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		proposals = append(proposals, build(groups[key], cosmetic, createdAt))
	}
	return proposals, nil
}

// dominantTopics returns, per category, the set of topics that qualify as dominant.
func dominantTopics(insights []insight.CommunityInsight) map[string]map[string]bool {
	counts := make(map[groupKey]int)
	strong := make(map[groupKey]bool)
	for _, in := range insights {
		for _, t := range in.Topics {
			key := groupKey{category: in.Category, topic: t}
			counts[key]++
			if in.Priority >= DominantPriority {
				strong[key] = true
			}
		}
	}

	out := make(map[string]map[string]bool)
	for key, n := range counts {
		if n >= DominantCount || strong[key] {
			if out[key.category] == nil {
				out[key.category] = make(map[string]bool)
			}
			out[key.category][key.topic] = true
		}
	}
	return out
}

func firstDominant(in insight.CommunityInsight, dominant map[string]bool) (string, bool) {
	for _, t := range in.Topics {
		if dominant[t] {
			return t, true
		}
	}
	return "", false
}

func build(g *group, cosmetic CosmeticClassifier, createdAt time.Time) *FeatureProposal {
	ids := make([]string, len(g.members))
	var priority float64
	for i, m := range g.members {
		ids[i] = m.ID
		priority = max(priority, m.Priority)
	}

	monetization := Free
	if cosmetic.IsCosmetic(g.key.topic, g.members) {
		monetization = Cosmetic
	}

	return &FeatureProposal{
		Title:            Title(g.key.topic),
		Description:      describe(g.members),
		SourceInsights:   ids,
		Category:         g.key.category,
		Topic:            g.key.topic,
		MonetizationType: monetization,
		Priority:         priority,
		GuardrailNotes:   []string{},
		ComparativeNotes: []string{},
		CreatedAt:        createdAt,
	}
}

// Title renders the proposal title for a topic.
func Title(topic string) string {
	words := strings.Fields(strings.ReplaceAll(topic, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + strings.ToLower(w[size:])
	}
	return "Community-Requested: Enhanced " + strings.Join(words, " ")
}

func describe(members []insight.CommunityInsight) string {
	top := append([]insight.CommunityInsight(nil), members...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Priority > top[j].Priority })
	if len(top) > maxRepresentatives {
		top = top[:maxRepresentatives]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on community feedback from %d users:\n\n", len(members))
	for _, in := range top {
		b.WriteString("- ")
		b.WriteString(firstSentence(in.Content))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(descriptionFooter)
	return b.String()
}

func firstSentence(content string) string {
	if i := strings.Index(content, "."); i >= 0 {
		content = content[:i+1]
	}
	if utf8.RuneCountInString(content) > maxPointLength {
		runes := []rune(content)
		content = string(runes[:maxPointLength-3]) + "..."
	}
	return content
}
