// Package drafting turns evaluated proposals and insights into issue drafts
// and run reports, all rendered as Markdown.
package drafting

import (
	"fmt"
	"strings"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// Priority bands.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

var priorityBands = []struct {
	name      string
	threshold float64
}{
	{PriorityCritical, 0.9},
	{PriorityHigh, 0.7},
	{PriorityMedium, 0.4},
	{PriorityLow, 0},
}

var defaultLabels = []string{"community-driven", "auto-generated"}

var categoryLabels = map[string][]string{
	"customization": {"enhancement", "customization"},
	"cosmetics":     {"enhancement", "cosmetics"},
	"social":        {"enhancement", "social-features"},
	"events":        {"enhancement", "events"},
	"progression":   {"enhancement", "progression"},
	"performance":   {"bug", "performance"},
	"balance":       {"enhancement", "balance"},
	"content":       {"enhancement", "content"},
	"general":       {"enhancement"},
}

// Issue is a drafted tracker issue.
type Issue struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Labels    []string  `json:"labels"`
	Milestone string    `json:"milestone,omitempty"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// Markdown renders the issue for preview.
func (i Issue) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", i.Title)
	fmt.Fprintf(&b, "**Priority:** %s\n", i.Priority)
	labels := "None"
	if len(i.Labels) > 0 {
		labels = strings.Join(i.Labels, ", ")
	}
	fmt.Fprintf(&b, "**Labels:** %s\n", labels)
	if i.Milestone != "" {
		fmt.Fprintf(&b, "**Milestone:** %s\n", i.Milestone)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(i.Body)
	return b.String()
}

// Drafter builds issues. The zero value uses time.Now.
type Drafter struct {
	Now func() time.Time
}

func (d Drafter) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// PriorityBand maps a score in [0, 1] to a named band.
func PriorityBand(score float64) string {
	for _, band := range priorityBands {
		if score >= band.threshold {
			return band.name
		}
	}
	return PriorityLow
}

func milestone(score float64) string {
	switch {
	case score >= 0.8:
		return "Next Release"
	case score >= 0.5:
		return "Backlog - High Priority"
	default:
		return "Backlog"
	}
}

// Draft creates an issue for an evaluated proposal.
func (d Drafter) Draft(p *proposal.FeatureProposal) Issue {
	labels := append([]string{}, defaultLabels...)
	extra, ok := categoryLabels[p.Category]
	if !ok {
		extra, ok = categoryLabels[p.Topic]
	}
	if !ok {
		extra = []string{"enhancement"}
	}
	labels = append(labels, extra...)
	if p.F2PCompliant {
		labels = append(labels, "f2p-approved")
	} else {
		labels = append(labels, "needs-review")
	}

	return Issue{
		Title:     "[Feature] " + p.Title,
		Body:      proposalBody(p),
		Labels:    labels,
		Milestone: milestone(p.Priority),
		Priority:  PriorityBand(p.Priority),
		CreatedAt: d.now(),
	}
}

// DraftAll drafts one issue per proposal, in order.
func (d Drafter) DraftAll(proposals []*proposal.FeatureProposal) []Issue {
	issues := make([]Issue, 0, len(proposals))
	for _, p := range proposals {
		issues = append(issues, d.Draft(p))
	}
	return issues
}

// DraftInsight creates an issue straight from one piece of feedback.
func (d Drafter) DraftInsight(in insight.CommunityInsight) Issue {
	labels := append([]string{}, defaultLabels...)
	labels = append(labels, "source:"+string(in.Source))

	prefix := "[Community Feedback]"
	switch in.Category {
	case "bug_report":
		labels = append(labels, "bug")
		prefix = "[Bug]"
	case insight.CategoryFeatureRequest:
		labels = append(labels, "enhancement")
		prefix = "[Feature Request]"
	default:
		labels = append(labels, "feedback")
	}

	return Issue{
		Title:     prefix + " " + shortTitle(in.Content),
		Body:      insightBody(in),
		Labels:    labels,
		Priority:  PriorityBand(in.Priority),
		CreatedAt: d.now(),
	}
}

// shortTitle cuts content to 80 runes on a word boundary.
func shortTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= 80 {
		return content
	}
	cut := string(runes[:80])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func proposalBody(p *proposal.FeatureProposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Summary\n\n%s\n\n## Details\n\n", p.Description)
	fmt.Fprintf(&b, "- **Category:** %s\n", p.Category)
	if p.Topic != "" {
		fmt.Fprintf(&b, "- **Topic:** %s\n", p.Topic)
	}
	fmt.Fprintf(&b, "- **Priority Score:** %.2f\n", p.Priority)
	fmt.Fprintf(&b, "- **Monetization Type:** %s\n", p.MonetizationType)
	compliant := "No - Needs Review"
	if p.F2PCompliant {
		compliant = "Yes"
	}
	fmt.Fprintf(&b, "- **F2P Compliant:** %s\n\n", compliant)

	b.WriteString("## Source\n\nThis feature was generated from community feedback analysis.\n")
	fmt.Fprintf(&b, "- **Source Insights:** %d community inputs\n\n", len(p.SourceInsights))

	if len(p.GuardrailNotes) > 0 {
		b.WriteString("## Guardrail Notes\n\n")
		for _, n := range p.GuardrailNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}
	if len(p.ComparativeNotes) > 0 {
		b.WriteString("## Competitive Analysis\n\n")
		for _, n := range p.ComparativeNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	b.WriteString(`## Acceptance Criteria

- [ ] Feature implemented as described
- [ ] F2P guardrails validated
- [ ] No gameplay advantages for paid content
- [ ] Unit tests added
- [ ] Documentation updated

---

*This issue was auto-generated by the Thirsty's Game Studio agent.*
`)
	return b.String()
}

func sentimentLabel(s float64) string {
	switch {
	case s >= 0.5:
		return "Positive"
	case s >= 0:
		return "Neutral"
	case s >= -0.5:
		return "Slightly Negative"
	default:
		return "Negative"
	}
}

func insightBody(in insight.CommunityInsight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Community Feedback\n\n> %s\n\n## Details\n\n", in.Content)
	fmt.Fprintf(&b, "- **Source:** %s\n", in.Source)
	fmt.Fprintf(&b, "- **Category:** %s\n", in.Category)
	fmt.Fprintf(&b, "- **Sentiment:** %s (%.2f)\n", sentimentLabel(in.Sentiment), in.Sentiment)
	fmt.Fprintf(&b, "- **Priority Score:** %.2f\n", in.Priority)
	topics := "None identified"
	if len(in.Topics) > 0 {
		topics = strings.Join(in.Topics, ", ")
	}
	fmt.Fprintf(&b, "- **Topics:** %s\n\n## Engagement Metrics\n\n", topics)
	for _, metric := range sortedKeys(in.Engagement) {
		fmt.Fprintf(&b, "- **%s:** %d\n", metric, in.Engagement[metric])
	}
	b.WriteString(`
## Next Steps

- [ ] Review feedback validity
- [ ] Determine if actionable
- [ ] Create feature proposal if applicable
- [ ] Respond to community if appropriate
`)
	return b.String()
}
