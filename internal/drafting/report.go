package drafting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// IssueReport counts drafted issues by priority band.
type IssueReport struct {
	TotalIssues int            `json:"total_issues"`
	ByPriority  map[string]int `json:"by_priority"`
}

// NewIssueReport summarizes issues.
func NewIssueReport(issues []Issue) IssueReport {
	r := IssueReport{TotalIssues: len(issues), ByPriority: make(map[string]int)}
	for _, i := range issues {
		r.ByPriority[i.Priority]++
	}
	return r
}

// RunSummary is the data a run report is rendered from.
type RunSummary struct {
	RunID         string
	Success       bool
	ErrorMessage  string
	TotalInsights int
	Insights      insight.Summary
	Proposals     []*proposal.FeatureProposal
}

// RunReport renders a Markdown summary of one pipeline run.
func RunReport(s RunSummary) string {
	var b strings.Builder
	b.WriteString("## Pipeline Run Summary\n\n")
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`", s.RunID)
		if s.Success {
			b.WriteString(" completed.\n\n")
		} else {
			b.WriteString(" failed.\n\n")
		}
	}
	if s.ErrorMessage != "" {
		fmt.Fprintf(&b, "> **Error:** %s\n\n", s.ErrorMessage)
	}

	b.WriteString("### Run Statistics\n\n")
	fmt.Fprintf(&b, "- **Total Insights Analyzed:** %d\n", s.TotalInsights)
	fmt.Fprintf(&b, "- **Proposals Generated:** %d\n", len(s.Proposals))
	fmt.Fprintf(&b, "- **Average Sentiment:** %.2f\n", s.Insights.AvgSentiment)
	sources := sortedKeys(s.Insights.Sources)
	if len(sources) == 0 {
		sources = []string{"none"}
	}
	fmt.Fprintf(&b, "- **Sources:** %s\n", strings.Join(sources, ", "))

	b.WriteString("\n### Proposals\n\n")
	compliant := 0
	for i, p := range s.Proposals {
		status := "needs review"
		if p.F2PCompliant {
			status = "compliant"
			compliant++
		}
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, p.Title, status)
		fmt.Fprintf(&b, "   - Category: %s\n", p.Category)
		fmt.Fprintf(&b, "   - Priority: %.2f\n", p.Priority)
		fmt.Fprintf(&b, "   - Monetization: %s\n", p.MonetizationType)
	}
	if len(s.Proposals) == 0 {
		b.WriteString("No proposals generated.\n")
	}

	status := "All proposals are F2P compliant"
	if compliant != len(s.Proposals) {
		status = "Some proposals need review"
	}
	fmt.Fprintf(&b, "\n### F2P Compliance\n\n- **Compliant:** %d/%d\n- **Status:** %s\n", compliant, len(s.Proposals), status)
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
