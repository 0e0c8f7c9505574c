package comparative

import "strings"

// Recommendation is an adaptable reference reduced to its advice.
type Recommendation struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
}

// AvoidPattern is a non-adaptable reference and why it is avoided.
type AvoidPattern struct {
	Feature string `json:"feature"`
	Reason  string `json:"reason"`
}

// Report summarizes a reference set.
type Report struct {
	TotalInsights   int              `json:"total_insights"`
	F2PAdaptable    int              `json:"f2p_adaptable"`
	ToAvoid         int              `json:"to_avoid"`
	Categories      map[string]int   `json:"categories"`
	Insights        []Reference      `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
	AvoidPatterns   []AvoidPattern   `json:"avoid_patterns"`
}

// NewReport builds a Report over refs.
func NewReport(refs []Reference) Report {
	r := Report{
		TotalInsights:   len(refs),
		Categories:      make(map[string]int),
		Insights:        append([]Reference{}, refs...),
		Recommendations: []Recommendation{},
		AvoidPatterns:   []AvoidPattern{},
	}
	for _, ref := range refs {
		r.Categories[ref.Category]++
		if ref.Adaptable {
			r.F2PAdaptable++
			r.Recommendations = append(r.Recommendations, Recommendation{
				Category:       ref.Category,
				Recommendation: ref.AdaptationNotes,
			})
			continue
		}
		r.ToAvoid++
		r.AvoidPatterns = append(r.AvoidPatterns, AvoidPattern{
			Feature: ref.Description,
			Reason:  strings.Join(ref.Cons, ", "),
		})
	}
	return r
}

// ForCategory returns the references whose category matches, or whose
// description mentions category.
func ForCategory(refs []Reference, category string) []Reference {
	needle := strings.ToLower(strings.TrimSpace(category))
	out := []Reference{}
	if needle == "" {
		return out
	}
	for _, ref := range refs {
		if strings.EqualFold(ref.Category, needle) || strings.Contains(strings.ToLower(ref.Description), needle) {
			out = append(out, ref)
		}
	}
	return out
}
