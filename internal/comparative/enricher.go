package comparative

import (
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// DefaultMaxNotes bounds how many notes one Enrich call adds.
const DefaultMaxNotes = 3

// Enricher appends competitor notes to proposals.
// References are read-only after construction and may be shared across runs.
type Enricher struct {
	References []Reference
	MaxNotes   int
}

// NewEnricher returns an Enricher over refs with the default note limit.
func NewEnricher(refs []Reference) *Enricher {
	return &Enricher{References: refs, MaxNotes: DefaultMaxNotes}
}

// Enrich appends notes for references matching p's category or topic and
// returns how many were added. Existing notes are never removed or
// reordered. A matching note already on p is not added again but still
// counts toward MaxNotes, so repeated calls add nothing.
func (e *Enricher) Enrich(p *proposal.FeatureProposal) int {
	limit := e.MaxNotes
	if limit <= 0 {
		limit = DefaultMaxNotes
	}

	present := make(map[string]bool, len(p.ComparativeNotes))
	for _, n := range p.ComparativeNotes {
		present[n] = true
	}

	used, added := 0, 0
	for _, ref := range e.References {
		if used >= limit {
			break
		}
		if !ref.matches(p.Category, p.Topic) {
			continue
		}
		used++
		note := ref.Note()
		if present[note] {
			continue
		}
		present[note] = true
		p.ComparativeNotes = append(p.ComparativeNotes, note)
		added++
	}
	return added
}

// EnrichAll enriches each proposal in order and returns the total notes added.
func (e *Enricher) EnrichAll(proposals []*proposal.FeatureProposal) int {
	total := 0
	for _, p := range proposals {
		total += e.Enrich(p)
	}
	return total
}
