package guardrail

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// Evaluator applies the seven guardrails to proposals.
// It only reads its Policy, so one Evaluator may be shared across runs.
type Evaluator struct {
	Policy Policy
}

// NewEvaluator returns an Evaluator for policy.
func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{Policy: policy}
}

// Check runs every guardrail against p in fixed order without modifying p.
func (e *Evaluator) Check(p *proposal.FeatureProposal) []Result {
	results := make([]Result, 0, len(All))
	for _, g := range All {
		results = append(results, e.check(g, p))
	}
	return results
}

// Evaluate runs every guardrail against p and records the outcome on it:
// F2PCompliant is true iff all passed, GuardrailNotes holds each failure
// message in evaluation order.
func (e *Evaluator) Evaluate(p *proposal.FeatureProposal) []Result {
	results := e.Check(p)
	compliant := true
	notes := []string{}
	for _, r := range results {
		if !r.Passed {
			compliant = false
			notes = append(notes, r.Message)
		}
	}
	p.F2PCompliant = compliant
	p.GuardrailNotes = notes
	return results
}

// EvaluateAll evaluates proposals concurrently. results[i] belongs to proposals[i].
func (e *Evaluator) EvaluateAll(ctx context.Context, proposals []*proposal.FeatureProposal) ([][]Result, error) {
	results := make([][]Result, len(proposals))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range proposals {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Evaluate(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Evaluator) check(g Guardrail, p *proposal.FeatureProposal) Result {
	switch g {
	case NoPayToWin:
		return e.noPayToWin(p)
	case CosmeticOnly:
		return e.cosmeticOnly(p)
	case NoGameplayAdvantage:
		return e.noGameplayAdvantage(p)
	case FairProgression:
		return e.fairProgression(p)
	case TransparentOdds:
		return e.transparentOdds(p)
	case NoLootBoxes:
		return e.noLootBoxes(p)
	case AccessibleContent:
		return e.accessibleContent(p)
	default:
		panic(fmt.Sprintf("guardrail: no rule for %s", g))
	}
}

func pass(g Guardrail, msg string) Result {
	return Result{Passed: true, Guardrail: g, Message: msg, Suggestions: []string{}}
}

func fail(g Guardrail, msg string, suggestions ...string) Result {
	return Result{Passed: false, Guardrail: g, Message: msg, Suggestions: suggestions}
}

func (e *Evaluator) noPayToWin(p *proposal.FeatureProposal) Result {
	if hasType(e.Policy.AdvantageFreeTypes, p.MonetizationType) {
		return pass(NoPayToWin, "No pay-to-win mechanics detected")
	}
	return fail(NoPayToWin,
		fmt.Sprintf("Monetization type %q can grant a gameplay advantage", p.MonetizationType),
		"Remove any gameplay advantages from paid content",
		"Make all gameplay-affecting content available for free",
		"Convert to cosmetic-only if visual aspect is involved",
	)
}

func (e *Evaluator) cosmeticOnly(p *proposal.FeatureProposal) Result {
	if hasType(e.Policy.CosmeticPolicyTypes, p.MonetizationType) {
		return pass(CosmeticOnly, "Monetization type is acceptable")
	}
	return fail(CosmeticOnly,
		fmt.Sprintf("Invalid monetization type: %s", p.MonetizationType),
		"Ensure any paid content is purely visual",
		"Offer the feature for free if it cannot be cosmetic",
	)
}

func (e *Evaluator) noGameplayAdvantage(p *proposal.FeatureProposal) Result {
	found := matchTerms(p.Title+" "+p.Description, e.Policy.AdvantageTerms)
	if len(found) == 0 {
		return pass(NoGameplayAdvantage, "No gameplay advantage in proposal")
	}
	return fail(NoGameplayAdvantage,
		fmt.Sprintf("Pay-to-win indicators found: %s", strings.Join(found, ", ")),
		"Make gameplay-affecting features free for all players",
		"Separate visual aspects (can be paid) from functional aspects (must be free)",
	)
}

func (e *Evaluator) fairProgression(p *proposal.FeatureProposal) Result {
	var problems []string
	if p.Priority > 1.0 {
		problems = append(problems, fmt.Sprintf("priority %.2f exceeds 1.0", p.Priority))
	}
	if found := matchTerms(p.Category+" "+p.Description, e.Policy.ExclusiveTerms); len(found) > 0 {
		problems = append(problems, "exclusive: "+strings.Join(found, ", "))
	}
	if found := matchTerms(p.Title+" "+p.Description, e.Policy.UnfairProgressionTerms); len(found) > 0 {
		problems = append(problems, "unfair: "+strings.Join(found, ", "))
	}
	if len(problems) == 0 {
		return pass(FairProgression, "Progression appears fair for all players")
	}
	return fail(FairProgression,
		fmt.Sprintf("Unfair progression indicators: %s", strings.Join(problems, "; ")),
		"Remove pay-to-skip mechanics",
		"Ensure all players progress at the same rate",
		"Consider cosmetic rewards instead of progression shortcuts",
	)
}

func (e *Evaluator) transparentOdds(p *proposal.FeatureProposal) Result {
	if len(matchTerms(p.Title+" "+p.Description, e.Policy.RandomRewardTerms)) == 0 {
		return pass(TransparentOdds, "No undisclosed random elements")
	}
	for _, note := range p.ComparativeNotes {
		if len(matchTerms(note, e.Policy.OddsDisclosureTerms)) > 0 {
			return pass(TransparentOdds, "Random elements have an odds disclosure")
		}
	}
	return fail(TransparentOdds,
		"Random elements detected but no mention of transparent odds",
		"Add clear odds disclosure for any random elements",
		"Consider removing random elements entirely",
		"Display exact probabilities to players",
	)
}

func (e *Evaluator) noLootBoxes(p *proposal.FeatureProposal) Result {
	found := matchTerms(p.Title+" "+p.Description, e.Policy.LootBoxTerms)
	if len(found) == 0 {
		return pass(NoLootBoxes, "No loot box mechanics detected")
	}
	return fail(NoLootBoxes,
		fmt.Sprintf("Loot box mechanics detected: %s", strings.Join(found, ", ")),
		"Replace random rewards with direct purchase options",
		"If randomness is desired, make it free/earnable only",
		"Consider battle pass with guaranteed rewards instead",
	)
}

func (e *Evaluator) accessibleContent(p *proposal.FeatureProposal) Result {
	if p.MonetizationType != proposal.Cosmetic {
		return pass(AccessibleContent, "Core content appears accessible to all players")
	}
	found := matchTerms(p.Title+" "+p.Description, e.Policy.GatingTerms)
	if len(found) == 0 {
		return pass(AccessibleContent, "Cosmetic purchase does not gate playable content")
	}
	return fail(AccessibleContent,
		fmt.Sprintf("Cosmetic purchase gates playable content: %s", strings.Join(found, ", ")),
		"Make gameplay content available to all players",
		"Limit purchases to cosmetic items only",
	)
}

func hasType(types []proposal.MonetizationType, m proposal.MonetizationType) bool {
	for _, t := range types {
		if strings.EqualFold(string(t), string(m)) {
			return true
		}
	}
	return false
}

// matchTerms returns the terms found in text, in term-list order.
func matchTerms(text string, terms []string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t != "" && strings.Contains(lower, t) {
			found = append(found, term)
		}
	}
	return found
}
