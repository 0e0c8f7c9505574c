// Package guardrail evaluates feature proposals against the studio's
// free-to-play monetization rules.
package guardrail

import "fmt"

// Guardrail is one of the seven fixed F2P compliance rules.
type Guardrail int

const (
	NoPayToWin Guardrail = iota
	CosmeticOnly
	NoGameplayAdvantage
	FairProgression
	TransparentOdds
	NoLootBoxes
	AccessibleContent

	numGuardrails
)

// All lists every guardrail in evaluation order.
var All = [numGuardrails]Guardrail{
	NoPayToWin,
	CosmeticOnly,
	NoGameplayAdvantage,
	FairProgression,
	TransparentOdds,
	NoLootBoxes,
	AccessibleContent,
}

var names = [numGuardrails]string{
	NoPayToWin:          "no_pay_to_win",
	CosmeticOnly:        "cosmetic_only",
	NoGameplayAdvantage: "no_gameplay_advantage",
	FairProgression:     "fair_progression",
	TransparentOdds:     "transparent_odds",
	NoLootBoxes:         "no_loot_boxes",
	AccessibleContent:   "accessible_content",
}

func (g Guardrail) valid() bool { return g >= 0 && g < numGuardrails }

// String returns the snake_case wire name.
func (g Guardrail) String() string {
	if !g.valid() {
		return fmt.Sprintf("guardrail(%d)", int(g))
	}
	return names[g]
}

func (g Guardrail) MarshalText() ([]byte, error) {
	if !g.valid() {
		return nil, fmt.Errorf("invalid guardrail %d", int(g))
	}
	return []byte(names[g]), nil
}

func (g *Guardrail) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Parse resolves a wire name to its Guardrail.
func Parse(name string) (Guardrail, error) {
	for _, g := range All {
		if names[g] == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown guardrail %q", name)
}

// Result is the outcome of one guardrail applied to one proposal.
type Result struct {
	Passed      bool      `json:"passed"`
	Guardrail   Guardrail `json:"guardrail"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
}
