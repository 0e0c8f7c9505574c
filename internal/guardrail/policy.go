package guardrail

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
)

// Policy holds the configurable inputs of the guardrail rules.
// Term lists match case-insensitively as substrings. An empty term list
// never matches, so the rule it feeds passes.
type Policy struct {
	// AdvantageFreeTypes are the monetization types that cannot carry a gameplay advantage.
	AdvantageFreeTypes []proposal.MonetizationType `yaml:"advantage_free_types" json:"advantage_free_types"`
	// CosmeticPolicyTypes are the monetization types the cosmetic-only policy accepts.
	CosmeticPolicyTypes []proposal.MonetizationType `yaml:"cosmetic_policy_types" json:"cosmetic_policy_types"`

	AdvantageTerms         []string `yaml:"advantage_terms" json:"advantage_terms"`
	ExclusiveTerms         []string `yaml:"exclusive_terms" json:"exclusive_terms"`
	UnfairProgressionTerms []string `yaml:"unfair_progression_terms" json:"unfair_progression_terms"`
	RandomRewardTerms      []string `yaml:"random_reward_terms" json:"random_reward_terms"`
	OddsDisclosureTerms    []string `yaml:"odds_disclosure_terms" json:"odds_disclosure_terms"`
	LootBoxTerms           []string `yaml:"loot_box_terms" json:"loot_box_terms"`
	GatingTerms            []string `yaml:"gating_terms" json:"gating_terms"`
}

// DefaultPolicy returns the studio's standard F2P policy.
func DefaultPolicy() Policy {
	return Policy{
		AdvantageFreeTypes:  []proposal.MonetizationType{proposal.Cosmetic, proposal.Free, proposal.QoL},
		CosmeticPolicyTypes: []proposal.MonetizationType{proposal.Cosmetic, proposal.Free},
		AdvantageTerms: []string{
			"stat boost", "power boost", "damage increase", "health increase", "speed boost",
			"buy advantage", "pay for power", "premium stats", "vip bonus",
			"exclusive weapon", "exclusive ability", "more powerful",
		},
		ExclusiveTerms:         []string{"exclusive", "vip only", "premium only", "paid players only"},
		UnfairProgressionTerms: []string{"skip grind", "instant unlock", "pay to skip", "faster xp"},
		RandomRewardTerms:      []string{"random", "chance", "mystery"},
		OddsDisclosureTerms:    []string{"odds", "probability", "drop rate"},
		LootBoxTerms:           []string{"loot box", "lootbox", "gacha", "mystery box", "random reward box"},
		GatingTerms: []string{
			"paywall", "behind a purchase", "required to play", "unlocks the mode",
			"unlocks the map", "premium only", "paid players only",
		},
	}
}

// Validate rejects policies that would fail every proposal.
func (p Policy) Validate() error {
	var errs []error
	if len(p.AdvantageFreeTypes) == 0 {
		errs = append(errs, fmt.Errorf("advantage_free_types must not be empty"))
	}
	if len(p.CosmeticPolicyTypes) == 0 {
		errs = append(errs, fmt.Errorf("cosmetic_policy_types must not be empty"))
	}
	return errors.Join(errs...)
}

// LoadPolicy reads a YAML policy file over DefaultPolicy.
// Keys absent from the file keep their defaults; a key set to [] disables its terms.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML policy bytes over DefaultPolicy.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}
