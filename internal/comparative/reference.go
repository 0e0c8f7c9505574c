// Package comparative annotates proposals with notes from competitor analysis.
package comparative

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reference is one analyzed competitor feature.
type Reference struct {
	SourceGame      string   `yaml:"source_game" json:"source_game"`
	Category        string   `yaml:"category" json:"category"`
	Topics          []string `yaml:"topics" json:"topics"`
	Description     string   `yaml:"description" json:"description"`
	Pros            []string `yaml:"pros" json:"pros"`
	Cons            []string `yaml:"cons" json:"cons"`
	Adaptable       bool     `yaml:"f2p_adaptable" json:"f2p_adaptable"`
	AdaptationNotes string   `yaml:"adaptation_notes" json:"adaptation_notes"`
}

// Note renders the comparative note attached to a matching proposal.
func (r Reference) Note() string {
	if r.Adaptable {
		return fmt.Sprintf("[%s] %s: %s", r.SourceGame, r.Category, r.AdaptationNotes)
	}
	return fmt.Sprintf("[%s] AVOID: %s - not F2P adaptable", r.SourceGame, r.Description)
}

// matches reports whether r is relevant to a proposal's category or topic.
func (r Reference) matches(category, topic string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	topic = strings.ToLower(strings.TrimSpace(topic))
	if category != "" && strings.EqualFold(r.Category, category) {
		return true
	}
	if topic == "" {
		return false
	}
	if strings.EqualFold(r.Category, topic) {
		return true
	}
	for _, t := range r.Topics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}

// DefaultReferences returns the built-in Age of Origins analysis.
func DefaultReferences() []Reference {
	const aoo = "Age of Origins"
	return []Reference{
		{
			SourceGame:      aoo,
			Category:        "social",
			Topics:          []string{"guilds", "guild", "clans", "alliance", "chat", "friends"},
			Description:     "Alliance/Guild System with territory control",
			Pros:            []string{"Strong social engagement", "Cooperative gameplay", "Long-term retention"},
			Cons:            []string{"Can create power imbalances", "VIP systems give unfair advantages"},
			Adaptable:       true,
			AdaptationNotes: "Implement guild system without pay-to-win territory bonuses. Focus on cosmetic guild customization.",
		},
		{
			SourceGame:      aoo,
			Category:        "customization",
			Topics:          []string{"cosmetics", "skins", "outfits", "armor", "emotes"},
			Description:     "Commander/Hero customization and skins",
			Pros:            []string{"High player attachment", "Good monetization potential", "Visual differentiation"},
			Cons:            []string{"Often tied to stat bonuses"},
			Adaptable:       true,
			AdaptationNotes: "Offer cosmetic-only commander skins. Any stat-affecting commanders should be earnable by all.",
		},
		{
			SourceGame:      aoo,
			Category:        "events",
			Topics:          []string{"seasonal", "season", "battle_pass", "tournaments"},
			Description:     "Regular seasonal events with exclusive rewards",
			Pros:            []string{"Keeps game fresh", "Engagement spikes", "Community participation"},
			Cons:            []string{"FOMO tactics in limited exclusives", "Event passes can be expensive"},
			Adaptable:       true,
			AdaptationNotes: "Run events with cosmetic rewards. Bring back seasonal items in future. No FOMO pressure.",
		},
		{
			SourceGame:      aoo,
			Category:        "progression",
			Topics:          []string{"xp", "grind", "level", "unlocks"},
			Description:     "Multiple progression systems (base, heroes, tech)",
			Pros:            []string{"Deep gameplay systems", "Long-term goals", "Varied gameplay"},
			Cons:            []string{"Can be pay-to-progress faster", "Overwhelming complexity"},
			Adaptable:       true,
			AdaptationNotes: "Multiple progression paths but equal time investment for all players. No paid speedups.",
		},
		{
			SourceGame:      aoo,
			Category:        "monetization",
			Topics:          []string{"vip", "subscription", "shop"},
			Description:     "VIP system with subscription benefits",
			Pros:            []string{"Predictable revenue", "Player commitment"},
			Cons:            []string{"Creates class divide", "Often includes gameplay advantages"},
			Adaptable:       false,
			AdaptationNotes: "Avoid VIP systems entirely. Use battle pass with purely cosmetic rewards instead.",
		},
		{
			SourceGame:      aoo,
			Category:        "content",
			Topics:          []string{"maps", "modes", "zones", "updates"},
			Description:     "Regular content updates with new zones/modes",
			Pros:            []string{"Keeps game fresh", "New challenges", "Returning players"},
			Cons:            []string{"New content can invalidate old progression"},
			Adaptable:       true,
			AdaptationNotes: "Regular free content updates. New content should complement, not replace existing progression.",
		},
	}
}

// LoadReferences reads a YAML list of references from path.
func LoadReferences(path string) ([]Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}
	return ParseReferences(data)
}

// ParseReferences decodes a YAML list of references.
// Every entry needs a source_game and a category.
func ParseReferences(data []byte) ([]Reference, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var refs []Reference
	if err := dec.Decode(&refs); err != nil {
		return nil, fmt.Errorf("parse references: %w", err)
	}
	for i, r := range refs {
		if strings.TrimSpace(r.SourceGame) == "" {
			return nil, fmt.Errorf("reference %d: source_game is required", i)
		}
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("reference %d: category is required", i)
		}
	}
	return refs, nil
}
