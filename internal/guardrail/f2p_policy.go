package guardrail

// F2PPolicy is the player-facing monetization policy, in Markdown.
const F2PPolicy = `# Thirsty's Game Studio F2P Policy

We believe games should be fun for everyone, regardless of how much they spend.
Our monetization philosophy is built on these core principles:

## What We DO Offer

### Cosmetic Items
- Character skins and outfits
- Weapon skins and visual effects
- Emotes and animations
- Profile customization (banners, borders, titles)
- Visual-only pets and companions

### Quality of Life Features
- Additional cosmetic loadout slots
- Extended profile customization options
- Social features and emotes

### Battle Pass (Seasonal)
- Purely cosmetic rewards
- All gameplay-relevant content available for free
- Reasonable progression achievable through normal play

## What We NEVER Do

### No Pay-to-Win
- No stat boosts or gameplay advantages for purchase
- No exclusive weapons or abilities behind paywalls
- No faster progression through purchases

### No Predatory Mechanics
- No loot boxes with random valuable items
- No hidden odds or manipulative pricing
- No artificial time-gates that can be skipped with money

### No FOMO Tactics
- No countdown timers on purchase decisions
- Seasonal items return in future seasons
- No pressure sales or manipulation

## Our Commitment

Every player, free or paying, has the same gameplay experience.
Paying supports development and gets you cool cosmetics, nothing more.
`
