package ops

import (
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/guardrail"
)

// PolicyOutput describes the guardrails in force.
type PolicyOutput struct {
	Document   string           `json:"document"`
	Guardrails []string         `json:"guardrails"`
	Source     string           `json:"source"` // policy file path, or "built-in"
	Policy     guardrail.Policy `json:"policy"`
}

// Policy returns the F2P policy document and the active guardrail terms.
func Policy(cfg *config.Config) (*PolicyOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	names := make([]string, 0, len(guardrail.All))
	for _, g := range guardrail.All {
		names = append(names, g.String())
	}

	src := "built-in"
	if cfg.PolicyPath != "" {
		src = cfg.PolicyPath
	}

	return &PolicyOutput{
		Document:   guardrail.F2PPolicy,
		Guardrails: names,
		Source:     src,
		Policy:     policy,
	}, nil
}
