package ops

import (
	"strings"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/comparative"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
)

// CompetitorsInput contains parameters for the Competitors operation.
type CompetitorsInput struct {
	Category string // optional, restrict the report to one category
}

// Competitors builds the comparative report over the configured references.
func Competitors(cfg *config.Config, input CompetitorsInput) (*comparative.Report, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	refs, err := cfg.References()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		refs = comparative.ForCategory(refs, category)
	}
	report := comparative.NewReport(refs)
	return &report, nil
}
