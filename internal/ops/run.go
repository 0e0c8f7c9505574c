package ops

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/comparative"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/config"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/db"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/drafting"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/guardrail"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/logging"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/source"
)

// ReportFileName is the Markdown report written next to the result file.
const ReportFileName = "report.md"

// RunInput contains parameters for the Run operation.
type RunInput struct {
	Sources   []string // optional, overrides enabled_sources
	Limit     int      // optional, overrides limit_per_source
	Since     string   // optional, RFC3339 or duration
	OutputDir string   // optional, overrides output_dir
	NoWrite   bool     // skip writing result and report files
}

// RunOutput contains the result of the Run operation.
type RunOutput struct {
	run.Summary
	Stages       []pipeline.StageRecord `json:"stages"`
	SourceErrors []pipeline.SourceError `json:"source_errors"`
	ResultPath   string                 `json:"result_path,omitempty"`
	ReportPath   string                 `json:"report_path,omitempty"`
}

// Run executes one pipeline run, persists it and writes its artifacts.
// A run whose stages failed is still stored and reported; only setup and
// persistence problems are returned as errors.
func Run(ctx context.Context, database *sql.DB, cfg *config.Config, baseDir string, logger *zap.Logger, input RunInput) (*RunOutput, error) {
	logger = logging.OrNop(logger)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	orch, err := newOrchestrator(cfg, logger, input)
	if err != nil {
		return nil, err
	}

	result := orch.Run(ctx)
	if !result.Success {
		logger.Warn("pipeline run failed",
			zap.String("run_id", result.RunID),
			zap.String("error", result.ErrorMessage))
	}

	stored := run.FromResult(result)
	if err := db.InsertRun(ctx, database, stored); err != nil {
		return nil, err
	}

	out := &RunOutput{
		Summary:      stored.ToSummary(),
		Stages:       result.Stages,
		SourceErrors: result.SourceErrors,
	}

	if !input.NoWrite {
		dir := input.OutputDir
		if dir == "" {
			dir = cfg.ResolveOutputDir(baseDir)
		}
		if out.ResultPath, err = result.WriteFile(dir); err != nil {
			return nil, errors.NewInternal(err)
		}
		out.ReportPath = filepath.Join(dir, ReportFileName)
		if err := os.WriteFile(out.ReportPath, []byte(result.Report()), 0o600); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("write report: %w", err))
		}
	}

	logger.Info("pipeline run stored",
		zap.String("run_id", result.RunID),
		zap.Bool("success", result.Success),
		zap.Int("insights", result.TotalInsights),
		zap.Int("proposals", result.TotalProposals),
		zap.Int("compliant", result.CompliantProposals))

	return out, nil
}

// newOrchestrator wires the pipeline stages from configuration.
func newOrchestrator(cfg *config.Config, logger *zap.Logger, input RunInput) (*pipeline.Orchestrator, error) {
	sources, err := cfg.Sources()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if len(input.Sources) > 0 {
		sources = make([]insight.Source, 0, len(input.Sources))
		for _, name := range input.Sources {
			src, err := insight.ParseSource(name)
			if err != nil {
				return nil, errors.NewInvalidRequest(err.Error())
			}
			sources = append(sources, src)
		}
	}

	paths, err := cfg.SourcePaths()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	fetchers := source.Build(sources, paths)
	for _, f := range fetchers {
		if _, ok := f.(source.Placeholder); ok && !source.Configured(f.Name()) {
			logger.Debug("serving placeholder records",
				zap.String("source", string(f.Name())),
				zap.Strings("missing_env", source.CredentialEnv(f.Name())))
		}
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("guardrail policy: %v", err))
	}
	refs, err := cfg.References()
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("competitor references: %v", err))
	}
	enricher := comparative.NewEnricher(refs)
	if cfg.MaxComparativeNotes > 0 {
		enricher.MaxNotes = cfg.MaxComparativeNotes
	}

	limit := cfg.LimitPerSource
	if input.Limit > 0 {
		limit = input.Limit
	}
	since, err := ParseSince(input.Since, time.Now())
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Fetchers:   fetchers,
		Limit:      limit,
		Since:      since,
		Normalizer: insight.Normalizer{Classifier: insight.LexiconClassifier{}},
		Generator:  proposal.Generator{Cosmetic: proposal.TopicClassifier{Topics: proposal.DefaultCosmeticTopics}},
		Validator:  guardrail.NewEvaluator(policy),
		Enricher:   enricher,
		Drafter:    drafting.Drafter{},
		Logger:     logger,
	}), nil
}
