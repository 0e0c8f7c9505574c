// Package pipeline runs the community-feedback-to-proposal stages as an
// explicit state machine: normalize, generate, validate, enrich, finalize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/drafting"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/guardrail"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/source"
)

// ErrAlreadyRun is reported when Run is called twice on one Orchestrator.
var ErrAlreadyRun = errors.New("orchestrator already ran")

// Normalizer converts one raw record into an insight.
type Normalizer interface {
	Normalize(src insight.Source, raw insight.RawRecord) (insight.CommunityInsight, error)
}

// Generator derives proposals from insights.
type Generator interface {
	Generate(ctx context.Context, insights []insight.CommunityInsight) ([]*proposal.FeatureProposal, error)
}

// Validator evaluates guardrails on every proposal in place.
type Validator interface {
	EvaluateAll(ctx context.Context, proposals []*proposal.FeatureProposal) ([][]guardrail.Result, error)
}

// Enricher appends comparative notes to proposals.
type Enricher interface {
	EnrichAll(proposals []*proposal.FeatureProposal) int
}

// Drafter turns evaluated proposals into issue drafts.
type Drafter interface {
	DraftAll(proposals []*proposal.FeatureProposal) []drafting.Issue
}

// Config wires an Orchestrator. Fetchers, Normalizer, Generator, Validator
// and Enricher are required; Drafter, Logger and Now are optional.
type Config struct {
	RunID      string
	Fetchers   []source.Fetcher
	Limit      int
	Since      time.Time
	Normalizer Normalizer
	Generator  Generator
	Validator  Validator
	Enricher   Enricher
	Drafter    Drafter
	Logger     *zap.Logger
	Now        func() time.Time
}

// SourceError records a source that contributed no records.
type SourceError struct {
	Source insight.Source `json:"source"`
	Error  string         `json:"error"`
}

// Orchestrator executes one pipeline run. It owns every proposal it creates
// for the duration of the run; create one Orchestrator per run.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	records [numStages]StageRecord

	insights     []insight.CommunityInsight
	proposals    []*proposal.FeatureProposal
	drafts       []drafting.Issue
	sourceErrors []SourceError
	skipped      int
}

// New returns an idle Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.RunID == "" {
		cfg.RunID = ulid.Make().String()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		cfg:    cfg,
		logger: logger.With(zap.String("run_id", cfg.RunID)),
	}
	for i, s := range Stages {
		o.records[i] = StageRecord{Stage: s, Status: StatusPending}
	}
	return o
}

// RunID returns the identifier of this run.
func (o *Orchestrator) RunID() string { return o.cfg.RunID }

// State returns the current state. Safe to call while Run is in progress.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// StageRecords returns a copy of the per-stage records.
func (o *Orchestrator) StageRecords() []StageRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]StageRecord, len(o.records))
	copy(out, o.records[:])
	return out
}

// Run executes every stage in order and always returns a Result. A stage
// runs only after its predecessor completed; the first fatal error moves
// the orchestrator to Failed and the remaining stages are skipped.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	o.mu.Lock()
	if o.state.Phase != PhaseIdle {
		o.mu.Unlock()
		return &Result{
			RunID:        o.cfg.RunID,
			Timestamp:    o.cfg.Now().UTC(),
			ErrorMessage: ErrAlreadyRun.Error(),
			Insights:     []insight.CommunityInsight{},
			Proposals:    []*proposal.FeatureProposal{},
		}
	}
	o.state = State{Phase: PhaseRunning, Stage: StageNormalize}
	o.mu.Unlock()

	start := time.Now()
	o.logger.Info("pipeline started", zap.Int("sources", len(o.cfg.Fetchers)))

	var fatal error
	for _, stage := range Stages {
		if err := o.runStage(ctx, stage); err != nil {
			fatal = err
			break
		}
	}

	o.mu.Lock()
	if fatal == nil {
		o.state = State{Phase: PhaseCompleted, Stage: StageFinalize}
	}
	o.mu.Unlock()

	elapsed := time.Since(start)
	result := o.result(fatal, elapsed)
	if fatal != nil {
		o.logger.Error("pipeline failed", zap.Error(fatal), zap.Duration("elapsed", elapsed))
	} else {
		o.logger.Info("pipeline completed",
			zap.Int("insights", result.TotalInsights),
			zap.Int("proposals", result.TotalProposals),
			zap.Int("compliant", result.CompliantProposals),
			zap.Duration("elapsed", elapsed),
		)
	}
	return result
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage) (err error) {
	o.mu.Lock()
	o.state = State{Phase: PhaseRunning, Stage: stage}
	o.records[stage].Status = StatusInProgress
	o.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &StageError{Stage: stage, Err: err}
		}
		o.finishStage(stage, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	switch stage {
	case StageNormalize:
		return o.normalize(ctx)
	case StageGenerate:
		return o.generate(ctx)
	case StageValidate:
		return o.validate(ctx)
	case StageEnrich:
		return o.enrich()
	case StageFinalize:
		return o.finalize()
	default:
		return fmt.Errorf("no handler for stage %d", int(stage))
	}
}

func (o *Orchestrator) finishStage(stage Stage, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec := &o.records[stage]
	rec.DurationSeconds = d.Seconds()
	if err == nil {
		rec.Status = StatusCompleted
		o.logger.Debug("stage completed", zap.Stringer("stage", stage), zap.Duration("elapsed", d))
		return
	}

	rec.Status = StatusFailed
	rec.Error = err.Error()
	for s := stage + 1; s < numStages; s++ {
		o.records[s].Status = StatusSkipped
	}
	o.state = State{Phase: PhaseFailed, Stage: stage}
}

// normalize fetches every source concurrently and normalizes their records
// in source order. Source and record failures are absorbed.
func (o *Orchestrator) normalize(ctx context.Context) error {
	if o.cfg.Normalizer == nil {
		return errors.New("no normalizer configured")
	}

	batches := make([][]insight.RawRecord, len(o.cfg.Fetchers))
	fetchErrs := make([]error, len(o.cfg.Fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range o.cfg.Fetchers {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					fetchErrs[i] = fmt.Errorf("%s: panic: %v", f.Name(), r)
				}
			}()
			records, err := f.Fetch(gctx, o.cfg.Limit, o.cfg.Since)
			if err != nil {
				fetchErrs[i] = err
				return nil
			}
			batches[i] = records
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	insights := []insight.CommunityInsight{}
	// IDs are only unique within a source.
	type recordKey struct {
		src insight.Source
		id  string
	}
	seen := make(map[recordKey]bool)
	for i, f := range o.cfg.Fetchers {
		src := f.Name()
		if err := fetchErrs[i]; err != nil {
			o.sourceErrors = append(o.sourceErrors, SourceError{Source: src, Error: err.Error()})
			o.logger.Warn("source unavailable", zap.String("source", string(src)), zap.Error(err))
			continue
		}
		for _, raw := range batches[i] {
			in, err := o.cfg.Normalizer.Normalize(src, raw)
			if err != nil {
				o.skipped++
				o.logger.Warn("record skipped", zap.String("source", string(src)), zap.Error(err))
				continue
			}
			key := recordKey{src: src, id: in.ID}
			if seen[key] {
				o.skipped++
				o.logger.Debug("duplicate record skipped", zap.String("source", string(src)), zap.String("id", in.ID))
				continue
			}
			seen[key] = true
			insights = append(insights, in)
		}
		o.logger.Debug("source fetched", zap.String("source", string(src)), zap.Int("records", len(batches[i])))
	}

	o.insights = insights
	return nil
}

func (o *Orchestrator) generate(ctx context.Context) error {
	if o.cfg.Generator == nil {
		return errors.New("no generator configured")
	}
	proposals, err := o.cfg.Generator.Generate(ctx, o.insights)
	if err != nil {
		return err
	}
	if proposals == nil {
		proposals = []*proposal.FeatureProposal{}
	}
	o.proposals = proposals
	return nil
}

// validate and enrich work on copies so a failed stage leaves the proposals
// of the last completed stage untouched.
func (o *Orchestrator) validate(ctx context.Context) error {
	if o.cfg.Validator == nil {
		return errors.New("no validator configured")
	}
	working := cloneAll(o.proposals)
	if _, err := o.cfg.Validator.EvaluateAll(ctx, working); err != nil {
		return err
	}
	o.proposals = working
	return nil
}

func (o *Orchestrator) enrich() error {
	if o.cfg.Enricher == nil {
		return errors.New("no enricher configured")
	}
	working := cloneAll(o.proposals)
	added := o.cfg.Enricher.EnrichAll(working)
	o.proposals = working
	o.logger.Debug("proposals enriched", zap.Int("notes", added))
	return nil
}

func cloneAll(proposals []*proposal.FeatureProposal) []*proposal.FeatureProposal {
	out := make([]*proposal.FeatureProposal, len(proposals))
	for i, p := range proposals {
		out[i] = p.Clone()
	}
	return out
}

func (o *Orchestrator) finalize() error {
	if o.cfg.Drafter != nil {
		o.drafts = o.cfg.Drafter.DraftAll(o.proposals)
	}
	return nil
}
