package pipeline

import "fmt"

// Stage is one step of the fixed pipeline sequence.
type Stage int

const (
	StageNormalize Stage = iota
	StageGenerate
	StageValidate
	StageEnrich
	StageFinalize

	numStages
)

// Stages lists every stage in execution order.
var Stages = [numStages]Stage{StageNormalize, StageGenerate, StageValidate, StageEnrich, StageFinalize}

var stageNames = [numStages]string{"normalize", "generate", "validate", "enrich", "finalize"}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	if s < 0 || s >= numStages {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Phase is the orchestrator's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFailed
	PhaseCompleted
)

var phaseNames = [...]string{"idle", "running", "failed", "completed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool { return p == PhaseFailed || p == PhaseCompleted }

// State is a snapshot of the orchestrator. Stage is the running stage while
// Running, and the stage that failed while Failed.
type State struct {
	Phase Phase `json:"phase"`
	Stage Stage `json:"stage"`
}

func (s State) String() string {
	switch s.Phase {
	case PhaseRunning, PhaseFailed:
		return fmt.Sprintf("%s(%s)", s.Phase, s.Stage)
	default:
		return s.Phase.String()
	}
}

// StageStatus tracks one stage within a run.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
	StatusFailed     StageStatus = "failed"
	StatusSkipped    StageStatus = "skipped"
)

// StageRecord is the outcome of one stage.
type StageRecord struct {
	Stage           Stage       `json:"stage"`
	Status          StageStatus `json:"status"`
	DurationSeconds float64     `json:"duration_seconds"`
	Error           string      `json:"error,omitempty"`
}

// StageError is a fatal error raised by a stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
