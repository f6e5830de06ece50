package supervisor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jthadison/wyckvol/internal/persistence"
)

// admissionCaps are the per-run-kind concurrency limits of spec.md 4.F.
// PREVIEW is capped at 0 by current policy even though its nominal cap
// is 5; FULL has no built-in cap (guarded only by registry capacity).
var admissionCaps = map[RunKind]int{
	KindPreview:     0,
	KindWalkForward: 3,
	KindRegression:  3,
}

// ProgressSink publishes per-run progress updates (spec.md 6). A
// WebSocket broadcaster and a REST-polling snapshot store are the two
// production implementations; sequence numbers are monotone per run.
type ProgressSink interface {
	Publish(runID string, progress Progress)
}

// Executor runs one unit of background work for a given run kind. The
// supervisor does not know how to run a backtest; it owns only
// admission, registry bookkeeping, and the two-session background-task
// protocol around whatever Executor does.
type Executor interface {
	RunFull(ctx context.Context, runID string, cfg FullConfig, sink ProgressSink) (interface{}, error)
	RunWalkForward(ctx context.Context, runID string, cfg WalkForwardConfig, sink ProgressSink) (WalkForwardResult, error)
	RunRegression(ctx context.Context, runID string, cfg RegressionConfig, baseline *RegressionBaseline, sink ProgressSink) (RegressionResult, error)
}

// Supervisor is the Analysis Supervisor (component F): admission
// control, four run registries, and baseline management.
type Supervisor struct {
	registries map[RunKind]*registry
	executor   Executor
	sink       ProgressSink
	baselines  *baselineStore
	repo       *persistence.Repository
}

// NewSupervisor builds a Supervisor backed by the given Executor and
// ProgressSink.
func NewSupervisor(executor Executor, sink ProgressSink) *Supervisor {
	s := &Supervisor{
		registries: map[RunKind]*registry{
			KindPreview:     newRegistry(),
			KindFull:        newRegistry(),
			KindWalkForward: newRegistry(),
			KindRegression:  newRegistry(),
		},
		executor:  executor,
		sink:      sink,
		baselines: newBaselineStore(),
	}
	return s
}

// WithRepository attaches the background-commit collaborator (spec.md
// 6/9's two-session protocol: the supervisor commits through its own
// session, independent of any request-scoped session). Optional — a
// nil repo (the default) means results live only in the in-memory
// registry.
func (s *Supervisor) WithRepository(repo *persistence.Repository) *Supervisor {
	s.repo = repo
	return s
}

func (s *Supervisor) admit(kind RunKind) error {
	maxConcurrent, hasCap := admissionCaps[kind]
	if !hasCap {
		return nil
	}
	if s.registries[kind].runningCount() >= maxConcurrent {
		return admissionError(kind)
	}
	return nil
}

// EnqueuePreview is disabled by policy: it always returns
// ErrPreviewDisabled (spec.md 4.F's "501 sentinel" at the HTTP layer).
func (s *Supervisor) EnqueuePreview(context.Context, FullConfig) (string, error) {
	return "", ErrPreviewDisabled
}

// EnqueueFull validates cfg, admits against the FULL registry's
// capacity-only guard, and spawns a background task.
func (s *Supervisor) EnqueueFull(ctx context.Context, cfg FullConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	runID := s.start(ctx, KindFull, func(taskCtx context.Context, runID string) (interface{}, error) {
		return s.executor.RunFull(taskCtx, runID, cfg, s.sink)
	})
	return runID, nil
}

// EnqueueWalkForward admits against the WALK_FORWARD cap (3 concurrent)
// and spawns a background task.
func (s *Supervisor) EnqueueWalkForward(ctx context.Context, cfg WalkForwardConfig) (string, error) {
	if err := s.admit(KindWalkForward); err != nil {
		return "", err
	}
	runID := s.start(ctx, KindWalkForward, func(taskCtx context.Context, runID string) (interface{}, error) {
		return s.executor.RunWalkForward(taskCtx, runID, cfg, s.sink)
	})
	return runID, nil
}

// EnqueueRegression admits against the REGRESSION cap (3 concurrent)
// and spawns a background task.
func (s *Supervisor) EnqueueRegression(ctx context.Context, cfg RegressionConfig) (string, error) {
	if err := s.admit(KindRegression); err != nil {
		return "", err
	}
	baseline := s.baselines.current()
	runID := s.start(ctx, KindRegression, func(taskCtx context.Context, runID string) (interface{}, error) {
		return s.executor.RunRegression(taskCtx, runID, cfg, baseline, s.sink)
	})
	return runID, nil
}

// start implements the background-task contract of spec.md 4.F: insert
// a RUNNING record (after cleanup_stale_entries), spawn an independent
// goroutine with its own context, and update the record to exactly one
// terminal state on completion.
func (s *Supervisor) start(ctx context.Context, kind RunKind, work func(context.Context, string) (interface{}, error)) string {
	runID := uuid.NewString()
	now := time.Now()
	run := &BacktestRun{RunID: runID, Kind: kind, Status: StatusRunning, CreatedAt: now}
	s.registries[kind].insert(run, now)

	taskCtx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("run_id", runID).Interface("panic", r).Msg("background task panicked")
				s.registries[kind].setTerminal(runID, StatusFailed, "internal error", nil)
			}
		}()

		result, err := work(taskCtx, runID)
		switch {
		case taskCtx.Err() == context.Canceled:
			s.registries[kind].setTerminal(runID, StatusCancelled, "", nil)
		case err != nil:
			log.Warn().Str("run_id", runID).Err(err).Msg("background task failed")
			s.registries[kind].setTerminal(runID, StatusFailed, err.Error(), nil)
		default:
			s.registries[kind].setTerminal(runID, StatusCompleted, "", result)
			s.commitResult(taskCtx, kind, runID, result)
		}
	}()
	_ = ctx // the request-scoped context is not propagated to the task; the task owns its own lifetime.

	return runID
}

// GetStatus returns the run record for runID within the given kind, or
// false if unknown.
func (s *Supervisor) GetStatus(kind RunKind, runID string) (*BacktestRun, bool) {
	reg, ok := s.registries[kind]
	if !ok {
		return nil, false
	}
	return reg.get(runID)
}

// ListResults returns up to limit records of the given kind, starting
// at offset, ordered by creation time.
func (s *Supervisor) ListResults(kind RunKind, limit, offset int) []*BacktestRun {
	reg, ok := s.registries[kind]
	if !ok {
		return nil
	}
	return reg.list(limit, offset)
}

// RunningCounts reports the number of RUNNING records per kind, for
// health/metrics reporting.
func (s *Supervisor) RunningCounts() map[RunKind]int {
	counts := make(map[RunKind]int, len(s.registries))
	for kind, reg := range s.registries {
		counts[kind] = reg.runningCount()
	}
	return counts
}
