package supervisor

import (
	"context"

	"github.com/rs/zerolog/log"
)

// commitResult implements spec.md 4.F.iv: "on success commits the
// result through the repository collaborator". Only WALK_FORWARD and
// REGRESSION results have a concrete shape known to this package; FULL
// results are opaque (interface{}, owned by the Executor) and are left
// to the caller to persist via its own repository handle. Best-effort:
// a persistence failure is logged, not surfaced, since the run itself
// already succeeded and is visible via GetStatus.
func (s *Supervisor) commitResult(ctx context.Context, kind RunKind, runID string, result interface{}) {
	if s.repo == nil {
		return
	}

	switch kind {
	case KindWalkForward:
		wf, ok := result.(WalkForwardResult)
		if !ok || s.repo.WalkForwardResults == nil {
			return
		}
		degraded := 0
		for _, w := range wf.Windows {
			if w.Degraded {
				degraded++
			}
		}
		row := persistenceWalkForwardRow(runID, len(wf.Windows), wf.StabilityScore, degraded)
		if err := s.repo.WalkForwardResults.SaveResult(ctx, row); err != nil {
			log.Warn().Str("run_id", runID).Err(err).Msg("failed to commit walk-forward result")
		}
	case KindRegression:
		rr, ok := result.(RegressionResult)
		if !ok || s.repo.RegressionResults == nil {
			return
		}
		var degradedNames []string
		for _, m := range rr.Metrics {
			if m.Degraded {
				degradedNames = append(degradedNames, m.Name)
			}
		}
		baselineID := ""
		if b := s.baselines.current(); b != nil {
			baselineID = b.BaselineID
		}
		row := persistenceRegressionRow(runID, baselineID, string(rr.Status), rr.RegressionDetected, degradedNames)
		if err := s.repo.RegressionResults.SaveResult(ctx, row); err != nil {
			log.Warn().Str("run_id", runID).Err(err).Msg("failed to commit regression result")
		}
	}
}

// commitBaseline persists a newly-established baseline and flips
// is_current atomically through the repository, mirroring the
// in-memory baselineStore's invariant (spec.md 8).
func (s *Supervisor) commitBaseline(ctx context.Context, b *RegressionBaseline) {
	if s.repo == nil || s.repo.Baselines == nil || b == nil {
		return
	}
	row := persistenceBaselineRow(b)
	if err := s.repo.Baselines.Insert(ctx, row); err != nil {
		log.Warn().Str("baseline_id", b.BaselineID).Err(err).Msg("failed to persist baseline")
		return
	}
	if err := s.repo.Baselines.SetCurrent(ctx, b.BaselineID); err != nil {
		log.Warn().Str("baseline_id", b.BaselineID).Err(err).Msg("failed to set current baseline")
	}
}
