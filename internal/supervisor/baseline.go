package supervisor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// baselineStore holds every established RegressionBaseline, enforcing
// that exactly one carries IsCurrent=true (spec.md 4.F).
type baselineStore struct {
	mu        sync.Mutex
	baselines map[string]*RegressionBaseline
}

func newBaselineStore() *baselineStore {
	return &baselineStore{baselines: make(map[string]*RegressionBaseline)}
}

// establish creates a new current baseline from a PASS regression
// result, atomically clearing IsCurrent on the previous one. Only PASS
// results are eligible (spec.md 4.F); callers must check Status first.
func (b *baselineStore) establish(testID, codebaseVersion string, aggregate map[string]decimal.Decimal, perSymbol map[string]map[string]decimal.Decimal, now time.Time) *RegressionBaseline {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.baselines {
		existing.IsCurrent = false
	}

	baseline := &RegressionBaseline{
		BaselineID:       uuid.NewString(),
		SourceTestID:     testID,
		CodebaseVersion:  codebaseVersion,
		AggregateMetrics: aggregate,
		PerSymbolMetrics: perSymbol,
		EstablishedAt:    now,
		IsCurrent:        true,
	}
	b.baselines[baseline.BaselineID] = baseline
	return baseline
}

// current returns the single baseline with IsCurrent=true, or nil if
// none has been established (spec.md 4.F's "not-found sentinel").
func (b *baselineStore) current() *RegressionBaseline {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, baseline := range b.baselines {
		if baseline.IsCurrent {
			return baseline
		}
	}
	return nil
}

// history returns every established baseline, most recent first.
func (b *baselineStore) history() []*RegressionBaseline {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*RegressionBaseline, 0, len(b.baselines))
	for _, baseline := range b.baselines {
		out = append(out, baseline)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EstablishedAt.After(out[j].EstablishedAt) })
	return out
}

// EstablishBaseline establishes a new current baseline from a
// completed REGRESSION run, provided its result status was PASS.
func (s *Supervisor) EstablishBaseline(testID, codebaseVersion string, aggregate map[string]decimal.Decimal, perSymbol map[string]map[string]decimal.Decimal, now time.Time) (*RegressionBaseline, error) {
	run, ok := s.GetStatus(KindRegression, testID)
	if !ok {
		return nil, errBaselineSourceNotFound
	}
	result, ok := run.Result.(RegressionResult)
	if !ok || result.Status != RegressionPass {
		return nil, errBaselineNotEligible
	}
	baseline := s.baselines.establish(testID, codebaseVersion, aggregate, perSymbol, now)
	s.commitBaseline(context.Background(), baseline)
	return baseline, nil
}

// GetCurrentBaseline returns the current baseline, or false if none has
// been established.
func (s *Supervisor) GetCurrentBaseline() (*RegressionBaseline, bool) {
	b := s.baselines.current()
	return b, b != nil
}

// ListBaselineHistory returns every established baseline, newest first.
func (s *Supervisor) ListBaselineHistory() []*RegressionBaseline {
	return s.baselines.history()
}
