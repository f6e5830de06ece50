package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

type fakeExecutor struct {
	block chan struct{}
}

func (f *fakeExecutor) RunFull(ctx context.Context, runID string, cfg supervisor.FullConfig, sink supervisor.ProgressSink) (interface{}, error) {
	if f.block != nil {
		<-f.block
	}
	return "ok", nil
}

func (f *fakeExecutor) RunWalkForward(ctx context.Context, runID string, cfg supervisor.WalkForwardConfig, sink supervisor.ProgressSink) (supervisor.WalkForwardResult, error) {
	if f.block != nil {
		<-f.block
	}
	return supervisor.WalkForwardResult{}, nil
}

func (f *fakeExecutor) RunRegression(ctx context.Context, runID string, cfg supervisor.RegressionConfig, baseline *supervisor.RegressionBaseline, sink supervisor.ProgressSink) (supervisor.RegressionResult, error) {
	if f.block != nil {
		<-f.block
	}
	return supervisor.RegressionResult{Status: supervisor.RegressionPass}, nil
}

type nopSink struct{}

func (nopSink) Publish(string, supervisor.Progress) {}

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestEnqueuePreview_AlwaysDisabled(t *testing.T) {
	sup := supervisor.NewSupervisor(&fakeExecutor{}, nopSink{})
	_, err := sup.EnqueuePreview(context.Background(), supervisor.FullConfig{})
	require.ErrorIs(t, err, supervisor.ErrPreviewDisabled)
}

func TestEnqueueFull_RejectsInvalidWindow(t *testing.T) {
	sup := supervisor.NewSupervisor(&fakeExecutor{}, nopSink{})
	now := time.Now()
	_, err := sup.EnqueueFull(context.Background(), supervisor.FullConfig{
		Start: now, End: now.Add(-time.Hour), InitialCapital: d(1000),
	})
	require.Error(t, err)
}

func TestEnqueueFull_CompletesAndIsObservable(t *testing.T) {
	sup := supervisor.NewSupervisor(&fakeExecutor{}, nopSink{})
	now := time.Now()
	runID, err := sup.EnqueueFull(context.Background(), supervisor.FullConfig{
		Start: now, End: now.Add(time.Hour), InitialCapital: d(1000),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, ok := sup.GetStatus(supervisor.KindFull, runID)
		return ok && run.Status == supervisor.StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestEnqueueWalkForward_RejectsAtConcurrencyCap(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	sup := supervisor.NewSupervisor(&fakeExecutor{block: block}, nopSink{})

	for i := 0; i < 3; i++ {
		_, err := sup.EnqueueWalkForward(context.Background(), supervisor.WalkForwardConfig{})
		require.NoError(t, err)
	}
	_, err := sup.EnqueueWalkForward(context.Background(), supervisor.WalkForwardConfig{})
	require.Error(t, err)
}

func TestBuildRegressionResult_DegradesOnBothMetrics(t *testing.T) {
	baseline := &supervisor.RegressionBaseline{
		AggregateMetrics: map[string]decimal.Decimal{"win_rate": d(0.60), "avg_r_multiple": d(1.50)},
		IsCurrent:        true,
	}
	current := map[string]decimal.Decimal{"win_rate": d(0.54), "avg_r_multiple": d(1.20)}
	thresholds := map[string]decimal.Decimal{"win_rate": d(5), "avg_r_multiple": d(10)}

	result := supervisor.BuildRegressionResult(baseline, current, thresholds)
	require.True(t, result.RegressionDetected)
	require.Equal(t, supervisor.RegressionFail, result.Status)
}

func TestBuildRegressionResult_BaselineNotSet(t *testing.T) {
	result := supervisor.BuildRegressionResult(nil, nil, nil)
	require.Equal(t, supervisor.RegressionBaselineNotSet, result.Status)
}
