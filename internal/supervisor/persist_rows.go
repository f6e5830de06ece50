package supervisor

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/persistence"
)

func persistenceWalkForwardRow(runID string, windowCount int, stability decimal.Decimal, degraded int) persistence.WalkForwardResultRow {
	return persistence.WalkForwardResultRow{
		RunID:           runID,
		WindowCount:     windowCount,
		StabilityScore:  stability,
		DegradedWindows: degraded,
		CompletedAt:     time.Now(),
	}
}

func persistenceRegressionRow(runID, baselineID, status string, detected bool, degraded []string) persistence.RegressionResultRow {
	return persistence.RegressionResultRow{
		RunID:              runID,
		BaselineID:         baselineID,
		Status:             status,
		RegressionDetected: detected,
		DegradedMetrics:    degraded,
		CompletedAt:        time.Now(),
	}
}

func persistenceBaselineRow(b *RegressionBaseline) persistence.RegressionBaselineRow {
	perSymbolJSON, _ := json.Marshal(b.PerSymbolMetrics)
	row := persistence.RegressionBaselineRow{
		BaselineID:      b.BaselineID,
		SourceTestID:    b.SourceTestID,
		CodebaseVersion: b.CodebaseVersion,
		PerSymbolJSON:   perSymbolJSON,
		IsCurrent:       b.IsCurrent,
		EstablishedAt:   b.EstablishedAt,
	}
	if wr, ok := b.AggregateMetrics["win_rate"]; ok {
		row.WinRate = wr
	}
	if avgR, ok := b.AggregateMetrics["avg_r_multiple"]; ok {
		row.AvgRMultiple = avgR
	}
	return row
}
