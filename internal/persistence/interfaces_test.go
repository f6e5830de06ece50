package persistence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange_Validation(t *testing.T) {
	tests := []struct {
		name  string
		tr    TimeRange
		valid bool
	}{
		{
			name: "valid_range",
			tr: TimeRange{
				From: time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 9, 7, 11, 0, 0, 0, time.UTC),
			},
			valid: true,
		},
		{
			name: "same_time",
			tr: TimeRange{
				From: time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
			},
			valid: true,
		},
		{
			name: "zero_times",
			tr: TimeRange{
				From: time.Time{},
				To:   time.Time{},
			},
			valid: true, // Edge case - both zero is considered valid
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.tr)
			if tt.valid {
				assert.True(t, tt.tr.To.After(tt.tr.From) || tt.tr.To.Equal(tt.tr.From))
			}
		})
	}
}

func TestTradingRangeRow_Invariants(t *testing.T) {
	row := TradingRangeRow{
		ID:           "tr-1",
		Symbol:       "AAPL",
		Timeframe:    "1d",
		Support:      decimal.NewFromFloat(95.0),
		Resistance:   decimal.NewFromFloat(105.0),
		QualityScore: decimal.NewFromFloat(82.0),
		Status:       "ACTIVE",
		Phase:        "C",
		DurationBars: 40,
	}

	t.Run("support_below_resistance", func(t *testing.T) {
		assert.True(t, row.Support.LessThan(row.Resistance))
	})

	t.Run("quality_in_range", func(t *testing.T) {
		assert.True(t, row.QualityScore.GreaterThanOrEqual(decimal.NewFromFloat(60)))
		assert.True(t, row.QualityScore.LessThanOrEqual(decimal.NewFromFloat(100)))
	})

	t.Run("duration_in_range", func(t *testing.T) {
		assert.GreaterOrEqual(t, row.DurationBars, 15)
		assert.LessOrEqual(t, row.DurationBars, 100)
	})
}

func TestPatternRow_Kinds(t *testing.T) {
	validKinds := []string{"SPRING", "AR", "ST", "SOS", "LPS"}
	row := PatternRow{Kind: "SPRING", Confidence: decimal.NewFromFloat(88), IsTradeable: true}

	t.Run("known_kind", func(t *testing.T) {
		assert.Contains(t, validKinds, row.Kind)
	})

	t.Run("confidence_bound_below_100", func(t *testing.T) {
		assert.True(t, row.Confidence.LessThanOrEqual(decimal.NewFromFloat(100)))
	})
}

func TestCampaignRow_RiskFields(t *testing.T) {
	row := CampaignRow{
		ID:              "camp-1",
		State:           "ACTIVE",
		SupportLevel:    decimal.NewFromFloat(98.0),
		ResistanceLevel: decimal.NewFromFloat(110.0),
		RiskPerShare:    decimal.NewFromFloat(3.0),
		PositionSize:    decimal.NewFromFloat(100),
		DollarRisk:      decimal.NewFromFloat(300),
	}

	t.Run("dollar_risk_matches_sizing", func(t *testing.T) {
		expected := row.PositionSize.Mul(row.RiskPerShare)
		assert.True(t, expected.Equal(row.DollarRisk))
	})
}

func TestRegressionBaselineRow_CurrentFlag(t *testing.T) {
	baseline := RegressionBaselineRow{
		BaselineID:   "base-1",
		SourceTestID: "test-1",
		WinRate:      decimal.NewFromFloat(0.6),
		IsCurrent:    true,
		EstablishedAt: time.Now(),
	}

	require.True(t, baseline.IsCurrent)
	assert.True(t, baseline.WinRate.GreaterThan(decimal.Zero))
}

func TestHealthCheck_Structure(t *testing.T) {
	healthCheck := HealthCheck{
		Healthy: true,
		Errors:  []string{},
		ConnectionPool: map[string]int{
			"active": 5,
			"idle":   10,
			"max":    20,
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: 45,
	}

	t.Run("valid_health_check", func(t *testing.T) {
		assert.True(t, healthCheck.Healthy)
		assert.Empty(t, healthCheck.Errors)
		assert.Contains(t, healthCheck.ConnectionPool, "active")
		assert.Contains(t, healthCheck.ConnectionPool, "idle")
		assert.Contains(t, healthCheck.ConnectionPool, "max")
		assert.Greater(t, healthCheck.ResponseTimeMS, int64(0))
	})
}
