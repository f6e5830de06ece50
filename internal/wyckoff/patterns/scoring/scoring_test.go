package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns/scoring"
)

func TestStockScorer_ExcellentSpringScenario(t *testing.T) {
	// spec.md 8, scenario 1: 40 + 35 + 25 + 20 + 10 + 10 = 140 -> capped 100.
	scorer := scoring.NewStockScorer()
	result := scorer.CalculateSpringConfidence(scoring.SpringInputs{
		VolumeRatio:        0.22,
		PenetrationPct:     0.015,
		RecoveryBars:       1,
		HasTest:            true,
		CreekStrengthScore: 85,
		PreviousTestVolumes: []float64{700_000, 500_000},
	})
	require.Equal(t, 100, result.TotalScore)
	require.Equal(t, "EXCELLENT", result.QualityTier)
	require.True(t, result.MeetsThreshold)
}

func TestStockScorer_MaxConfidenceBound(t *testing.T) {
	scorer := scoring.NewStockScorer()
	require.Equal(t, 100, scorer.MaxConfidence())
	require.Equal(t, wyckoff.AssetClassStock, scorer.AssetClass())
}

func TestForexScorer_MaxConfidenceBound(t *testing.T) {
	scorer := scoring.NewForexScorer()
	result := scorer.CalculateSpringConfidence(scoring.SpringInputs{
		VolumeRatio:        0.1,
		PenetrationPct:     0.01,
		RecoveryBars:       1,
		HasTest:            true,
		CreekStrengthScore: 90,
	})
	require.LessOrEqual(t, result.TotalScore, 85)
	require.Equal(t, 85, scorer.MaxConfidence())
}

func TestFactory_SelectsByAssetClass(t *testing.T) {
	f := scoring.NewFactory()
	require.IsType(t, &scoring.StockScorer{}, f.Get(wyckoff.AssetClassStock))
	require.IsType(t, &scoring.ForexScorer{}, f.Get(wyckoff.AssetClassForex))
}

func TestVolumeTrendBonus_DisabledForForex(t *testing.T) {
	scorer := scoring.NewForexScorer()
	declining := scorer.CalculateSpringConfidence(scoring.SpringInputs{
		VolumeRatio: 0.2, PenetrationPct: 0.015, RecoveryBars: 1, HasTest: true,
		CreekStrengthScore: 85, PreviousTestVolumes: []float64{700_000, 400_000},
	})
	_, hasTrendBonus := declining.Components["volume_trend_bonus"]
	require.False(t, hasTrendBonus)
}
