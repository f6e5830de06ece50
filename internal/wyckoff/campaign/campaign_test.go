package campaign_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/campaign"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func bar(t time.Time, price float64) wyckoff.OHLCVBar {
	return wyckoff.OHLCVBar{
		Symbol: "ACME", Timeframe: wyckoff.Timeframe1d, Timestamp: t,
		Open: d(price), High: d(price + 1), Low: d(price - 1), Close: d(price),
		Volume: d(1_000_000),
	}
}

func newDetector() *campaign.Detector {
	store := campaign.NewStore()
	det := campaign.NewDetector(store, campaign.DailyDefaults())
	det.AccountEquity = d(100_000)
	det.RiskPctPerTrade = d(1.0)
	return det
}

func TestAddPattern_OpensFormingCampaign(t *testing.T) {
	det := newDetector()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	spring := patterns.Spring{
		BarValue: bar(now, 99), BarIndexValue: 20,
		PenetrationPct: d(0.015), VolumeRatio: d(0.5), RecoveryBars: 1,
		CreekReference: d(100), SpringLow: d(98.5), RecoveryPrice: d(100.5),
	}

	c := det.AddPattern(now, spring)
	require.NotNil(t, c)
	require.Equal(t, campaign.Forming, c.State)
	require.Len(t, c.Patterns, 1)
	require.True(t, det.Store.Invariant())
}

func TestAddPattern_TransitionsFormingToActiveOnSecondPattern(t *testing.T) {
	det := newDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	spring := patterns.Spring{
		BarValue: bar(base, 99), BarIndexValue: 20,
		PenetrationPct: d(0.015), VolumeRatio: d(0.5), RecoveryBars: 1,
		CreekReference: d(100), SpringLow: d(98.5), RecoveryPrice: d(100.5),
	}
	det.AddPattern(base, spring)

	arTime := base.Add(2 * time.Hour)
	ar := patterns.AutomaticRally{
		BarValue: bar(arTime, 105), BarIndexValue: 25,
		RallyPct: d(0.05), BarsAfterSC: 3, SCLow: d(98.5), ARHigh: d(105),
		VolumeProfile: "HIGH", QualityScore: d(0.6),
	}
	c := det.AddPattern(arTime, ar)

	require.Equal(t, campaign.Active, c.State)
	require.True(t, det.Store.Invariant())
	require.True(t, c.ResistanceLevel.Equal(d(105)))
	require.True(t, c.SupportLevel.Equal(d(98.5)))
}

func TestAddPattern_HighQualityARActivatesImmediately(t *testing.T) {
	det := newDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ar := patterns.AutomaticRally{
		BarValue: bar(base, 105), BarIndexValue: 10,
		RallyPct: d(0.05), BarsAfterSC: 2, SCLow: d(98.5), ARHigh: d(105),
		VolumeProfile: "HIGH", QualityScore: d(0.85),
	}
	c := det.AddPattern(base, ar)
	require.Equal(t, campaign.Active, c.State)
}

func TestExpireStale_FailsCampaignPastExpiration(t *testing.T) {
	det := newDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	spring := patterns.Spring{
		BarValue: bar(base, 99), BarIndexValue: 20,
		PenetrationPct: d(0.015), VolumeRatio: d(0.5), RecoveryBars: 1,
		CreekReference: d(100), SpringLow: d(98.5), RecoveryPrice: d(100.5),
	}
	c := det.AddPattern(base, spring)

	det.ExpireStale(base.Add(400 * time.Hour))
	require.Equal(t, campaign.Failed, c.State)
	require.True(t, det.Store.Invariant())
}

func TestMarkCompleted_RMultipleNilWhenRiskPerShareNonPositive(t *testing.T) {
	det := newDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &campaign.Campaign{ID: "c1", State: campaign.Active, StartTime: base}
	det.Store.Add(c)

	det.MarkCompleted(c, base.Add(time.Hour), d(110), campaign.ExitTargetHit)
	require.Nil(t, c.RMultiple)
	require.NotNil(t, c.PointsGained)
	require.Equal(t, campaign.Completed, c.State)
}

func TestCalculatePositionSize_RejectsAboveHardCap(t *testing.T) {
	det := newDetector()
	_, err := det.CalculatePositionSize(d(100_000), d(3.0), d(1.0))
	require.Error(t, err)
}

func TestCalculatePositionSize_IsIdempotent(t *testing.T) {
	det := newDetector()
	size1, err1 := det.CalculatePositionSize(d(100_000), d(1.0), d(2.5))
	size2, err2 := det.CalculatePositionSize(d(100_000), d(1.0), d(2.5))
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.True(t, size1.Equal(size2))
}

func TestCheckPortfolioLimits_RejectsAtConcurrencyCap(t *testing.T) {
	allowed, warning := campaign.CheckPortfolioLimits(5, d(1.0), d(1.0), campaign.DailyDefaults())
	require.False(t, allowed)
	require.NotEmpty(t, warning)
}

func TestCheckPortfolioLimits_RejectsOnHeatCap(t *testing.T) {
	allowed, warning := campaign.CheckPortfolioLimits(1, d(9.0), d(2.0), campaign.DailyDefaults())
	require.False(t, allowed)
	require.NotEmpty(t, warning)
}

func TestCheckPortfolioLimits_WarnsAt80Percent(t *testing.T) {
	allowed, warning := campaign.CheckPortfolioLimits(1, d(7.5), d(1.0), campaign.DailyDefaults())
	require.True(t, allowed)
	require.Contains(t, warning, "heat")
}

func TestStats_OverviewAndExitReasonBreakdown(t *testing.T) {
	det := newDetector()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	spring := patterns.Spring{
		BarValue: bar(base, 99), BarIndexValue: 20,
		PenetrationPct: d(0.015), VolumeRatio: d(0.5), RecoveryBars: 1,
		CreekReference: d(100), SpringLow: d(98.5), RecoveryPrice: d(100.5),
	}
	c := det.AddPattern(base, spring)
	det.MarkCompleted(c, base.Add(time.Hour), d(105), campaign.ExitTargetHit)

	stats := campaign.NewStats(det.Store)
	overview := stats.Overview()
	require.Equal(t, 1, overview.Total)
	require.Equal(t, 1, overview.Completed)

	breakdown := stats.ExitReasonBreakdown()
	require.Equal(t, 1, breakdown[campaign.ExitTargetHit])

	seqBreakdown := stats.PatternSequenceBreakdown()
	require.Equal(t, 1, seqBreakdown["SPRING"])
}
