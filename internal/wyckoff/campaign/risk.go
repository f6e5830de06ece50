package campaign

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff/errs"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

var (
	hundred            = decimal.NewFromInt(100)
	maxRiskPctPerTrade  = decimal.NewFromFloat(2.0)
	strengthPatternMin  = decimal.NewFromFloat(0.1)
	strengthPatternMax  = decimal.NewFromFloat(0.3)
	strengthQualityWeight = decimal.NewFromFloat(0.4)
)

// recomputeRisk recalculates support/resistance, strength score,
// risk-per-share, range-width, jump level, and sizing on every append
// (spec.md 4.E).
func (d *Detector) recomputeRisk(c *Campaign) {
	support, resistance := supportResistance(c.Patterns)
	c.SupportLevel = support
	c.ResistanceLevel = resistance
	c.StrengthScore = strengthScore(c.Patterns, c.CurrentPhase)

	latestPrice := latestPatternPrice(c.Patterns)
	if !support.IsZero() || latestPrice.GreaterThan(decimal.Zero) {
		c.RiskPerShare = latestPrice.Sub(support)
	}

	if !support.IsZero() {
		c.RangeWidthPct = resistance.Sub(support).Div(support).Mul(hundred)
	}
	c.JumpLevel = resistance.Add(resistance.Sub(support))

	if c.OriginalIceLevel.IsZero() {
		c.OriginalIceLevel = resistance
	} else if resistance.GreaterThan(c.OriginalIceLevel) {
		c.IceExpansionCount++
		c.OriginalIceLevel = resistance
	}

	if !d.AccountEquity.IsZero() && !c.RiskPerShare.IsZero() {
		size, _ := d.CalculatePositionSize(d.AccountEquity, d.RiskPctPerTrade, c.RiskPerShare)
		c.PositionSize = size
		c.DollarRisk = size.Mul(c.RiskPerShare)
	}
}

func supportResistance(ps []patterns.Pattern) (decimal.Decimal, decimal.Decimal) {
	var support, resistance decimal.Decimal
	supportSet, resistanceSet := false, false
	for _, p := range ps {
		switch v := p.(type) {
		case patterns.Spring:
			if !supportSet || v.SpringLow.LessThan(support) {
				support = v.SpringLow
				supportSet = true
			}
		case patterns.AutomaticRally:
			if !resistanceSet || v.ARHigh.GreaterThan(resistance) {
				resistance = v.ARHigh
				resistanceSet = true
			}
		case patterns.SOSBreakout:
			if !resistanceSet || v.BreakoutPrice.GreaterThan(resistance) {
				resistance = v.BreakoutPrice
				resistanceSet = true
			}
		case patterns.LPS:
			if !resistanceSet || v.IceLevel.GreaterThan(resistance) {
				resistance = v.IceLevel
				resistanceSet = true
			}
		}
	}
	return support, resistance
}

func latestPatternPrice(ps []patterns.Pattern) decimal.Decimal {
	if len(ps) == 0 {
		return decimal.Zero
	}
	return ps[len(ps)-1].Bar().Close
}

// strengthScore combines pattern count, average quality, the
// Spring->AR->SOS sequence bonus, and a phase bonus, bounded to [0,1]
// (spec.md 4.E).
func strengthScore(ps []patterns.Pattern, currentPhase levels.Phase) decimal.Decimal {
	score := decimal.Zero

	countComponent := decimal.NewFromFloat(0.1).Mul(decimal.NewFromInt(int64(len(ps))))
	if countComponent.GreaterThan(strengthPatternMax) {
		countComponent = strengthPatternMax
	}
	if countComponent.LessThan(strengthPatternMin) && len(ps) > 0 {
		countComponent = strengthPatternMin
	}
	score = score.Add(countComponent)

	avgQuality := averagePatternQuality(ps)
	score = score.Add(avgQuality.Mul(strengthQualityWeight))

	if hasSpringARSOS(ps) {
		score = score.Add(decimal.NewFromFloat(0.10))
		if arQualityAbove(ps, 0.75) {
			score = score.Add(decimal.NewFromFloat(0.05))
		}
	}

	switch currentPhase {
	case levels.PhaseC:
		score = score.Add(decimal.NewFromFloat(0.1))
	case levels.PhaseD, levels.PhaseE:
		score = score.Add(decimal.NewFromFloat(0.2))
	}

	if score.GreaterThan(decimal.NewFromInt(1)) {
		score = decimal.NewFromInt(1)
	}
	if score.LessThan(decimal.Zero) {
		score = decimal.Zero
	}
	return score
}

func averagePatternQuality(ps []patterns.Pattern) decimal.Decimal {
	if len(ps) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	count := 0
	for _, p := range ps {
		switch v := p.(type) {
		case patterns.AutomaticRally:
			sum = sum.Add(v.QualityScore)
			count++
		case patterns.SecondaryTest:
			sum = sum.Add(decimal.NewFromInt(int64(v.Confidence)).Div(hundred))
			count++
		}
	}
	if count == 0 {
		return decimal.NewFromFloat(0.5)
	}
	return sum.Div(decimal.NewFromInt(int64(count)))
}

func hasSpringARSOS(ps []patterns.Pattern) bool {
	seenSpring, seenAR := false, false
	for _, p := range ps {
		switch p.Kind() {
		case patterns.KindSpring:
			seenSpring = true
		case patterns.KindAR:
			if seenSpring {
				seenAR = true
			}
		case patterns.KindSOS:
			if seenSpring && seenAR {
				return true
			}
		}
	}
	return false
}

func arQualityAbove(ps []patterns.Pattern, threshold float64) bool {
	for _, p := range ps {
		if ar, ok := p.(patterns.AutomaticRally); ok {
			q, _ := ar.QualityScore.Float64()
			if q > threshold {
				return true
			}
		}
	}
	return false
}

// CalculatePositionSize computes position_size = round((equity *
// risk_pct/100) / risk_per_share), rejecting a risk_pct above the 2.0
// hard cap and returning 0 for any non-positive input (spec.md 4.E,
// idempotent for identical inputs by construction — no hidden state).
func (d *Detector) CalculatePositionSize(accountEquity, riskPctPerTrade, riskPerShare decimal.Decimal) (decimal.Decimal, error) {
	if riskPctPerTrade.GreaterThan(maxRiskPctPerTrade) {
		return decimal.Zero, errs.NewValidation("risk_pct_per_trade", "exceeds 2.0 hard cap")
	}
	if accountEquity.LessThanOrEqual(decimal.Zero) || riskPerShare.LessThanOrEqual(decimal.Zero) || riskPctPerTrade.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	dollarRiskBudget := accountEquity.Mul(riskPctPerTrade).Div(hundred)
	return dollarRiskBudget.Div(riskPerShare).Round(0), nil
}

// CheckPortfolioLimits implements the pre-admission check of spec.md
// 4.E: reject a new campaign if the active count is at the concurrency
// cap, or admitting its prospective heat would breach the heat cap.
// Returns (allowed, warning) where warning is non-empty at 80% of
// either limit.
func CheckPortfolioLimits(activeCount int, currentHeatPct, prospectiveHeatPct decimal.Decimal, defaults TimeframeDefaults) (bool, string) {
	if activeCount >= defaults.MaxConcurrent {
		return false, "max concurrent campaigns reached"
	}
	totalHeat := currentHeatPct.Add(prospectiveHeatPct)
	if totalHeat.GreaterThan(defaults.MaxPortfolioHeatPct) {
		return false, "portfolio heat cap exceeded"
	}

	warnAt := defaults.MaxPortfolioHeatPct.Mul(decimal.NewFromFloat(0.8))
	concurrentWarnAt := decimal.NewFromInt(int64(defaults.MaxConcurrent)).Mul(decimal.NewFromFloat(0.8))
	if totalHeat.GreaterThanOrEqual(warnAt) {
		return true, "approaching portfolio heat cap"
	}
	if decimal.NewFromInt(int64(activeCount)).GreaterThanOrEqual(concurrentWarnAt) {
		return true, "approaching max concurrent campaigns"
	}
	return true, ""
}
