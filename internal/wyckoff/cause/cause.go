// Package cause implements Point & Figure cause-building: counting
// accumulation columns within an active trading range and projecting
// the Jump target those columns imply.
package cause

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
)

const atrPeriod = 14
const wideRangeMultiple = 2.0
const maxTargetColumns = 18
const barsPerColumn = 5

// BuildingData is the P&F cause-building result for one active range.
type BuildingData struct {
	ColumnCount         int
	TargetColumnCount   int
	ProjectedJump       decimal.Decimal
	ProgressPct         decimal.Decimal
	CountMethodology    string
}

// Build computes cause-building data for the given range's bars, or
// nil if the range isn't ACTIVE. Bars must be exactly those spanning
// the range's start/end bar indices.
func Build(tr levels.TradingRange, bars []wyckoff.OHLCVBar) *BuildingData {
	if tr.Status != levels.Active {
		return nil
	}
	if len(bars) == 0 || tr.Creek == nil || tr.Ice == nil {
		return nil
	}

	atr := averageTrueRange(bars, atrPeriod)
	threshold := atr.Mul(decimal.NewFromFloat(wideRangeMultiple))

	columnCount := 0
	for _, bar := range bars {
		if bar.High.Sub(bar.Low).GreaterThan(threshold) {
			columnCount++
		}
	}

	durationBars := len(bars)
	targetColumns := durationBars / barsPerColumn
	if targetColumns > maxTargetColumns {
		targetColumns = maxTargetColumns
	}
	if targetColumns < 1 {
		targetColumns = 1
	}

	creek := tr.Creek.Price
	ice := tr.Ice.Price
	rangeHeight := ice.Sub(creek)
	projectedJump := creek.Add(rangeHeight.Mul(decimal.NewFromInt(int64(columnCount))).Mul(decimal.NewFromFloat(0.5)))

	progress := decimal.NewFromInt(int64(columnCount)).Div(decimal.NewFromInt(int64(targetColumns))).Mul(decimal.NewFromInt(100))
	if progress.GreaterThan(decimal.NewFromInt(100)) {
		progress = decimal.NewFromInt(100)
	}

	return &BuildingData{
		ColumnCount:       columnCount,
		TargetColumnCount: targetColumns,
		ProjectedJump:     projectedJump,
		ProgressPct:       progress,
		CountMethodology: "P&F count: wide-range bars (range > 2x ATR) within the active trading range; " +
			"target columns = min(18, duration_bars/5); projected Jump = Creek + (range * columns * 0.5)",
	}
}

// averageTrueRange computes the standard ATR, falling back to a simple
// high-low average when fewer than period bars are available.
func averageTrueRange(bars []wyckoff.OHLCVBar, period int) decimal.Decimal {
	if len(bars) < period {
		if len(bars) == 0 {
			return decimal.NewFromInt(1)
		}
		sum := decimal.Zero
		for _, b := range bars {
			sum = sum.Add(b.High.Sub(b.Low))
		}
		return sum.Div(decimal.NewFromInt(int64(len(bars))))
	}

	var trueRanges []decimal.Decimal
	for i := 1; i < len(bars); i++ {
		high, low, prevClose := bars[i].High, bars[i].Low, bars[i-1].Close
		tr := high.Sub(low)
		if v := high.Sub(prevClose).Abs(); v.GreaterThan(tr) {
			tr = v
		}
		if v := low.Sub(prevClose).Abs(); v.GreaterThan(tr) {
			tr = v
		}
		trueRanges = append(trueRanges, tr)
	}

	if len(trueRanges) == 0 {
		return decimal.NewFromInt(1)
	}
	window := trueRanges
	if len(window) > period {
		window = window[len(window)-period:]
	}
	sum := decimal.Zero
	for _, v := range window {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(window))))
}
