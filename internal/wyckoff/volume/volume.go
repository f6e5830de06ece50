// Package volume computes per-bar volume/spread ratios and classifies
// effort-vs-result, the leaf stage of the detection pipeline (Volume
// Analyzer, component A).
package volume

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// EffortResult classifies the relationship between volume effort and
// price-spread result for a single bar.
type EffortResult string

const (
	Normal          EffortResult = "NORMAL"
	Climactic       EffortResult = "CLIMACTIC"
	EffortNoResult  EffortResult = "EFFORT_NO_RESULT"
	ResultNoEffort  EffortResult = "RESULT_NO_EFFORT"
)

const rollingWindow = 20

var (
	climacticVolumeRatio = decimal.NewFromFloat(2.0)
	climacticSpreadRatio = decimal.NewFromFloat(1.5)
	effortVolumeRatio    = decimal.NewFromFloat(1.5)
	effortSpreadRatio    = decimal.NewFromFloat(0.8)
	resultVolumeRatio    = decimal.NewFromFloat(0.8)
	resultSpreadRatio    = decimal.NewFromFloat(1.5)
)

// Analysis is the per-bar volume analysis, index-aligned to the input
// bar slice. Ratios are nil and EffortResult is Normal for the first 19
// bars: the rolling window needs 20 observations, the current bar
// included.
type Analysis struct {
	VolumeRatio  *decimal.Decimal
	SpreadRatio  *decimal.Decimal
	ClosePosition decimal.Decimal
	EffortResult EffortResult
}

// Ready reports whether this analysis has a full 20-bar window behind it.
func (a Analysis) Ready() bool {
	return a.VolumeRatio != nil && a.SpreadRatio != nil
}

// Cache memoizes ratios keyed by bar timestamp for O(1) repeated lookups
// across multiple detector passes over the same bar sequence. It must be
// discarded (not reused) if the caller re-slices the input bars.
type Cache struct {
	byTimestamp map[int64]Analysis
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{byTimestamp: make(map[int64]Analysis)}
}

func (c *Cache) get(ts int64) (Analysis, bool) {
	if c == nil {
		return Analysis{}, false
	}
	a, ok := c.byTimestamp[ts]
	return a, ok
}

func (c *Cache) put(ts int64, a Analysis) {
	if c == nil {
		return
	}
	c.byTimestamp[ts] = a
}

// Analyzer computes VolumeAnalysis for chronologically-ordered bars of a
// single symbol/timeframe.
type Analyzer struct {
	cache *Cache
}

// NewAnalyzer builds an Analyzer, optionally backed by a Cache.
func NewAnalyzer(cache *Cache) *Analyzer {
	return &Analyzer{cache: cache}
}

// AnalyzeAll computes the analysis for every bar in the slice. Bars must
// be the same symbol and timeframe and sorted ascending by timestamp.
func (a *Analyzer) AnalyzeAll(bars []wyckoff.OHLCVBar) []Analysis {
	out := make([]Analysis, len(bars))
	for i := range bars {
		out[i] = a.AnalyzeAt(bars, i)
	}
	return out
}

// AnalyzeAt computes (or returns the cached) analysis for bars[i].
func (a *Analyzer) AnalyzeAt(bars []wyckoff.OHLCVBar, i int) Analysis {
	bar := bars[i]
	ts := bar.Timestamp.UnixNano()
	if cached, ok := a.cache.get(ts); ok {
		return cached
	}

	result := Analysis{ClosePosition: bar.ClosePosition()}

	if i >= rollingWindow-1 {
		volMean := meanVolume(bars[i-rollingWindow+1 : i+1])
		spreadMean := meanSpread(bars[i-rollingWindow+1 : i+1])
		if !volMean.IsZero() {
			vr := bar.Volume.Div(volMean)
			result.VolumeRatio = &vr
		}
		if !spreadMean.IsZero() {
			sr := bar.Spread().Div(spreadMean)
			result.SpreadRatio = &sr
		}
	}

	result.EffortResult = classify(result.VolumeRatio, result.SpreadRatio)

	a.cache.put(ts, result)
	return result
}

func classify(volumeRatio, spreadRatio *decimal.Decimal) EffortResult {
	if volumeRatio == nil || spreadRatio == nil {
		return Normal
	}
	switch {
	case volumeRatio.GreaterThanOrEqual(climacticVolumeRatio) && spreadRatio.GreaterThanOrEqual(climacticSpreadRatio):
		return Climactic
	case volumeRatio.GreaterThanOrEqual(effortVolumeRatio) && spreadRatio.LessThanOrEqual(effortSpreadRatio):
		return EffortNoResult
	case volumeRatio.LessThanOrEqual(resultVolumeRatio) && spreadRatio.GreaterThanOrEqual(resultSpreadRatio):
		return ResultNoEffort
	default:
		return Normal
	}
}

func meanVolume(bars []wyckoff.OHLCVBar) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range bars {
		sum = sum.Add(b.Volume)
	}
	return sum.Div(decimal.NewFromInt(int64(len(bars))))
}

func meanSpread(bars []wyckoff.OHLCVBar) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range bars {
		sum = sum.Add(b.Spread())
	}
	return sum.Div(decimal.NewFromInt(int64(len(bars))))
}
