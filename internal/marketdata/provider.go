// Package marketdata defines the Market Data Provider collaborator
// (spec.md 6): the interface the analysis supervisor's executor and
// the orchestrator depend on to fetch historical bars, plus a fallback
// chain implementation that tries multiple named sources in order.
// Concrete exchange/vendor adapters are out of this spec's scope
// (spec.md 1's Non-goals); only the interface and its fallback/rate
// limiting/circuit breaking wiring belong here.
package marketdata

import (
	"context"
	"time"

	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/errs"
)

// Provider fetches historical OHLCV bars for one symbol/timeframe.
type Provider interface {
	FetchHistorical(ctx context.Context, symbol string, start, end time.Time, timeframe wyckoff.Timeframe, assetClass wyckoff.AssetClass) ([]wyckoff.OHLCVBar, error)
}

// Source is one named provider in a FallbackChain.
type Source struct {
	Name     string
	Provider Provider
}

// FallbackChain tries each Source in order, returning the first
// success. If every source fails, it raises DataUnavailable — "on
// exhaustion raises a data-provider error ... no silent synthetic
// fallback" (spec.md 6).
type FallbackChain struct {
	sources []Source
}

// NewFallbackChain builds a chain that tries sources in the given order.
func NewFallbackChain(sources ...Source) *FallbackChain {
	return &FallbackChain{sources: sources}
}

func (f *FallbackChain) FetchHistorical(ctx context.Context, symbol string, start, end time.Time, timeframe wyckoff.Timeframe, assetClass wyckoff.AssetClass) ([]wyckoff.OHLCVBar, error) {
	var lastErr error
	for _, src := range f.sources {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		bars, err := src.Provider.FetchHistorical(ctx, symbol, start, end, timeframe, assetClass)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	return nil, errs.NewDataUnavailable(symbol, lastErr)
}
