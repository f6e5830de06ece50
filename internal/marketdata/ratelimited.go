package marketdata

import (
	"context"
	"time"

	"github.com/jthadison/wyckvol/internal/infrastructure/providers"
	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// RateLimitedProvider decorates a Provider with the teacher's
// token-bucket rate limiter and circuit breaker manager
// (internal/infrastructure/providers), so a single named source in a
// FallbackChain degrades the same way the teacher's exchange adapters
// do: rate-limited per provider name, tripped open after repeated
// failures.
type RateLimitedProvider struct {
	name     string
	inner    Provider
	limiter  *providers.RateLimiter
	breakers *providers.CircuitBreakerManager
}

// NewRateLimitedProvider wraps inner with a rate limiter (rps/burst)
// and a circuit breaker registered under name.
func NewRateLimitedProvider(name string, inner Provider, rps float64, burst int, cbConfig providers.CircuitBreakerConfig) *RateLimitedProvider {
	limiter := providers.NewRateLimiter()
	limiter.InitializeProvider(name, rps, burst)

	breakers := providers.NewCircuitBreakerManager()
	cbConfig.Name = name
	breakers.InitializeProvider(name, &cbConfig, nil)

	return &RateLimitedProvider{name: name, inner: inner, limiter: limiter, breakers: breakers}
}

func (p *RateLimitedProvider) FetchHistorical(ctx context.Context, symbol string, start, end time.Time, timeframe wyckoff.Timeframe, assetClass wyckoff.AssetClass) ([]wyckoff.OHLCVBar, error) {
	if err := p.limiter.Allow(ctx, p.name); err != nil {
		return nil, err
	}

	var bars []wyckoff.OHLCVBar
	result, err := p.breakers.Execute(p.name, func() (interface{}, error) {
		b, err := p.inner.FetchHistorical(ctx, symbol, start, end, timeframe, assetClass)
		return b, err
	})
	if err != nil {
		return nil, err
	}
	bars, _ = result.([]wyckoff.OHLCVBar)
	return bars, nil
}
