package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarkCompleted records a campaign's exit, computing points_gained and
// r_multiple from the entry price implied by its latest pattern and
// the risk_per_share captured at the time of exit. r_multiple is left
// nil when risk_per_share is non-positive, since the ratio is
// undefined (spec.md 4.E).
func (d *Detector) MarkCompleted(c *Campaign, now time.Time, exitPrice decimal.Decimal, reason ExitReason) {
	entryPrice := latestPatternPrice(c.Patterns)
	points := exitPrice.Sub(entryPrice)

	c.ExitPrice = &exitPrice
	c.ExitTimestamp = &now
	c.ExitReason = reason
	c.PointsGained = &points
	c.DurationBars = len(c.Patterns)

	if c.RiskPerShare.GreaterThan(decimal.Zero) {
		rMultiple := points.Div(c.RiskPerShare)
		c.RMultiple = &rMultiple
	} else {
		c.RMultiple = nil
	}

	d.Store.UpdateState(c.ID, Completed)
}
