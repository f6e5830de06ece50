package campaign

import (
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

// Overview summarizes campaign counts by lifecycle state.
type Overview struct {
	Total     int
	Forming   int
	Active    int
	Dormant   int
	Completed int
	Failed    int
}

// Performance summarizes completed-campaign outcomes.
type Performance struct {
	CompletedCount int
	WinCount       int
	LossCount      int
	AverageRMultiple decimal.Decimal
	TotalPointsGained decimal.Decimal
}

// Stats computes the campaign overview, performance, and breakdowns of
// spec.md 4.E's reporting operations from the current store contents.
type Stats struct {
	Store *Store
}

// NewStats builds a Stats reader over the given store.
func NewStats(store *Store) *Stats {
	return &Stats{Store: store}
}

// Overview tallies campaigns by state.
func (s *Stats) Overview() Overview {
	var o Overview
	for _, c := range s.Store.All() {
		o.Total++
		switch c.State {
		case Forming:
			o.Forming++
		case Active:
			o.Active++
		case Dormant:
			o.Dormant++
		case Completed:
			o.Completed++
		case Failed:
			o.Failed++
		}
	}
	return o
}

// Performance aggregates win/loss counts and average R across
// completed campaigns that produced a defined r_multiple.
func (s *Stats) Performance() Performance {
	var p Performance
	sumR := decimal.Zero
	sumPoints := decimal.Zero
	rCount := 0
	for _, c := range s.Store.ByState(Completed) {
		p.CompletedCount++
		if c.PointsGained != nil {
			sumPoints = sumPoints.Add(*c.PointsGained)
		}
		if c.RMultiple == nil {
			continue
		}
		rCount++
		sumR = sumR.Add(*c.RMultiple)
		if c.RMultiple.GreaterThan(decimal.Zero) {
			p.WinCount++
		} else if c.RMultiple.LessThan(decimal.Zero) {
			p.LossCount++
		}
	}
	p.TotalPointsGained = sumPoints
	if rCount > 0 {
		p.AverageRMultiple = sumR.Div(decimal.NewFromInt(int64(rCount)))
	}
	return p
}

// ExitReasonBreakdown counts completed campaigns by exit reason.
func (s *Stats) ExitReasonBreakdown() map[ExitReason]int {
	out := make(map[ExitReason]int)
	for _, c := range s.Store.ByState(Completed) {
		out[c.ExitReason]++
	}
	return out
}

// PatternSequenceBreakdown counts campaigns by the ordered sequence of
// pattern kinds they contain (e.g. "SPRING,AR,SOS").
func (s *Stats) PatternSequenceBreakdown() map[string]int {
	out := make(map[string]int)
	for _, c := range s.Store.All() {
		out[sequenceKey(c.Patterns)]++
	}
	return out
}

func sequenceKey(ps []patterns.Pattern) string {
	key := ""
	for i, p := range ps {
		if i > 0 {
			key += ","
		}
		key += string(p.Kind())
	}
	return key
}

// PhaseDistribution counts active campaigns by current phase.
func (s *Stats) PhaseDistribution() map[string]int {
	out := make(map[string]int)
	for _, c := range s.Store.All() {
		if c.State != Active && c.State != Forming {
			continue
		}
		out[string(c.CurrentPhase)]++
	}
	return out
}
