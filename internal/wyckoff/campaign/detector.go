package campaign

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

// validTransitions enumerates which pattern kind may legally follow
// another within a campaign's sequence (spec.md 4.E). Violations do not
// block appending but prevent phase advancement on that pattern.
var validTransitions = map[patterns.Kind][]patterns.Kind{
	patterns.KindSpring: {patterns.KindSpring, patterns.KindAR, patterns.KindSOS},
	patterns.KindAR:     {patterns.KindSOS, patterns.KindLPS},
	patterns.KindSOS:    {patterns.KindSOS, patterns.KindLPS},
	patterns.KindLPS:    {patterns.KindLPS},
}

func isValidTransition(from, to patterns.Kind) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Detector groups detected patterns into campaigns and enforces
// portfolio risk limits.
type Detector struct {
	Store    *Store
	Defaults TimeframeDefaults

	AccountEquity   decimal.Decimal
	RiskPctPerTrade decimal.Decimal // capped at 2.0
}

// NewDetector builds a Detector backed by the given store and defaults.
func NewDetector(store *Store, defaults TimeframeDefaults) *Detector {
	return &Detector{Store: store, Defaults: defaults}
}

// AddPattern appends a pattern to the best-matching open campaign, or
// opens a new FORMING campaign if none matches within the pattern-gap
// window. It then recomputes risk metadata, sizing, and telemetry.
func (d *Detector) AddPattern(now time.Time, p patterns.Pattern) *Campaign {
	target := d.findOpenCampaign(now, p)
	if target == nil {
		target = &Campaign{
			ID:        uuid.NewString(),
			State:     Forming,
			StartTime: now,
		}
		d.Store.Add(target)
	}

	validSequence := true
	if len(target.Patterns) > 0 {
		last := target.Patterns[len(target.Patterns)-1]
		// Sequence violation: pattern still appends, but phase
		// advancement is skipped below (spec.md 4.E).
		validSequence = isValidTransition(last.Kind(), p.Kind())
	}
	target.Patterns = append(target.Patterns, p)

	d.recomputeRisk(target)
	d.recomputeTelemetry(target)
	d.advanceState(now, target, validSequence)

	return target
}

func (d *Detector) findOpenCampaign(now time.Time, p patterns.Pattern) *Campaign {
	for _, c := range d.Store.All() {
		if c.State != Forming && c.State != Active && c.State != Dormant {
			continue
		}
		if len(c.Patterns) == 0 {
			continue
		}
		last := c.Patterns[len(c.Patterns)-1]
		gap := now.Sub(last.Bar().Timestamp)
		if gap <= d.Defaults.MaxPatternGap {
			return c
		}
	}
	return nil
}

// advanceState applies the FORMING/ACTIVE/DORMANT/COMPLETED/FAILED
// transitions of spec.md 4.E. CurrentPhase is re-inferred only when
// advancePhase is true.
func (d *Detector) advanceState(now time.Time, c *Campaign, advancePhase bool) {
	if advancePhase {
		c.CurrentPhase = inferPhase(c.Patterns)
	}
	c.PhaseHistory = append(c.PhaseHistory, PhaseSnapshot{Timestamp: now, Phase: c.CurrentPhase})

	if now.Sub(c.StartTime) > d.Defaults.Expiration && (c.State == Forming || c.State == Active) {
		d.Store.UpdateState(c.ID, Failed)
		c.FailureReason = "expiration"
		return
	}

	switch c.State {
	case Forming:
		if len(c.Patterns) >= d.Defaults.MinPatternsForActive || highQualityAR(c.Patterns) {
			d.Store.UpdateState(c.ID, Active)
		}
	case Dormant:
		d.Store.UpdateState(c.ID, Active)
	}

	if c.CurrentPhase == levels.PhaseE && c.State == Active {
		d.Store.UpdateState(c.ID, Completed)
	}
}

func highQualityAR(ps []patterns.Pattern) bool {
	for _, p := range ps {
		if ar, ok := p.(patterns.AutomaticRally); ok {
			q, _ := ar.QualityScore.Float64()
			if q > 0.7 {
				return true
			}
		}
	}
	return false
}

// ExpireStale scans all open campaigns and fails any past its expiration,
// keeping the three indexes in lockstep (spec.md 4.E).
func (d *Detector) ExpireStale(now time.Time) {
	for _, c := range d.Store.All() {
		if c.State != Forming && c.State != Active {
			continue
		}
		if now.Sub(c.StartTime) > d.Defaults.Expiration {
			d.Store.UpdateState(c.ID, Failed)
			c.FailureReason = "expiration"
		}
	}
}

// inferPhase derives the campaign's current phase from its latest
// pattern and the presence of earlier ones (spec.md 4.E).
func inferPhase(ps []patterns.Pattern) levels.Phase {
	if len(ps) == 0 {
		return levels.PhaseA
	}
	latest := ps[len(ps)-1]
	switch latest.Kind() {
	case patterns.KindSOS, patterns.KindLPS:
		return levels.PhaseD
	case patterns.KindAR:
		if hasEarlierSpring(ps) {
			return levels.PhaseC
		}
		return levels.PhaseB
	case patterns.KindSpring:
		return levels.PhaseC
	default:
		return levels.PhaseB
	}
}

func hasEarlierSpring(ps []patterns.Pattern) bool {
	for _, p := range ps[:len(ps)-1] {
		if p.Kind() == patterns.KindSpring {
			return true
		}
	}
	return false
}
