// Package levels implements the Range & Level Detector (component B):
// pivot detection, clustering into candidate trading ranges, quality
// scoring, and Creek/Ice/Jump level computation.
package levels

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// RangeStatus is the lifecycle status of a TradingRange.
type RangeStatus string

const (
	Forming  RangeStatus = "FORMING"
	Active   RangeStatus = "ACTIVE"
	Breakout RangeStatus = "BREAKOUT"
	Failed   RangeStatus = "FAILED"
)

// Phase mirrors the Wyckoff phase letters used across the pipeline.
type Phase string

const (
	PhaseA Phase = "A"
	PhaseB Phase = "B"
	PhaseC Phase = "C"
	PhaseD Phase = "D"
	PhaseE Phase = "E"
)

// Level is a decimal price with a provenance-backed strength score.
type Level struct {
	Price         decimal.Decimal
	StrengthScore int // [0,100]
	VotingPivots  []int
}

// TradingRange is the accumulation/distribution range a symbol trades
// within while Wyckoff phases unfold.
type TradingRange struct {
	ID             string
	Symbol         string
	Timeframe      wyckoff.Timeframe
	StartTimestamp time.Time
	EndTimestamp   time.Time
	StartBarIndex  int
	EndBarIndex    int
	DurationBars   int
	Support        decimal.Decimal
	Resistance     decimal.Decimal
	TouchCounts    map[string]int // "support" / "resistance" -> count
	QualityScore   int            // [60,100]
	Status         RangeStatus
	Phase          Phase
	Creek          *Level
	Ice            *Level
	Jump           *Level
	Deleted        bool
}

// CauseFactor is (resistance-support)/support expressed as a ratio. The
// value is not clamped, and Detect does not check it against any range.
func (tr TradingRange) CauseFactor() decimal.Decimal {
	if tr.Support.IsZero() {
		return decimal.Zero
	}
	return tr.Resistance.Sub(tr.Support).Div(tr.Support)
}

const (
	minQualityScore = 60
	minDurationBars = 15
	maxDurationBars = 100
)

// Detector scans a bar sequence for pivot clusters and builds
// TradingRange candidates.
type Detector struct {
	// MinQualityFloor discards ranges scoring below this; defaults to
	// minQualityScore when zero.
	MinQualityFloor int
	// PivotLookback is the number of bars on each side required for a
	// local extremum to count as a pivot.
	PivotLookback int
}

// NewDetector builds a Detector with spec defaults.
func NewDetector() *Detector {
	return &Detector{MinQualityFloor: minQualityScore, PivotLookback: 3}
}

func (d *Detector) qualityFloor() int {
	if d.MinQualityFloor > 0 {
		return d.MinQualityFloor
	}
	return minQualityScore
}

func (d *Detector) lookback() int {
	if d.PivotLookback > 0 {
		return d.PivotLookback
	}
	return 3
}

type pivot struct {
	index int
	price decimal.Decimal
	high  bool // true = resistance pivot, false = support pivot
}

// findPivots scans for local extrema using a symmetric lookback window.
func (d *Detector) findPivots(bars []wyckoff.OHLCVBar) []pivot {
	lb := d.lookback()
	var pivots []pivot
	for i := lb; i < len(bars)-lb; i++ {
		isHigh, isLow := true, true
		for j := i - lb; j <= i+lb; j++ {
			if j == i {
				continue
			}
			if bars[j].High.GreaterThan(bars[i].High) {
				isHigh = false
			}
			if bars[j].Low.LessThan(bars[i].Low) {
				isLow = false
			}
		}
		if isHigh {
			pivots = append(pivots, pivot{index: i, price: bars[i].High, high: true})
		}
		if isLow {
			pivots = append(pivots, pivot{index: i, price: bars[i].Low, high: false})
		}
	}
	return pivots
}

// clusterTolerance is how close (as a fraction of price) two pivots must
// be to vote for the same support/resistance cluster.
var clusterTolerance = decimal.NewFromFloat(0.02)

// cluster groups pivots of one side into price clusters, returning the
// clusters in the order of their first pivot.
func cluster(pivots []pivot, high bool) []Level {
	var same []pivot
	for _, p := range pivots {
		if p.high == high {
			same = append(same, p)
		}
	}
	var levels []Level
	used := make([]bool, len(same))
	for i, p := range same {
		if used[i] {
			continue
		}
		group := []int{p.index}
		sum := p.price
		count := 1
		used[i] = true
		for j := i + 1; j < len(same); j++ {
			if used[j] {
				continue
			}
			tol := p.price.Mul(clusterTolerance)
			if same[j].price.Sub(p.price).Abs().LessThanOrEqual(tol) {
				group = append(group, same[j].index)
				sum = sum.Add(same[j].price)
				count++
				used[j] = true
			}
		}
		avg := sum.Div(decimal.NewFromInt(int64(count)))
		strength := count * 20
		if strength > 100 {
			strength = 100
		}
		levels = append(levels, Level{Price: avg, StrengthScore: strength, VotingPivots: group})
	}
	return levels
}

func strongestSupport(levels []Level) *Level {
	var best *Level
	for i := range levels {
		if best == nil || levels[i].Price.LessThan(best.Price) {
			l := levels[i]
			best = &l
		}
	}
	return best
}

func strongestResistance(levels []Level) *Level {
	var best *Level
	for i := range levels {
		if best == nil || levels[i].Price.GreaterThan(best.Price) {
			l := levels[i]
			best = &l
		}
	}
	return best
}

// qualityScore scores a candidate range in [0,100] from touch counts and
// duration, floored at minQualityScore semantics handled by the caller.
func qualityScore(touchCount, durationBars int) int {
	score := 60 + touchCount*5
	if durationBars >= minDurationBars && durationBars <= maxDurationBars {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Detect builds TradingRange candidates from a chronologically-ordered
// bar sequence, discarding any scoring below the quality floor.
func (d *Detector) Detect(bars []wyckoff.OHLCVBar) []TradingRange {
	if len(bars) < minDurationBars {
		return nil
	}
	pivots := d.findPivots(bars)
	supportClusters := cluster(pivots, false)
	resistanceClusters := cluster(pivots, true)

	support := strongestSupport(supportClusters)
	resistance := strongestResistance(resistanceClusters)
	if support == nil || resistance == nil || !resistance.Price.GreaterThan(support.Price) {
		return nil
	}

	touchCount := len(support.VotingPivots) + len(resistance.VotingPivots)
	duration := len(bars)
	if duration > maxDurationBars {
		duration = maxDurationBars
	}

	quality := qualityScore(touchCount, duration)
	if quality < d.qualityFloor() {
		return nil
	}

	tr := TradingRange{
		ID:             uuid.NewString(),
		Symbol:         bars[0].Symbol,
		Timeframe:      bars[0].Timeframe,
		StartTimestamp: bars[0].Timestamp,
		EndTimestamp:   bars[len(bars)-1].Timestamp,
		StartBarIndex:  0,
		EndBarIndex:    len(bars) - 1,
		DurationBars:   duration,
		Support:        support.Price,
		Resistance:     resistance.Price,
		TouchCounts:    map[string]int{"support": len(support.VotingPivots), "resistance": len(resistance.VotingPivots)},
		QualityScore:   quality,
		Status:         Forming,
		Phase:          PhaseA,
	}

	creek := *support
	ice := *resistance
	jump := Level{Price: ice.Price.Add(ice.Price.Sub(creek.Price)), StrengthScore: ice.StrengthScore}
	tr.Creek = &creek
	tr.Ice = &ice
	tr.Jump = &jump

	return []TradingRange{tr}
}

// RegisterTouch increments the touch count when a later bar retests a
// level within tolerance, and promotes FORMING ranges to ACTIVE.
func RegisterTouch(tr *TradingRange, bar wyckoff.OHLCVBar) {
	if tr == nil || tr.Deleted {
		return
	}
	tol := clusterTolerance
	if tr.Creek != nil && bar.Low.Sub(tr.Creek.Price).Abs().LessThanOrEqual(tr.Creek.Price.Mul(tol)) {
		tr.TouchCounts["support"]++
	}
	if tr.Ice != nil && bar.High.Sub(tr.Ice.Price).Abs().LessThanOrEqual(tr.Ice.Price.Mul(tol)) {
		tr.TouchCounts["resistance"]++
	}
	if tr.Status == Forming {
		tr.Status = Active
	}
}
