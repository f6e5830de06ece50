// Package scoring implements the asset-class-aware confidence scorers
// for Spring and SOS patterns (spec.md 4.D). A ScorerFactory selects an
// implementation by AssetClass; detectors never branch on asset class
// themselves — they consult the scorer (spec.md 9, "asset-class polymorphism").
package scoring

import "github.com/jthadison/wyckvol/internal/wyckoff"

// SpringInputs is the subset of a detected Spring's measurements needed
// to score its quality, decoupled from the patterns package to avoid an
// import cycle (patterns depends on scoring, not vice versa).
type SpringInputs struct {
	VolumeRatio         float64
	PenetrationPct       float64
	RecoveryBars        int
	HasTest             bool
	CreekStrengthScore  int
	PreviousTestVolumes []float64 // chronological, most recent last
}

// SOSInputs is the subset of a detected SOS's measurements needed to
// score its quality.
type SOSInputs struct {
	VolumeRatio    float64
	SpreadRatio    float64
	ClosePosition  float64
	BreakoutPct    float64
	DurationBars   int
	LPSHeld        bool
	PhaseDHighConfidence bool
	EntryIsLPS     bool
}

// Confidence is the scored result for either pattern kind: a total
// score, its component breakdown, and a derived quality tier.
type Confidence struct {
	TotalScore     int
	Components     map[string]int
	QualityTier    string
	MeetsThreshold bool
}

// MinimumConfidence is the FR4-equivalent threshold: patterns below this
// are rejected for signal generation (spec.md 4.D).
const MinimumConfidence = 70

func tierFor(score int) string {
	switch {
	case score >= 90:
		return "EXCELLENT"
	case score >= 80:
		return "GOOD"
	case score >= 70:
		return "ACCEPTABLE"
	default:
		return "REJECTED"
	}
}

// ConfidenceScorer is the capability a ScorerFactory resolves per
// asset class.
type ConfidenceScorer interface {
	AssetClass() wyckoff.AssetClass
	VolumeReliability() string
	MaxConfidence() int
	CalculateSpringConfidence(in SpringInputs) Confidence
	CalculateSOSConfidence(in SOSInputs) Confidence
}

// Factory resolves a ConfidenceScorer by asset class.
type Factory struct{}

// NewFactory builds a Factory.
func NewFactory() *Factory { return &Factory{} }

// Get returns the scorer for the given asset class.
func (f *Factory) Get(ac wyckoff.AssetClass) ConfidenceScorer {
	if ac == wyckoff.AssetClassForex {
		return NewForexScorer()
	}
	return NewStockScorer()
}

func cap(score, max int) Confidence {
	if score > max {
		score = max
	}
	return Confidence{TotalScore: score, QualityTier: tierFor(score), MeetsThreshold: score >= MinimumConfidence}
}

// volumeTrendBonus scores declining volume across previous tests: a
// >=20% decrease between the earliest and most recent previous test
// earns the bonus; roughly stable volume earns half; rising earns none.
func volumeTrendBonus(previous []float64, max int) int {
	if len(previous) < 2 {
		return 0
	}
	first, last := previous[0], previous[len(previous)-1]
	if first == 0 {
		return 0
	}
	change := (first - last) / first
	switch {
	case change >= 0.20:
		return max
	case change >= -0.20:
		return max / 2
	default:
		return 0
	}
}

func creekStrengthBonus(strength, max int) int {
	switch {
	case strength >= 80:
		return max
	case strength >= 70:
		return (max * 7) / 10
	case strength >= 60:
		return (max * 5) / 10
	default:
		return 0
	}
}
