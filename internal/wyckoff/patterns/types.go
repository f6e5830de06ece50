// Package patterns implements the per-pattern detectors (component D):
// Spring, Automatic Rally, Secondary Test, Sign-of-Strength breakout,
// and Last-Point-of-Support. Patterns are modeled as a tagged variant
// (an interface with a Kind method) rather than a class hierarchy, per
// spec.md 9: sequence validation and phase inference switch on the tag.
package patterns

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// Kind tags which pattern variant a Pattern value carries.
type Kind string

const (
	KindSpring Kind = "SPRING"
	KindAR     Kind = "AR"
	KindST     Kind = "ST"
	KindSOS    Kind = "SOS"
	KindLPS    Kind = "LPS"
)

// Pattern is the sum type every detector output satisfies.
type Pattern interface {
	Kind() Kind
	BarIndex() int
	Bar() wyckoff.OHLCVBar
}

// Spring is a shakeout below Creek on low volume followed by rapid
// recovery, valid only in Phase C.
type Spring struct {
	BarValue        wyckoff.OHLCVBar
	BarIndexValue   int
	PenetrationPct  decimal.Decimal // (0, 0.05]
	VolumeRatio     decimal.Decimal // strictly < 0.7
	RecoveryBars    int             // [1,5]
	CreekReference  decimal.Decimal
	SpringLow       decimal.Decimal
	RecoveryPrice   decimal.Decimal
	AssetClass      wyckoff.AssetClass
	VolumeReliability string
	SessionQuality  string
	SessionConfidencePenalty int
	IsTradeable     bool
	RejectedBySessionFilter bool
	RejectionReason string
	RejectionTimestamp *time.Time
}

func (s Spring) Kind() Kind               { return KindSpring }
func (s Spring) BarIndex() int            { return s.BarIndexValue }
func (s Spring) Bar() wyckoff.OHLCVBar    { return s.BarValue }

// AutomaticRally is the relief rally after a Selling Climax, marking the
// upper boundary of Phase A.
type AutomaticRally struct {
	BarValue      wyckoff.OHLCVBar
	BarIndexValue int
	RallyPct      decimal.Decimal // >= 0.03
	BarsAfterSC   int             // <= 10
	SCReference   int             // bar index of the SC
	SCLow         decimal.Decimal
	ARHigh        decimal.Decimal
	VolumeProfile string // HIGH | NORMAL
	QualityScore  decimal.Decimal // [0,1]
}

func (a AutomaticRally) Kind() Kind            { return KindAR }
func (a AutomaticRally) BarIndex() int         { return a.BarIndexValue }
func (a AutomaticRally) Bar() wyckoff.OHLCVBar { return a.BarValue }

// SecondaryTest is a retest of the SC low on reduced volume.
type SecondaryTest struct {
	BarValue            wyckoff.OHLCVBar
	BarIndexValue       int
	DistanceFromSCLow   decimal.Decimal // within 0.02
	VolumeReductionPct  decimal.Decimal // >= 0.20
	TestNumber          int
	Penetration         decimal.Decimal // <= 0.01 acceptable
	Confidence          int             // [0,100]
}

func (s SecondaryTest) Kind() Kind            { return KindST }
func (s SecondaryTest) BarIndex() int         { return s.BarIndexValue }
func (s SecondaryTest) Bar() wyckoff.OHLCVBar { return s.BarValue }

// SOSBreakout is the Phase D Sign-of-Strength breakout above Ice.
type SOSBreakout struct {
	BarValue      wyckoff.OHLCVBar
	BarIndexValue int
	BreakoutPct   decimal.Decimal // >= 0.01
	VolumeRatio   decimal.Decimal // >= 1.5
	SpreadRatio   decimal.Decimal // >= 1.2
	ClosePosition decimal.Decimal // >= 0.5
	BreakoutPrice decimal.Decimal
}

func (s SOSBreakout) Kind() Kind            { return KindSOS }
func (s SOSBreakout) BarIndex() int         { return s.BarIndexValue }
func (s SOSBreakout) Bar() wyckoff.OHLCVBar { return s.BarValue }

// LPS is the Last Point of Support: a pullback toward Ice that holds on
// lower volume, confirming Phase D markup is ready to continue.
type LPS struct {
	BarValue         wyckoff.OHLCVBar
	BarIndexValue    int
	DistanceFromIce  decimal.Decimal
	HeldSupport      bool
	VolumeRatio      decimal.Decimal
	IceLevel         decimal.Decimal
}

func (l LPS) Kind() Kind            { return KindLPS }
func (l LPS) BarIndex() int         { return l.BarIndexValue }
func (l LPS) Bar() wyckoff.OHLCVBar { return l.BarValue }
