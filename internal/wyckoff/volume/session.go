package volume

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// Session names the intraday trading session a bar falls into, in UTC.
type Session string

const (
	SessionLondon   Session = "LONDON"
	SessionNewYork  Session = "NY"
	SessionAsian    Session = "ASIAN"
	SessionNYClose  Session = "NY_CLOSE"
	SessionOverlap  Session = "OVERLAP"
)

// ClassifySession maps a UTC timestamp to a trading session. Boundaries
// follow the conventional session hours used by the pattern detectors'
// confidence-penalty tables.
func ClassifySession(ts time.Time) Session {
	h := ts.UTC().Hour()
	switch {
	case h >= 12 && h < 16:
		return SessionOverlap
	case h >= 7 && h < 12:
		return SessionLondon
	case h >= 16 && h < 20:
		return SessionNewYork
	case h >= 20 && h < 22:
		return SessionNYClose
	default:
		return SessionAsian
	}
}

// SessionAnalyzer computes ratios against a per-session rolling baseline
// for intraday timeframes (<=1h). Nothing in the detection pipeline
// constructs it: the orchestrator and the pattern detectors use
// Analyzer's global 20-bar window for every timeframe.
type SessionAnalyzer struct{}

// NewSessionAnalyzer builds a SessionAnalyzer.
func NewSessionAnalyzer() *SessionAnalyzer {
	return &SessionAnalyzer{}
}

// AnalyzeAt computes volume/spread ratios for bars[i] against the mean of
// the prior bars sharing its session, up to rollingWindow of them.
func (s *SessionAnalyzer) AnalyzeAt(bars []wyckoff.OHLCVBar, i int) Analysis {
	bar := bars[i]
	session := ClassifySession(bar.Timestamp)

	var sameSession []wyckoff.OHLCVBar
	for j := i - 1; j >= 0 && len(sameSession) < rollingWindow; j-- {
		if ClassifySession(bars[j].Timestamp) == session {
			sameSession = append(sameSession, bars[j])
		}
	}

	result := Analysis{ClosePosition: bar.ClosePosition()}
	if len(sameSession) == 0 {
		result.EffortResult = Normal
		return result
	}

	volMean := meanVolume(sameSession)
	spreadMean := meanSpread(sameSession)
	if !volMean.IsZero() {
		vr := bar.Volume.Div(volMean)
		result.VolumeRatio = &vr
	}
	if !spreadMean.IsZero() {
		sr := bar.Spread().Div(spreadMean)
		result.SpreadRatio = &sr
	}
	result.EffortResult = classify(result.VolumeRatio, result.SpreadRatio)
	return result
}

// SessionPenalty returns the confidence penalty applied to intraday
// pattern detections for the given session, per spec.md 4.D step 5.
// filterEnabled sharpens the ASIAN penalty when session filtering is
// also active.
func SessionPenalty(session Session, filterEnabled bool) int {
	switch session {
	case SessionLondon, SessionOverlap:
		return 0
	case SessionNewYork:
		return -5
	case SessionAsian:
		if filterEnabled {
			return -25
		}
		return -20
	case SessionNYClose:
		return -25
	default:
		return 0
	}
}

// ratioFloat safely reads a *decimal.Decimal ratio as float64, 0 if nil.
func ratioFloat(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
