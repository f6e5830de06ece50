// Package phase implements the Phase Classifier (component C): it turns
// a TradingRange plus the events observed within it into a Wyckoff
// phase with a confidence score gating downstream signal generation.
package phase

import (
	"time"

	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
)

// MinConfidence is the threshold below which a phase is not
// trading_allowed; the orchestrator then stops before the campaign and
// signal stages, so the patterns it found go no further.
const MinConfidence = 70

// EventKind names the phase-evidence events a classification considers.
type EventKind string

const (
	EventSC     EventKind = "SC"
	EventAR     EventKind = "AR"
	EventST     EventKind = "ST"
	EventSpring EventKind = "SPRING"
	EventSOS    EventKind = "SOS"
	EventLPS    EventKind = "LPS"
)

// Event is one piece of phase evidence: its kind, the bar index it was
// observed at, and the confidence of the detector that produced it.
type Event struct {
	Kind       EventKind
	BarIndex   int
	Confidence int // 0-100, from the originating detector/scorer
	Timestamp  time.Time
}

// Events collects the phase evidence gathered for one trading range.
type Events struct {
	SC     *Event
	AR     *Event
	ST     []Event
	Spring *Event
	SOS    *Event
	LPS    *Event
	// Continuation is a generic "phase E continuation signal" marker;
	// the orchestrator never sets it, so only callers that build Events
	// themselves supply it.
	Continuation *Event
}

// Classification is the phase-classifier's output for one trading range.
type Classification struct {
	Phase           levels.Phase
	Confidence      int
	PhaseStartIndex int
	PhaseStart      time.Time
	Events          Events
	TradingAllowed  bool
}

// Classifier derives Classification from a TradingRange and its Events.
type Classifier struct{}

// NewClassifier builds a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines phase and confidence per spec.md 4.C.
func (c *Classifier) Classify(tr levels.TradingRange, ev Events) Classification {
	ph := derivePhase(ev)
	confidence := eventPresence(ph, ev) + eventQuality(ev) + sequenceValidity(ev) + rangeContext(tr, ev)
	if confidence > 100 {
		confidence = 100
	}

	result := Classification{
		Phase:          ph,
		Confidence:     confidence,
		PhaseStartIndex: tr.StartBarIndex,
		PhaseStart:      tr.StartTimestamp,
		Events:          ev,
		TradingAllowed:  confidence >= MinConfidence,
	}
	return result
}

// derivePhase picks the furthest-along phase supported by the observed
// events, independent of confidence.
func derivePhase(ev Events) levels.Phase {
	switch {
	case ev.SOS != nil || ev.LPS != nil:
		return levels.PhaseD
	case ev.Spring != nil:
		return levels.PhaseC
	case len(ev.ST) > 0:
		return levels.PhaseB
	case ev.AR != nil:
		return levels.PhaseB
	case ev.SC != nil:
		return levels.PhaseA
	default:
		return levels.PhaseA
	}
}

// eventPresence implements the 0-40 component of spec.md 4.C.
func eventPresence(ph levels.Phase, ev Events) int {
	switch ph {
	case levels.PhaseA:
		score := 0
		if ev.SC != nil {
			score += 20
		}
		if ev.AR != nil {
			score += 20
		}
		return score
	case levels.PhaseB:
		score := 20 // "A complete" assumed reachable once we're in B
		switch {
		case len(ev.ST) >= 2:
			score += 20
		case len(ev.ST) == 1:
			score += 10
		}
		return score
	case levels.PhaseC:
		score := 20
		if ev.Spring != nil {
			score += 20
		}
		return score
	case levels.PhaseD:
		if ev.SOS != nil {
			return 40
		}
		return 20
	case levels.PhaseE:
		score := 20
		if ev.Continuation != nil {
			score += 20
		}
		return score
	default:
		return 0
	}
}

// eventQuality implements the 0-30 component: average of per-event
// confidences, scaled to 30.
func eventQuality(ev Events) int {
	var sum, count int
	add := func(e *Event) {
		if e != nil {
			sum += e.Confidence
			count++
		}
	}
	add(ev.SC)
	add(ev.AR)
	for i := range ev.ST {
		sum += ev.ST[i].Confidence
		count++
	}
	add(ev.Spring)
	add(ev.SOS)
	add(ev.LPS)
	if count == 0 {
		return 0
	}
	avg := float64(sum) / float64(count)
	return int(avg * 30 / 100)
}

// sequenceValidity implements the 0-20 component: chronological order
// checks between the events present.
func sequenceValidity(ev Events) int {
	score := 20
	if ev.SC != nil && ev.AR != nil {
		if ev.AR.BarIndex < ev.SC.BarIndex {
			score -= 10
		} else if ev.AR.BarIndex-ev.SC.BarIndex > 10 {
			score -= 5
		}
	}
	for i := 1; i < len(ev.ST); i++ {
		if ev.ST[i].BarIndex <= ev.ST[i-1].BarIndex {
			score -= 5
		}
	}
	if ev.Spring != nil && ev.SC != nil && ev.Spring.BarIndex < ev.SC.BarIndex {
		score -= 10
	}
	if ev.SOS != nil && ev.Spring != nil && ev.SOS.BarIndex < ev.Spring.BarIndex {
		score -= 5
	}
	if ev.Continuation != nil && ev.SOS == nil && ev.LPS == nil {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

// rangeContext implements the 0-10 component: positional sanity of
// events relative to the range. Bar-level checks (SC near support, SOS
// breaching Ice, E holding above Ice) are enforced by the individual
// detectors before an event reaches the classifier; this component
// rewards a range that actually has both boundaries established.
func rangeContext(tr levels.TradingRange, ev Events) int {
	if tr.Support.IsZero() && tr.Resistance.IsZero() {
		return 0
	}
	if tr.Creek == nil || tr.Ice == nil {
		return 5
	}
	return 10
}
