// Package orchestrator implements the Master Orchestrator: the
// event-emitting A->D pipeline (volume -> range -> pattern -> phase)
// that the Campaign Detector (E) and Analysis Supervisor (F) both
// drive. Pattern detection runs before phase classification: the
// detectors themselves produce the SC/AR/ST/Spring/SOS/LPS event trail
// the classifier rules on, so the events must exist before Classify is
// called. Grounded in the teacher's scheduler job-result/logging idiom,
// adapted from scheduled batch jobs to a per-symbol analysis pipeline.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/infra/breakers"
	"github.com/jthadison/wyckvol/internal/wyckoff"
	"github.com/jthadison/wyckvol/internal/wyckoff/assetclass"
	"github.com/jthadison/wyckvol/internal/wyckoff/campaign"
	"github.com/jthadison/wyckvol/internal/wyckoff/cause"
	"github.com/jthadison/wyckvol/internal/wyckoff/levels"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns/scoring"
	"github.com/jthadison/wyckvol/internal/wyckoff/phase"
	"github.com/jthadison/wyckvol/internal/wyckoff/schematic"
	"github.com/jthadison/wyckvol/internal/wyckoff/volume"
)

// detectorNames are the breakers.New("...") names for the per-detector
// circuit breakers, one per pattern detector (spec.md 6).
var detectorNames = []string{"spring", "automatic_rally", "secondary_test", "sos_breakout", "lps"}

// StageName identifies one step of the A->D pipeline. Stages run in
// the order BAR_INGESTED -> VOLUME_ANALYZED -> RANGE_DETECTED ->
// PATTERN_DETECTED -> PHASE_DETECTED -> CAMPAIGN_UPDATED ->
// SIGNAL_GENERATED: pattern detection gathers the phase evidence the
// PHASE_DETECTED stage then rules on.
type StageName string

const (
	StageIngest   StageName = "BAR_INGESTED"
	StageVolume   StageName = "VOLUME_ANALYZED"
	StageRange    StageName = "RANGE_DETECTED"
	StagePattern  StageName = "PATTERN_DETECTED"
	StagePhase    StageName = "PHASE_DETECTED"
	StageCampaign StageName = "CAMPAIGN_UPDATED"
	StageSignal   StageName = "SIGNAL_GENERATED"
	StageFailed   StageName = "DETECTOR_FAILED"
)

// StageResult records one stage's outcome for the correlation-id event
// stream (spec.md 6).
type StageResult struct {
	Stage           StageName
	CorrelationID   string
	Success         bool
	ExecutionTimeMs int64
	FailedDetectors []string
}

// TradeSignal is the pipeline's terminal output: a tradeable pattern
// plus the campaign and phase context it was produced in.
type TradeSignal struct {
	Symbol        string
	Timeframe     wyckoff.Timeframe
	CorrelationID string
	Pattern       patterns.Pattern
	Phase         levels.Phase
	Confidence    int
	CampaignID    string
	Schematic     *schematic.Match
	Cause         *cause.BuildingData
	GeneratedAt   time.Time
}

// Result is what AnalyzeSymbol returns: the signals produced plus the
// per-stage trace for observability.
type Result struct {
	Signals []TradeSignal
	Stages  []StageResult
}

// Orchestrator wires together the A-D detectors and the campaign
// detector (E) into one pipeline.
type Orchestrator struct {
	LevelDetector    *levels.Detector
	VolumeCache      *volume.Cache
	PhaseClassifier  *phase.Classifier
	ScorerFactory    *scoring.Factory
	CampaignDetector *campaign.Detector
	SpringConfig     patterns.SpringDetectionConfig
	detectorBreakers map[string]*breakers.Breaker
}

// NewOrchestrator builds an Orchestrator with spec defaults, including
// one circuit breaker per named pattern detector.
func NewOrchestrator(campaignDetector *campaign.Detector) *Orchestrator {
	bs := make(map[string]*breakers.Breaker, len(detectorNames))
	for _, name := range detectorNames {
		bs[name] = breakers.New(name)
	}
	return &Orchestrator{
		LevelDetector:    levels.NewDetector(),
		VolumeCache:      volume.NewCache(),
		PhaseClassifier:  phase.NewClassifier(),
		ScorerFactory:    scoring.NewFactory(),
		CampaignDetector: campaignDetector,
		SpringConfig:     patterns.SpringDetectionConfig{StoreRejectedPatterns: false},
		detectorBreakers: bs,
	}
}

// runDetector executes fn through the named detector's circuit breaker,
// converting a panic into a tripped-breaker error rather than crashing
// the analysis pipeline (spec.md 6's "detector-level issues never raise").
func (o *Orchestrator) runDetector(name string, fn func() patterns.Pattern) (result patterns.Pattern, failed bool) {
	b := o.detectorBreakers[name]
	if b == nil {
		return fn(), false
	}
	out, err := b.Execute(func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("detector %s panicked: %v", name, r)
			}
		}()
		return fn(), nil
	})
	if err != nil {
		return nil, true
	}
	return out.(patterns.Pattern), false
}

// AnalyzeSymbol runs the full 7-stage pipeline for one symbol's bar
// sequence. It never raises on detector-level issues; absence of a
// signal is communicated by an empty Signals slice, per spec.md 6.
func (o *Orchestrator) AnalyzeSymbol(symbol string, timeframe wyckoff.Timeframe, bars []wyckoff.OHLCVBar) Result {
	correlationID := uuid.NewString()
	logger := log.With().Str("correlation_id", correlationID).Str("symbol", symbol).Logger()

	var result Result
	stage := func(name StageName, fn func() []string) {
		start := time.Now()
		failed := fn()
		elapsed := time.Since(start).Milliseconds()
		sr := StageResult{
			Stage: name, CorrelationID: correlationID, Success: len(failed) == 0,
			ExecutionTimeMs: elapsed, FailedDetectors: failed,
		}
		result.Stages = append(result.Stages, sr)
		if !sr.Success {
			logger.Warn().Str("stage", string(name)).Strs("failed", failed).Msg("detector stage reported failures")
		}
	}

	stage(StageIngest, func() []string {
		if len(bars) == 0 {
			return []string{"ingest:no_bars"}
		}
		return nil
	})
	if len(bars) == 0 {
		return result
	}

	ac := assetclass.Classify(symbol)

	// The cache is keyed by bar timestamp only, so each call gets its own.
	cache := volume.NewCache()
	analyzer := volume.NewAnalyzer(cache)
	stage(StageVolume, func() []string {
		analyzer.AnalyzeAll(bars)
		return nil
	})

	var ranges []levels.TradingRange
	stage(StageRange, func() []string {
		ranges = o.LevelDetector.Detect(bars)
		if len(ranges) == 0 {
			return []string{"levels:no_range"}
		}
		return nil
	})
	if len(ranges) == 0 {
		return result
	}
	tr := ranges[0]

	volumeRatioAt := func(i int) *decimal.Decimal {
		if i < 0 || i >= len(bars) {
			return nil
		}
		return analyzer.AnalyzeAt(bars, i).VolumeRatio
	}
	spreadRatioAt := func(i int) *decimal.Decimal {
		if i < 0 || i >= len(bars) {
			return nil
		}
		return analyzer.AnalyzeAt(bars, i).SpreadRatio
	}

	// The pattern stage gathers the phase evidence (events) the
	// classifier needs before it can rule on trading_allowed, then holds
	// the raw pattern finds in candidates until that ruling is in.
	// Selling Climax opens Phase A; it anchors AR and ST but, per
	// spec.md 3's Pattern sum type (Spring/AR/ST/SOS/LPS only), it is
	// not itself a tradeable pattern and carries no circuit breaker.
	var events phase.Events
	var candidateAR *patterns.AutomaticRally
	var candidateSTs []patterns.SecondaryTest
	var candidateSpring *patterns.Spring
	var candidateSOS *patterns.SOSBreakout
	var candidateLPS *patterns.LPS
	var failedDetectors []string

	stage(StagePattern, func() []string {
		sc := patterns.DetectSellingClimax(bars, tr.StartBarIndex, tr.Support, volumeRatioAt)
		scIndex, scLow, scVolRatio := -1, decimal.Zero, decimal.NewFromInt(1)
		if sc != nil {
			scIndex, scLow, scVolRatio = sc.BarIndexValue, sc.SCLow, sc.VolumeRatio
			events.SC = &phase.Event{Kind: phase.EventSC, BarIndex: sc.BarIndexValue, Confidence: sc.Confidence, Timestamp: sc.BarValue.Timestamp}
		}

		if scIndex >= 0 {
			arResult, tripped := o.runDetector("automatic_rally", func() patterns.Pattern {
				ar := patterns.DetectAutomaticRally(bars, scIndex, scLow, volumeRatioAt)
				if ar == nil {
					return nil
				}
				return *ar
			})
			if tripped {
				failedDetectors = append(failedDetectors, "patterns:ar_breaker_open")
			} else if ar, ok := arResult.(patterns.AutomaticRally); ok {
				candidateAR = &ar
				qs, _ := ar.QualityScore.Float64()
				events.AR = &phase.Event{Kind: phase.EventAR, BarIndex: ar.BarIndexValue, Confidence: int(qs * 100), Timestamp: ar.BarValue.Timestamp}

				stResult, tripped := o.runDetector("secondary_test", func() patterns.Pattern {
					st := patterns.DetectSecondaryTest(bars, ar.BarIndex(), scLow, scVolRatio, volumeRatioAt, 1)
					if st == nil {
						return nil
					}
					return *st
				})
				if !tripped {
					if st, ok := stResult.(patterns.SecondaryTest); ok {
						candidateSTs = append(candidateSTs, st)
						events.ST = append(events.ST, phase.Event{Kind: phase.EventST, BarIndex: st.BarIndexValue, Confidence: st.Confidence, Timestamp: st.BarValue.Timestamp})
					}
				}
			} else {
				failedDetectors = append(failedDetectors, "patterns:ar_not_detected")
			}
		}

		// Spring is the Phase C test; attempting it is how the evidence
		// for a B->C promotion is generated in the first place; the
		// classifier below makes the confirmed ruling once this result
		// (and SOS/LPS) are folded into the full event trail.
		springResult, tripped := o.runDetector("spring", func() patterns.Pattern {
			sp := patterns.DetectSpring(tr, levels.PhaseC, bars, tr.StartBarIndex, cache, o.SpringConfig, ac, o.ScorerFactory, candidateSTs)
			if sp == nil {
				return nil
			}
			return *sp
		})
		if tripped {
			failedDetectors = append(failedDetectors, "patterns:spring_breaker_open")
		} else if spring, ok := springResult.(patterns.Spring); ok && spring.IsTradeable {
			candidateSpring = &spring
			conf := scoring.MinimumConfidence + 10
			if conf > 100 {
				conf = 100
			}
			events.Spring = &phase.Event{Kind: phase.EventSpring, BarIndex: spring.BarIndexValue, Confidence: conf, Timestamp: spring.BarValue.Timestamp}
		} else {
			failedDetectors = append(failedDetectors, "patterns:none_detected")
		}

		sosStart := tr.StartBarIndex
		if candidateSpring != nil {
			sosStart = candidateSpring.BarIndexValue
		} else if candidateAR != nil {
			sosStart = candidateAR.BarIndexValue
		}
		var ice decimal.Decimal
		if tr.Ice != nil {
			ice = tr.Ice.Price
		}
		sosResult, tripped := o.runDetector("sos_breakout", func() patterns.Pattern {
			sos := patterns.DetectSOSBreakout(bars, ice, sosStart, volumeRatioAt, spreadRatioAt)
			if sos == nil {
				return nil
			}
			return *sos
		})
		if tripped {
			failedDetectors = append(failedDetectors, "patterns:sos_breaker_open")
		} else if sos, ok := sosResult.(patterns.SOSBreakout); ok {
			candidateSOS = &sos
			vrf, _ := sos.VolumeRatio.Float64()
			srf, _ := sos.SpreadRatio.Float64()
			cpf, _ := sos.ClosePosition.Float64()
			conf := 40 + int((vrf-1.5)*20) + int((srf-1.2)*20) + int(cpf*20)
			if conf > 100 {
				conf = 100
			}
			if conf < 60 {
				conf = 60
			}
			events.SOS = &phase.Event{Kind: phase.EventSOS, BarIndex: sos.BarIndexValue, Confidence: conf, Timestamp: sos.BarValue.Timestamp}

			var sosVolRatio decimal.Decimal
			if vr := volumeRatioAt(sos.BarIndexValue); vr != nil {
				sosVolRatio = *vr
			}
			lpsResult, tripped := o.runDetector("lps", func() patterns.Pattern {
				lps := patterns.DetectLPS(bars, ice, sos.BarIndex(), sosVolRatio, volumeRatioAt, 10)
				if lps == nil {
					return nil
				}
				return *lps
			})
			if !tripped {
				if lps, ok := lpsResult.(patterns.LPS); ok {
					candidateLPS = &lps
					conf := 55
					if lps.HeldSupport {
						conf = 75
					}
					events.LPS = &phase.Event{Kind: phase.EventLPS, BarIndex: lps.BarIndexValue, Confidence: conf, Timestamp: lps.BarValue.Timestamp}
				}
			}
		} else {
			failedDetectors = append(failedDetectors, "patterns:sos_not_detected")
		}

		return failedDetectors
	})

	var classification phase.Classification
	stage(StagePhase, func() []string {
		classification = o.PhaseClassifier.Classify(tr, events)
		if !classification.TradingAllowed {
			return []string{"phase:low_confidence"}
		}
		return nil
	})
	if !classification.TradingAllowed {
		return result
	}

	var detected []patterns.Pattern
	if candidateAR != nil {
		detected = append(detected, *candidateAR)
	}
	for _, st := range candidateSTs {
		detected = append(detected, st)
	}
	if candidateSpring != nil {
		detected = append(detected, *candidateSpring)
	}
	if candidateSOS != nil {
		detected = append(detected, *candidateSOS)
	}
	if candidateLPS != nil {
		detected = append(detected, *candidateLPS)
	}
	if len(detected) == 0 {
		return result
	}

	var updatedCampaign *campaign.Campaign
	stage(StageCampaign, func() []string {
		for _, p := range detected {
			updatedCampaign = o.CampaignDetector.AddPattern(time.Now(), p)
		}
		if updatedCampaign == nil {
			return []string{"campaign:not_updated"}
		}
		return nil
	})

	schemMatch := schematic.MatchAll(detected)
	causeData := cause.Build(tr, bars)

	stage(StageSignal, func() []string {
		for _, p := range detected {
			campaignID := ""
			if updatedCampaign != nil {
				campaignID = updatedCampaign.ID
			}
			result.Signals = append(result.Signals, TradeSignal{
				Symbol: symbol, Timeframe: timeframe, CorrelationID: correlationID,
				Pattern: p, Phase: classification.Phase, Confidence: classification.Confidence,
				CampaignID: campaignID, Schematic: schemMatch, Cause: causeData,
				GeneratedAt: time.Now(),
			})
		}
		return nil
	})

	return result
}

// AnalyzeSymbols runs AnalyzeSymbol across many symbols with
// concurrency bounded by maxConcurrent, per spec.md 6's semaphore
// requirement.
func (o *Orchestrator) AnalyzeSymbols(symbols []string, timeframe wyckoff.Timeframe, barsBySymbol map[string][]wyckoff.OHLCVBar, maxConcurrent int) map[string]Result {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	out := make(map[string]Result, len(symbols))
	resultCh := make(chan struct {
		symbol string
		result Result
	})
	sem := make(chan struct{}, maxConcurrent)

	for _, symbol := range symbols {
		sem <- struct{}{}
		go func(sym string) {
			defer func() { <-sem }()
			r := o.AnalyzeSymbol(sym, timeframe, barsBySymbol[sym])
			resultCh <- struct {
				symbol string
				result Result
			}{sym, r}
		}(symbol)
	}

	for range symbols {
		entry := <-resultCh
		out[entry.symbol] = entry.result
	}
	return out
}
