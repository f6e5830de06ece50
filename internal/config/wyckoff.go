// Package config loads the platform's YAML configuration, grounded in
// the teacher's config/providers.go struct-per-concern layout and
// gopkg.in/yaml.v3 tags, enumerating the Detection, Campaign,
// Supervisor, and Risk sections spec.md 6 names.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jthadison/wyckvol/internal/wyckoff/campaign"
)

// DetectionConfig configures the pattern-detection pipeline (spec.md 6).
type DetectionConfig struct {
	MinPhaseConfidence            int     `yaml:"min_phase_confidence"`
	MinRangeQualityScore          float64 `yaml:"min_range_quality_score"`
	SessionFilterEnabled          bool    `yaml:"session_filter_enabled"`
	SessionConfidenceScoringEnabled bool  `yaml:"session_confidence_scoring_enabled"`
	StoreRejectedPatterns         bool    `yaml:"store_rejected_patterns"`
}

// CampaignTimeframeDefaults holds the campaign-detector defaults for one
// timeframe bucket (spec.md 4.E: intraday vs daily defaults).
type CampaignTimeframeDefaults struct {
	CampaignWindowHours  float64 `yaml:"campaign_window_hours"`
	MaxPatternGapHours   float64 `yaml:"max_pattern_gap_hours"`
	MinPatternsForActive int     `yaml:"min_patterns_for_active"`
	ExpirationHours      float64 `yaml:"expiration_hours"`
	MaxConcurrent        int     `yaml:"max_concurrent"`
	MaxPortfolioHeatPct  float64 `yaml:"max_portfolio_heat_pct"`
}

// CampaignConfig holds per-timeframe campaign defaults.
type CampaignConfig struct {
	Intraday CampaignTimeframeDefaults `yaml:"intraday"`
	Daily    CampaignTimeframeDefaults `yaml:"daily"`
}

// ToTimeframeDefaults converts one YAML-loaded bucket into the
// campaign package's native TimeframeDefaults.
func (d CampaignTimeframeDefaults) ToTimeframeDefaults() campaign.TimeframeDefaults {
	return campaign.TimeframeDefaults{
		CampaignWindow:       time.Duration(d.CampaignWindowHours * float64(time.Hour)),
		MaxPatternGap:        time.Duration(d.MaxPatternGapHours * float64(time.Hour)),
		MinPatternsForActive: d.MinPatternsForActive,
		Expiration:           time.Duration(d.ExpirationHours * float64(time.Hour)),
		MaxConcurrent:        d.MaxConcurrent,
		MaxPortfolioHeatPct:  decimal.NewFromFloat(d.MaxPortfolioHeatPct),
	}
}

// DefaultCampaignConfig returns the spec.md 4.E defaults.
func DefaultCampaignConfig() CampaignConfig {
	return CampaignConfig{
		Intraday: CampaignTimeframeDefaults{
			CampaignWindowHours: 48, MaxPatternGapHours: 48, MinPatternsForActive: 2,
			ExpirationHours: 72, MaxConcurrent: 3, MaxPortfolioHeatPct: 10.0,
		},
		Daily: CampaignTimeframeDefaults{
			CampaignWindowHours: 240, MaxPatternGapHours: 120, MinPatternsForActive: 2,
			ExpirationHours: 360, MaxConcurrent: 5, MaxPortfolioHeatPct: 10.0,
		},
	}
}

// SupervisorConfig configures the analysis supervisor's admission
// control and registry (spec.md 4.F/6).
type SupervisorConfig struct {
	MaxEntries               int `yaml:"max_entries"`
	EntryTTLSeconds           int `yaml:"entry_ttl_seconds"`
	PreviewConcurrency        int `yaml:"preview_concurrency"`
	WalkForwardConcurrency    int `yaml:"walk_forward_concurrency"`
	RegressionConcurrency     int `yaml:"regression_concurrency"`
	DefaultLookbackBars       int `yaml:"default_lookback_bars"`
	MaxConcurrentSymbols      int `yaml:"max_concurrent_symbols"`
}

// DefaultSupervisorConfig returns the spec.md 6 defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MaxEntries: 1000, EntryTTLSeconds: 3600,
		PreviewConcurrency: 0, WalkForwardConcurrency: 3, RegressionConcurrency: 3,
		DefaultLookbackBars: 250, MaxConcurrentSymbols: 8,
	}
}

// RiskConfig configures portfolio sizing and heat limits (spec.md 6).
type RiskConfig struct {
	AccountEquity         float64 `yaml:"account_equity"`
	RiskPctPerTrade       float64 `yaml:"risk_pct_per_trade"`       // hard cap 2.0
	MaxPortfolioHeatPct   float64 `yaml:"max_portfolio_heat_pct"`   // default 10.0
	MaxCampaignRiskPct    float64 `yaml:"max_campaign_risk_pct"`    // default 5.0
	MaxCorrelatedRiskPct  float64 `yaml:"max_correlated_risk_pct"`  // default 6.0
}

// DefaultRiskConfig returns the spec.md 6 defaults.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		RiskPctPerTrade: 1.0, MaxPortfolioHeatPct: 10.0,
		MaxCampaignRiskPct: 5.0, MaxCorrelatedRiskPct: 6.0,
	}
}

// Config is the platform's top-level configuration.
type Config struct {
	Detection  DetectionConfig  `yaml:"detection"`
	Campaign   CampaignConfig   `yaml:"campaign"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Risk       RiskConfig       `yaml:"risk"`
}

// DefaultConfig returns the spec's documented defaults, used whenever a
// key is absent from the loaded YAML.
func DefaultConfig() Config {
	return Config{
		Detection: DetectionConfig{
			MinPhaseConfidence:   70,
			MinRangeQualityScore: 60,
		},
		Campaign:   DefaultCampaignConfig(),
		Supervisor: DefaultSupervisorConfig(),
		Risk:       DefaultRiskConfig(),
	}
}

// LoadConfig reads and parses the YAML configuration at path, starting
// from DefaultConfig so absent sections keep spec defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}
