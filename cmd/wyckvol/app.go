package main

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	backtestwyckoff "github.com/jthadison/wyckvol/internal/backtest/wyckoff"
	"github.com/jthadison/wyckvol/internal/config"
	"github.com/jthadison/wyckvol/internal/infrastructure/db"
	"github.com/jthadison/wyckvol/internal/infrastructure/providers"
	"github.com/jthadison/wyckvol/internal/marketdata"
	"github.com/jthadison/wyckvol/internal/metrics"
	"github.com/jthadison/wyckvol/internal/progress"
	"github.com/jthadison/wyckvol/internal/supervisor"
	"github.com/jthadison/wyckvol/internal/wyckoff/campaign"
	"github.com/jthadison/wyckvol/internal/wyckoff/orchestrator"
)

// app bundles the collaborators every subcommand needs: the
// supervisor (admission + registries), its progress sink, and the
// metrics collector for the serve command.
type app struct {
	cfg        *config.Config
	supervisor *supervisor.Supervisor
	snapshots  *progress.SnapshotStore
	collector  *metrics.Collector
	dbManager  *db.Manager
}

// dataDir is where the CSV market-data provider looks for
// "<symbol>.csv" files (see internal/marketdata.CSVProvider).
var dataDir string

func newApp() (*app, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	dir := dataDir
	if dir == "" {
		dir = "."
	}
	csvProvider := marketdata.NewCSVProvider(dir)
	cbConfig := providers.CircuitBreakerConfig{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
	rateLimited := marketdata.NewRateLimitedProvider("csv-local", csvProvider, 10, 20, cbConfig)
	provider := marketdata.NewFallbackChain(marketdata.Source{Name: "csv-local", Provider: rateLimited})

	campaignStore := campaign.NewStore()
	campaignDetector := campaign.NewDetector(campaignStore, cfg.Campaign.Daily.ToTimeframeDefaults())
	campaignDetector.AccountEquity = decimal.NewFromFloat(cfg.Risk.AccountEquity)
	campaignDetector.RiskPctPerTrade = decimal.NewFromFloat(cfg.Risk.RiskPctPerTrade)

	newOrchestrator := func() *orchestrator.Orchestrator {
		return orchestrator.NewOrchestrator(campaignDetector)
	}
	engine := backtestwyckoff.NewEngine(provider, newOrchestrator)

	snapshots := progress.NewSnapshotStore()
	sup := supervisor.NewSupervisor(engine, snapshots)

	dbCfg := db.DefaultConfig()
	dbCfg.DSN = os.Getenv("WYCKVOL_PG_DSN")
	dbCfg.Enabled = dbCfg.DSN != ""
	dbManager, err := db.NewManager(dbCfg)
	if err != nil {
		return nil, err
	}
	if dbManager.IsEnabled() {
		sup = sup.WithRepository(dbManager.Repository())
		log.Info().Msg("persistence enabled via WYCKVOL_PG_DSN")
	}

	return &app{
		cfg:        &cfg,
		supervisor: sup,
		snapshots:  snapshots,
		collector:  metrics.NewCollector(),
		dbManager:  dbManager,
	}, nil
}
