package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

const dateLayout = "2006-01-02"

// waitForRun polls the supervisor until runID reaches a terminal
// status and prints its result as JSON. The CLI process has no
// long-running daemon behind it, so enqueue commands must wait out
// the background goroutine themselves rather than exiting immediately.
func waitForRun(cmd *cobra.Command, a *app, kind supervisor.RunKind, runID string) error {
	for {
		run, ok := a.supervisor.GetStatus(kind, runID)
		if !ok {
			return fmt.Errorf("run %s vanished from the registry", runID)
		}
		if run.Status.Terminal() {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue a background analysis run",
	}
	cmd.AddCommand(newEnqueueFullCmd())
	cmd.AddCommand(newEnqueueWalkForwardCmd())
	cmd.AddCommand(newEnqueueRegressionCmd())
	return cmd
}

func parseSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func newEnqueueFullCmd() *cobra.Command {
	var symbols, start, end string
	var capital float64

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Enqueue a FULL backtest run",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			startT, err := time.Parse(dateLayout, start)
			if err != nil {
				return err
			}
			endT, err := time.Parse(dateLayout, end)
			if err != nil {
				return err
			}
			cfg := supervisor.FullConfig{
				Symbols:        parseSymbols(symbols),
				Start:          startT,
				End:            endT,
				Timeframe:      "1d",
				InitialCapital: decimal.NewFromFloat(capital),
			}
			runID, err := a.supervisor.EnqueueFull(context.Background(), cfg)
			if err != nil {
				return err
			}
			return waitForRun(cmd, a, supervisor.KindFull, runID)
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma-separated symbol list (required)")
	cmd.Flags().StringVar(&start, "start", "", "window start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "window end, YYYY-MM-DD (required)")
	cmd.Flags().Float64Var(&capital, "capital", 100000, "initial capital")
	cmd.MarkFlagRequired("symbols")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newEnqueueWalkForwardCmd() *cobra.Command {
	var symbols, start, end string
	var trainMonths, validateMonths int
	var degradationRatio float64

	cmd := &cobra.Command{
		Use:   "walk-forward",
		Short: "Enqueue a walk-forward validation run",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			startT, err := time.Parse(dateLayout, start)
			if err != nil {
				return err
			}
			endT, err := time.Parse(dateLayout, end)
			if err != nil {
				return err
			}
			cfg := supervisor.WalkForwardConfig{
				Symbols:          parseSymbols(symbols),
				Start:            startT,
				End:              endT,
				TrainWindow:      time.Duration(trainMonths) * 30 * 24 * time.Hour,
				ValidateWindow:   time.Duration(validateMonths) * 30 * 24 * time.Hour,
				DegradationRatio: decimal.NewFromFloat(degradationRatio),
			}
			runID, err := a.supervisor.EnqueueWalkForward(context.Background(), cfg)
			if err != nil {
				return err
			}
			return waitForRun(cmd, a, supervisor.KindWalkForward, runID)
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma-separated symbol list (required)")
	cmd.Flags().StringVar(&start, "start", "", "window start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "window end, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&trainMonths, "train-months", 6, "train window, months")
	cmd.Flags().IntVar(&validateMonths, "validate-months", 3, "validate window, months")
	cmd.Flags().Float64Var(&degradationRatio, "degradation-ratio", 0.80, "validate/train ratio below which a window is flagged degraded")
	cmd.MarkFlagRequired("symbols")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newEnqueueRegressionCmd() *cobra.Command {
	var symbols, start, end string

	cmd := &cobra.Command{
		Use:   "regression",
		Short: "Enqueue a regression test run against the current baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			startT, err := time.Parse(dateLayout, start)
			if err != nil {
				return err
			}
			endT, err := time.Parse(dateLayout, end)
			if err != nil {
				return err
			}
			cfg := supervisor.RegressionConfig{
				Symbols: parseSymbols(symbols),
				Start:   startT,
				End:     endT,
			}
			runID, err := a.supervisor.EnqueueRegression(context.Background(), cfg)
			if err != nil {
				return err
			}
			return waitForRun(cmd, a, supervisor.KindRegression, runID)
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma-separated symbol list (required)")
	cmd.Flags().StringVar(&start, "start", "", "window start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "window end, YYYY-MM-DD (required)")
	cmd.MarkFlagRequired("symbols")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}
