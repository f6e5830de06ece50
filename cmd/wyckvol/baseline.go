package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

func newBaselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage regression baselines",
	}
	cmd.AddCommand(newBaselineEstablishCmd())
	cmd.AddCommand(newBaselineListCmd())
	cmd.AddCommand(newBaselineCurrentCmd())
	return cmd
}

func newBaselineEstablishCmd() *cobra.Command {
	var codebaseVersion string

	cmd := &cobra.Command{
		Use:   "establish <regression-run-id>",
		Short: "Establish a new current baseline from a PASSing regression run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			run, ok := a.supervisor.GetStatus(supervisor.KindRegression, args[0])
			if !ok {
				return fmt.Errorf("regression run %s not found", args[0])
			}
			result, ok := run.Result.(supervisor.RegressionResult)
			if !ok {
				return fmt.Errorf("regression run %s has no result yet", args[0])
			}
			aggregate := make(map[string]decimal.Decimal, len(result.Metrics))
			for _, m := range result.Metrics {
				aggregate[m.Name] = m.CurrentValue
			}
			baseline, err := a.supervisor.EstablishBaseline(args[0], codebaseVersion, aggregate, nil, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(baseline)
		},
	}
	cmd.Flags().StringVar(&codebaseVersion, "codebase-version", "dev", "version tag recorded on the baseline")
	return cmd
}

func newBaselineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List established baselines, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.supervisor.ListBaselineHistory())
		},
	}
}

func newBaselineCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			baseline, ok := a.supervisor.GetCurrentBaseline()
			if !ok {
				return fmt.Errorf("no baseline has been established")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(baseline)
		},
	}
}
