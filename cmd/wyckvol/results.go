package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

func newResultsCmd() *cobra.Command {
	var kind string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recent run results for a given kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			runs := a.supervisor.ListResults(supervisor.RunKind(kind), limit, offset)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(supervisor.KindFull), "run kind: FULL, WALK_FORWARD, REGRESSION")
	cmd.Flags().IntVar(&limit, "limit", 20, "max results to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}
