package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

func newStatusCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show a run's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			run, ok := a.supervisor.GetStatus(supervisor.RunKind(kind), args[0])
			if !ok {
				return fmt.Errorf("run %s not found for kind %s", args[0], kind)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(supervisor.KindFull), "run kind: FULL, WALK_FORWARD, REGRESSION")
	return cmd
}
