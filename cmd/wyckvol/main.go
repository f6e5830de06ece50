// Command wyckvol is the CLI front end for the Wyckoff analysis
// platform: enqueueing full/walk-forward/regression runs against the
// Analysis Supervisor, inspecting run status and results, managing
// regression baselines, and starting the local health/metrics HTTP
// surface. Grounded in the teacher's cmd/cryptorun cobra root-command
// layout, one file per subcommand family.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wyckvol",
		Short: "Wyckoff methodology trading analysis platform",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (uses built-in defaults if omitted)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "directory of <symbol>.csv historical bar files")

	root.AddCommand(newServeCmd())
	root.AddCommand(newEnqueueCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newResultsCmd())
	root.AddCommand(newBaselineCmd())

	return root
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
