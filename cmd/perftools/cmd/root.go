package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/perftools"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "perftools",
		Short: "perftools summarizes, plots and collects the results of performance tests.",
		Long: `perftools summarizes, plots and collects the results of performance tests.

The summarize, plot and trend commands work on genny metrics files converted to JSON.
All other commands take a workload file selecting the evergreen patches, build variants and
tasks to process, e.g.

workload_name: ycsb_wc
patches:
  6363c39d32f4175f3efb4b5e:
    linux-3-node-replSet: [ycsb_60GB]
genny_metrics:
  tests: [InsertRemove.Insert]
  metrics: [AverageLatency, OperationThroughput]
curator: ./curator

Settings such as cedar_url, workers or http.attempts can also be given in the workload file
or as PERFTOOLS_* environment variables, e.g. PERFTOOLS_HTTP_ATTEMPTS=5.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.ConfigureCommandLineLogging(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level, e.g. debug, info or warn.")

	cmd.AddCommand(
		versionCmd(perftools.New()),
		summarizeCmd(perftools.New()),
		plotCmd(perftools.New()),
		trendCmd(perftools.New()),
	)
	cmd.AddCommand(workloadCmds(perftools.New())...)

	return cmd
}

// Print version info and exit.
func versionCmd(app *perftools.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}

// contextWithSignals returns a context that is cancelled on SIGINT/SIGTERM,
// so that downloads and conversions are stopped on ctrl-C.
func contextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(stopSignal)
		select {
		case <-ctx.Done():
			return
		case <-stopSignal:
			logging.Warn("Interrupted, stopping")
			cancel()
		}
	}()
	return ctx, cancel
}
