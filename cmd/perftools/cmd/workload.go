package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/curator"
	"github.com/armadaproject/perftools/internal/perftools"
)

type workloadCommand struct {
	use   string
	short string
	run   func(app *perftools.App, ctx context.Context) error
}

var workloadCommands = []workloadCommand{
	{
		use:   "genny-stats",
		short: "Output genny summary statistics as CSV.",
		run:   (*perftools.App).GennyStats,
	},
	{
		use:   "storage-stats",
		short: "Output storage statistics as CSV.",
		run:   (*perftools.App).StorageStats,
	},
	{
		use:   "timing-stats",
		short: "Output timing statistics as CSV.",
		run:   (*perftools.App).TimingStats,
	},
	{
		use:   "fetch-ftdc",
		short: "Download the FTDC files of genny test executions.",
		run:   (*perftools.App).FetchFTDC,
	},
	{
		use:   "fetch-artifacts",
		short: "Download and unpack the DSI artifacts of successful genny or YCSB test executions.",
		run:   (*perftools.App).FetchArtifacts,
	},
	{
		use:   "ftdc-to-json",
		short: "Convert downloaded FTDC files to JSON files.",
		run: func(app *perftools.App, ctx context.Context) error {
			return app.ConvertFTDC(ctx, curator.FormatJSON)
		},
	},
	{
		use:   "ftdc-to-csv",
		short: "Convert downloaded FTDC files to CSV files.",
		run: func(app *perftools.App, ctx context.Context) error {
			return app.ConvertFTDC(ctx, curator.FormatCSV)
		},
	},
	{
		use:   "update-ycsb-summary-stats",
		short: "Write perf_data.csv, the summary statistics of the YCSB logs, for each execution that does not have one.",
		run: func(app *perftools.App, ctx context.Context) error {
			return app.UpdateYCSBSummaryStats(ctx, false)
		},
	},
	{
		use:   "update-all-ycsb-summary-stats",
		short: "Rewrite perf_data.csv with the summary statistics of the YCSB logs for every execution.",
		run: func(app *perftools.App, ctx context.Context) error {
			return app.UpdateYCSBSummaryStats(ctx, true)
		},
	},
	{
		use:   "ycsb-stats",
		short: "Output the contents of all perf_data.csv files.",
		run:   (*perftools.App).YCSBStats,
	},
	{
		use:   "update-ycsb-wc-stats",
		short: "Write wc_data.csv, the write conflict counts of the mongod logs, for each execution that does not have one.",
		run: func(app *perftools.App, ctx context.Context) error {
			return app.UpdateYCSBWCStats(ctx, false)
		},
	},
	{
		use:   "update-all-ycsb-wc-stats",
		short: "Rewrite wc_data.csv with the write conflict counts of the mongod logs for every execution.",
		run: func(app *perftools.App, ctx context.Context) error {
			return app.UpdateYCSBWCStats(ctx, true)
		},
	},
	{
		use:   "ycsb-wc-stats",
		short: "Output the contents of all wc_data.csv files.",
		run:   (*perftools.App).YCSBWCStats,
	},
}

// workloadCmds returns one command per workload operation. Each takes the workload file as its only
// argument and is also available under its snake_case name, e.g. genny_stats.
func workloadCmds(app *perftools.App) []*cobra.Command {
	cmds := make([]*cobra.Command, len(workloadCommands))
	for i, wc := range workloadCommands {
		wc := wc
		cmd := &cobra.Command{
			Use:     wc.use + " WORKLOAD_FILE",
			Aliases: []string{strings.ReplaceAll(wc.use, "-", "_")},
			Short:   wc.short,
			Args:    cobra.ExactArgs(1),
			PreRunE: func(cmd *cobra.Command, args []string) error {
				return initParams(cmd, args, app)
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := contextWithSignals(cmd.Context())
				defer cancel()
				return wc.run(app, ctx)
			},
		}
		addSettingsFlags(cmd)
		cmds[i] = cmd
	}
	return cmds
}

// addSettingsFlags adds the flags overriding settings of the workload file.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().String("cedar-url", "", "Base URL of the cedar service.")
	cmd.Flags().Int("workers", 0, "Maximum number of concurrent downloads or conversions.")
	cmd.Flags().String("output-root", "", "Directory under which results are stored.")
}

func initParams(cmd *cobra.Command, args []string, app *perftools.App) error {
	config, err := configuration.Load(args[0], cmd.Flags())
	if err != nil {
		return err
	}
	app.Params.Workload = config
	return nil
}
