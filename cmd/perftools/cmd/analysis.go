package cmd

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/perftools"
	"github.com/armadaproject/perftools/internal/plotting"
)

// Compute the summary statistics of one or more metrics files.
func summarizeCmd(app *perftools.App) *cobra.Command {
	config := &perftools.SummarizeConfig{}
	cmd := &cobra.Command{
		Use:   "summarize FILE...",
		Short: "Print the summary statistics of genny metrics files, one row per file.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Files = args
			var err error
			if config.GroupByActor, err = groupByActor(cmd); err != nil {
				return err
			}
			return app.Summarize(config)
		},
	}
	cmd.Flags().BoolVar(&config.GroupByActor, "group-by-actor", false, "Difference the samples of each actor separately.")
	cmd.Flags().StringVarP(&config.Output, "output", "o", perftools.OutputCSV, "Output format: csv, yaml or json.")
	cmd.Flags().StringVar(&config.Textfile, "textfile", "", "Also write the statistics to this file in the Prometheus text format.")
	return cmd
}

// Plot the latency distribution of a metrics file over time.
func plotCmd(app *perftools.App) *cobra.Command {
	config := &perftools.PlotConfig{}
	var measure, transition string
	cmd := &cobra.Command{
		Use:   "plot FILE",
		Short: "Plot the median, quartiles and whiskers of latency per time interval.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			config.File = args[0]
			if config.GroupByActor, err = groupByActor(cmd); err != nil {
				return err
			}
			if config.Measure, err = plotting.ParseMeasure(measure); err != nil {
				return err
			}
			if transition != "" {
				t, err := time.Parse(time.RFC3339, transition)
				if err != nil {
					return errors.Wrapf(err, "invalid transition time %q", transition)
				}
				config.Transition = &t
			}
			return app.Plot(config)
		},
	}
	cmd.Flags().BoolVar(&config.GroupByActor, "group-by-actor", false, "Difference the samples of each actor separately.")
	cmd.Flags().DurationVar(&config.Interval, "interval", time.Second, "Width of each time bucket.")
	cmd.Flags().StringVar(&measure, "measure", plotting.PureLatencyMs.String(), "Latency to plot, e.g. pure_latency(ms) or total_latency.")
	cmd.Flags().StringVar(&transition, "transition", "", "RFC 3339 time to mark on the chart.")
	cmd.Flags().BoolVar(&config.Outliers, "outliers", false, "Also plot the minimum and maximum of each bucket.")
	cmd.Flags().StringVar(&config.Out, "out", "", "PNG file to write. Prints the bands as CSV if not set.")
	return cmd
}

// Plot moving averages and a fitted curve of latency against operations or time.
func trendCmd(app *perftools.App) *cobra.Command {
	config := &perftools.TrendConfig{}
	var axis, fit string
	cmd := &cobra.Command{
		Use:   "trend FILE",
		Short: "Plot moving averages of pure latency and optionally fit a line or log2 curve.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			config.File = args[0]
			if config.GroupByActor, err = groupByActor(cmd); err != nil {
				return err
			}
			if config.Axis, err = plotting.ParseTrendAxis(axis); err != nil {
				return err
			}
			if config.Fit, err = plotting.ParseFitKind(fit); err != nil {
				return err
			}
			return app.Trend(config)
		},
	}
	cmd.Flags().BoolVar(&config.GroupByActor, "group-by-actor", false, "Difference the samples of each actor separately.")
	cmd.Flags().StringVar(&axis, "axis", plotting.AxisTotalOps.String(), "X axis: total_ops or duration.")
	cmd.Flags().StringVar(&fit, "fit", plotting.FitNone.String(), "Curve to fit: none, linear or log2.")
	cmd.Flags().StringVar(&config.Out, "out", "", "PNG file to write. Prints the trend as CSV if not set.")
	return cmd
}

// groupByActor resolves the differencing mode from the flag or the PERFTOOLS_DIFFERENCING_GROUP_BY_ACTOR variable.
func groupByActor(cmd *cobra.Command) (bool, error) {
	settings, err := configuration.LoadSettings("", cmd.Flags())
	if err != nil {
		return false, err
	}
	return settings.Differencing.GroupByActor, nil
}
