// Package perftools implements the perftools commands. Each exported method of App is one command;
// output meant for the user is written to App.Out and everything else is logged.
package perftools

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/armadaproject/perftools/internal/cedar"
	"github.com/armadaproject/perftools/internal/common/fetch"
	"github.com/armadaproject/perftools/internal/configuration"
	"github.com/armadaproject/perftools/internal/csvtable"
	"github.com/armadaproject/perftools/internal/evergreen"
	"github.com/armadaproject/perftools/internal/perftools/build"
	"github.com/armadaproject/perftools/internal/workload"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
}

// Params holds the parameters shared by several commands.
type Params struct {
	// Workload file of the workload commands, loaded before the command runs.
	Workload *configuration.Config
}

// New instantiates an App with default parameters, writing to standard output.
func New() *App {
	return &App{
		Params: &Params{},
		Out:    os.Stdout,
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// driver returns a workload driver talking to the services configured in the workload file.
func (a *App) driver() (*workload.Driver, error) {
	config := a.Params.Workload
	user, apiKey, err := config.Evergreen.Credentials()
	if err != nil {
		return nil, err
	}
	options := fetch.Options(config.HTTP)
	return workload.NewDriver(
		config,
		evergreen.NewClient(config.Evergreen.URL, user, apiKey, options),
		cedar.NewClient(config.CedarURL, options),
		fetch.NewClient(options, nil),
	), nil
}

// writeTable prints table, including its header, then returns err. A partial table is printed
// along with the error describing what is missing from it.
func (a *App) writeTable(table *csvtable.Table, err error) error {
	if table != nil {
		if writeErr := table.Write(a.Out, true); writeErr != nil {
			return writeErr
		}
	}
	return err
}
