package configuration

import (
	"time"
)

// Config is everything read from a workload file: which patches, tasks and tests to process,
// plus the settings of the tool itself.
type Config struct {
	Workload
	Settings
}

// Workload selects the test results to process.
type Workload struct {
	// Name of the workload; the top-level output directory.
	WorkloadName string `json:"workload_name" validate:"required"`
	// Patch (version) id to build variant to task display names.
	Patches map[string]map[string][]string `json:"patches" validate:"required,min=1,dive,min=1,dive,min=1"`
	// Tests and rollup metrics reported by genny-stats.
	GennyMetrics *TestsAndMetrics `json:"genny_metrics,omitempty"`
	// Tests and rollup metrics reported by storage-stats.
	StorageMetrics *TestsAndMetrics `json:"storage_metrics,omitempty"`
	// Tests and rollup metrics reported by timing-stats.
	TimingMetrics *TestsAndMetrics `json:"timing_metrics,omitempty"`
	// Path to the curator binary used to convert FTDC files.
	Curator string `json:"curator,omitempty"`
}

type TestsAndMetrics struct {
	Tests   []string `json:"tests" validate:"required,min=1"`
	Metrics []string `json:"metrics" validate:"required"`
}

// Settings configure the tool. They can be set in the workload file, through PERFTOOLS_*
// environment variables (e.g. PERFTOOLS_HTTP_ATTEMPTS) or on the command line.
type Settings struct {
	// Base URL of the perf results service.
	CedarURL  string          `mapstructure:"cedar_url" validate:"required,url"`
	Evergreen EvergreenConfig `mapstructure:"evergreen"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	// Maximum number of concurrent downloads or conversions.
	Workers int `mapstructure:"workers" validate:"gte=1"`
	// Directory under which the workload output tree is created.
	OutputRoot   string             `mapstructure:"output_root"`
	Differencing DifferencingConfig `mapstructure:"differencing"`
}

type EvergreenConfig struct {
	// Base URL of the evergreen REST v2 API.
	URL string `mapstructure:"url" validate:"required,url"`
	// API credentials. If unset, they are read from CredentialsFile.
	User   string `mapstructure:"user"`
	APIKey string `mapstructure:"api_key"`
	// Evergreen CLI settings file holding user and api_key.
	CredentialsFile string `mapstructure:"credentials_file"`
}

type HTTPConfig struct {
	// Timeout of a single request.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Number of attempts made for each request, including the first.
	Attempts uint `mapstructure:"attempts" validate:"gte=1"`
	// Delay before the first retry; later retries back off exponentially.
	Delay time.Duration `mapstructure:"delay" validate:"gte=0"`
}

type DifferencingConfig struct {
	// Difference samples per actor rather than in file order.
	GroupByActor bool `mapstructure:"group_by_actor"`
}
