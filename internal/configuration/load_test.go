package configuration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/perftools/internal/common/perferrors"
)

const workloadYaml = `
workload_name: ycsb_wc
patches:
  6363c39d32f4175f3efb4b5e:
    Linux-3-Node-ReplSet:
      - ycsb_60GB
      - ycsb_60GB.long
genny_metrics:
  tests: [InsertRemove.Insert, InsertRemove.Remove]
  metrics: [AverageLatency, OperationThroughput]
storage_metrics:
  tests: [InsertRemove]
  metrics: [ss_opcounters_insert]
curator: /opt/curator
cedar_url: http://cedar.local
http:
  attempts: 5
  delay: 250ms
workers: 4
`

func writeFile(t *testing.T, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	config, err := Load(writeFile(t, "workload.yml", workloadYaml), nil)
	require.NoError(t, err)

	assert.Equal(t, "ycsb_wc", config.WorkloadName)
	assert.Equal(t, map[string]map[string][]string{
		"6363c39d32f4175f3efb4b5e": {
			"Linux-3-Node-ReplSet": {"ycsb_60GB", "ycsb_60GB.long"},
		},
	}, config.Patches)
	assert.Equal(t, []string{"InsertRemove.Insert", "InsertRemove.Remove"}, config.GennyMetrics.Tests)
	assert.Nil(t, config.TimingMetrics)

	assert.Equal(t, "http://cedar.local", config.CedarURL)
	assert.Equal(t, uint(5), config.HTTP.Attempts)
	assert.Equal(t, 250*time.Millisecond, config.HTTP.Delay)
	assert.Equal(t, 5*time.Minute, config.HTTP.Timeout)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, ".", config.OutputRoot)
	assert.Equal(t, "https://evergreen.mongodb.com/rest/v2", config.Evergreen.URL)
	assert.False(t, config.Differencing.GroupByActor)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PERFTOOLS_HTTP_ATTEMPTS", "7")
	t.Setenv("PERFTOOLS_WORKERS", "2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 1, "")
	flags.Bool("group-by-actor", false, "")
	flags.String("output-root", "", "")
	require.NoError(t, flags.Parse([]string{"--workers=9", "--group-by-actor"}))

	config, err := Load(writeFile(t, "workload.yml", workloadYaml), flags)
	require.NoError(t, err)

	assert.Equal(t, uint(7), config.HTTP.Attempts)
	assert.Equal(t, 9, config.Workers)
	assert.True(t, config.Differencing.GroupByActor)
	assert.Equal(t, ".", config.OutputRoot)
}

func TestLoadSettings_AutoWorkers(t *testing.T) {
	t.Setenv("PERFTOOLS_WORKERS", "auto")

	settings, err := LoadSettings("", nil)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), settings.Workers)
	assert.Equal(t, 5*time.Minute, settings.HTTP.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"no workload name": `
patches:
  p1:
    v1: [t1]
`,
		"no patches": `
workload_name: w
`,
		"variant without tasks": `
workload_name: w
patches:
  p1:
    v1: []
`,
		"metrics without tests": `
workload_name: w
patches:
  p1:
    v1: [t1]
genny_metrics:
  metrics: [AverageLatency]
`,
		"zero workers": `
workload_name: w
patches:
  p1:
    v1: [t1]
workers: 0
`,
		"bad cedar url": `
workload_name: w
patches:
  p1:
    v1: [t1]
cedar_url: not a url
`,
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "workload.yml", contents), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMissingSections(t *testing.T) {
	config := &Config{}
	tests := map[string]struct {
		get         func() error
		expectedKey string
	}{
		"genny": {
			get:         func() error { _, err := config.Genny(); return err },
			expectedKey: "genny_metrics",
		},
		"storage": {
			get:         func() error { _, err := config.Storage(); return err },
			expectedKey: "storage_metrics",
		},
		"timing": {
			get:         func() error { _, err := config.Timing(); return err },
			expectedKey: "timing_metrics",
		},
		"curator": {
			get:         func() error { _, err := config.CuratorPath(); return err },
			expectedKey: "curator",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.get()
			var e *perferrors.ErrMissingConfiguration
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tc.expectedKey, e.Key)
			assert.Equal(t, perferrors.ExitMissingConfiguration, perferrors.ExitCodeFromError(err))
		})
	}
}

func TestCredentials(t *testing.T) {
	credentials := writeFile(t, ".evergreen.yml", "user: jane.doe\napi_key: abc123\napi_server_host: https://evergreen.example.com/api\n")
	tests := map[string]struct {
		config         EvergreenConfig
		expectedUser   string
		expectedAPIKey string
		missingKey     string
	}{
		"from workload settings": {
			config:         EvergreenConfig{User: "john", APIKey: "xyz", CredentialsFile: "/does/not/exist"},
			expectedUser:   "john",
			expectedAPIKey: "xyz",
		},
		"from credentials file": {
			config:         EvergreenConfig{CredentialsFile: credentials},
			expectedUser:   "jane.doe",
			expectedAPIKey: "abc123",
		},
		"user from settings, key from file": {
			config:         EvergreenConfig{User: "john", CredentialsFile: credentials},
			expectedUser:   "john",
			expectedAPIKey: "abc123",
		},
		"unreadable credentials file": {
			config:     EvergreenConfig{CredentialsFile: filepath.Join(t.TempDir(), "missing.yml")},
			missingKey: "evergreen.user",
		},
		"incomplete credentials file": {
			config:     EvergreenConfig{CredentialsFile: writeFile(t, ".evergreen.yml", "user: jane.doe\n")},
			missingKey: "evergreen.api_key",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			user, apiKey, err := tc.config.Credentials()
			if tc.missingKey != "" {
				var e *perferrors.ErrMissingConfiguration
				require.True(t, errors.As(err, &e), "expected ErrMissingConfiguration, got %v", err)
				assert.Equal(t, tc.missingKey, e.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedUser, user)
			assert.Equal(t, tc.expectedAPIKey, apiKey)
		})
	}
}
