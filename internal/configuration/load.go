// Package configuration reads workload files.
//
// A workload file names the patches, build variants and tasks whose results are processed and
// the tests and metrics reported for them, e.g.
//
//	workload_name: ycsb_wc
//	patches:
//	  6363c39d32f4175f3efb4b5e:
//	    linux-3-node-replSet: [ycsb_60GB, ycsb_60GB.long]
//	genny_metrics:
//	  tests: [InsertRemove.Insert]
//	  metrics: [AverageLatency, OperationThroughput]
//	curator: ./curator
//	workers: 8
package configuration

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/common/perferrors"
)

const envPrefix = "PERFTOOLS"

// Command line flags that override settings, keyed by setting.
var flagBindings = map[string]string{
	"cedar_url":                   "cedar-url",
	"workers":                     "workers",
	"output_root":                 "output-root",
	"differencing.group_by_actor": "group-by-actor",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cedar_url", "https://cedar.mongodb.com")
	v.SetDefault("evergreen.url", "https://evergreen.mongodb.com/rest/v2")
	v.SetDefault("evergreen.user", "")
	v.SetDefault("evergreen.api_key", "")
	v.SetDefault("evergreen.credentials_file", "~/.evergreen.yml")
	v.SetDefault("http.timeout", 5*time.Minute)
	v.SetDefault("http.attempts", 3)
	v.SetDefault("http.delay", time.Second)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("output_root", ".")
	v.SetDefault("differencing.group_by_actor", false)
}

// Load reads and validates the workload file at path. Settings given in flags take precedence
// over environment variables, which take precedence over the file. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read workload file %s", path)
	}

	config := &Config{}
	// Workload keys are case sensitive (build variants, test names), so they are not read through viper.
	if err := yaml.Unmarshal(contents, &config.Workload); err != nil {
		return nil, errors.Wrapf(err, "failed to parse workload file %s", path)
	}

	settings, err := LoadSettings(path, flags)
	if err != nil {
		return nil, err
	}
	config.Settings = *settings

	if err := config.Validate(); err != nil {
		return nil, err
	}
	logging.
		WithField("file", path).
		Debugf("Loaded workload %s with %d patches", config.WorkloadName, len(config.Patches))
	return config, nil
}

// LoadSettings reads the tool settings from path (if not empty), the environment and flags.
func LoadSettings(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read settings from %s", path)
		}
	}
	if flags != nil {
		for key, name := range flagBindings {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, errors.WithStack(err)
				}
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings, customHooks...); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	return settings, nil
}

// Validate checks every field against its validation tags and logs each failure.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		LogValidationErrors(err)
		return errors.Wrap(err, "invalid workload configuration")
	}
	return nil
}

// LogValidationErrors logs one line per invalid field.
func LogValidationErrors(err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return
	}
	for _, e := range validationErrors {
		fieldName := stripPrefix(e.Namespace())
		switch e.Tag() {
		case "required":
			logging.Errorf("ConfigError: Field %s is required but was not found", fieldName)
		default:
			logging.Errorf("ConfigError: Field %s has invalid value %v: %s", fieldName, e.Value(), e.Tag())
		}
	}
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}

// Genny returns the genny_metrics section.
func (c *Config) Genny() (*TestsAndMetrics, error) {
	return section(c.GennyMetrics, "genny_metrics")
}

// Storage returns the storage_metrics section.
func (c *Config) Storage() (*TestsAndMetrics, error) {
	return section(c.StorageMetrics, "storage_metrics")
}

// Timing returns the timing_metrics section.
func (c *Config) Timing() (*TestsAndMetrics, error) {
	return section(c.TimingMetrics, "timing_metrics")
}

// CuratorPath returns the path to the curator binary.
func (c *Config) CuratorPath() (string, error) {
	if c.Curator == "" {
		return "", errors.WithStack(&perferrors.ErrMissingConfiguration{
			Key:     "curator",
			Message: "a path to the curator binary is needed to convert FTDC files",
		})
	}
	return c.Curator, nil
}

func section(s *TestsAndMetrics, key string) (*TestsAndMetrics, error) {
	if s == nil {
		return nil, errors.WithStack(&perferrors.ErrMissingConfiguration{
			Key:     key,
			Message: "the workload file has no " + key + " section",
		})
	}
	return s, nil
}

// Credentials returns the evergreen API user and key, read from the credentials file unless
// both are set in the workload settings.
func (e EvergreenConfig) Credentials() (user, apiKey string, err error) {
	user, apiKey = e.User, e.APIKey
	if user != "" && apiKey != "" {
		return user, apiKey, nil
	}
	if e.CredentialsFile == "" {
		return "", "", errors.WithStack(&perferrors.ErrMissingConfiguration{Key: "evergreen.user"})
	}
	path, err := homedir.Expand(e.CredentialsFile)
	if err != nil {
		return "", "", errors.WithStack(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return "", "", errors.WithStack(&perferrors.ErrMissingConfiguration{
			Key:     "evergreen.user",
			Message: "no credentials in the workload file and " + path + " could not be read: " + err.Error(),
		})
	}
	if user == "" {
		user = v.GetString("user")
	}
	if apiKey == "" {
		apiKey = v.GetString("api_key")
	}
	if user == "" {
		return "", "", errors.WithStack(&perferrors.ErrMissingConfiguration{Key: "evergreen.user", Message: "not set in " + path})
	}
	if apiKey == "" {
		return "", "", errors.WithStack(&perferrors.ErrMissingConfiguration{Key: "evergreen.api_key", Message: "not set in " + path})
	}
	return user, apiKey, nil
}
