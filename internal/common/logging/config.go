package logging

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type LogFormat string

const (
	FormatText      LogFormat = "text"
	FormatJSON      LogFormat = "json"
	FormatColourful LogFormat = "colourful"
)

var validLogFormats = map[LogFormat]bool{
	FormatText:      true,
	FormatJSON:      true,
	FormatColourful: true,
}

// Config defines perftools logging configuration.
type Config struct {
	// Defines configuration for console logging on stderr
	Console struct {
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text, colourful or json
		Format LogFormat `yaml:"format"`
	} `yaml:"console"`
	// Defines configuration for file logging
	File struct {
		// Whether file logging is enabled.
		Enabled bool `yaml:"enabled"`
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text, colourful or json
		Format LogFormat `yaml:"format"`
		// The Location of the logfile on disk
		LogFile string `yaml:"logfile"`
		// Log Rotation Options
		Rotation struct {
			// Whether Log Rotation is enabled
			Enabled bool `yaml:"enabled"`
			// Maximum size in megabytes of the log file before it gets rotated
			MaxSizeMb int `yaml:"maxSizeMb"`
			// Maximum number of old log files to retain
			MaxBackups int `yaml:"maxBackups"`
			// Maximum number of days to retain old log files
			MaxAgeDays int `yaml:"maxAgeDays"`
			// Whether to compress rotated log files
			Compress bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"file"`
}

func validate(c Config) error {
	if err := validateLogLevel(c.Console.Level); err != nil {
		return err
	}

	if err := validateLogFormat(c.Console.Format); err != nil {
		return err
	}

	if c.File.Enabled {
		if err := validateLogLevel(c.File.Level); err != nil {
			return err
		}

		if err := validateLogFormat(c.File.Format); err != nil {
			return err
		}

		if c.File.LogFile == "" {
			return errors.New("file.logfile must be set when file logging is enabled")
		}

		rotation := c.File.Rotation
		if rotation.Enabled {
			if rotation.MaxSizeMb <= 0 {
				return errors.New("rotation.maxSizeMb must be greater than zero")
			}
			if rotation.MaxBackups <= 0 {
				return errors.New("rotation.maxBackups must be greater than zero")
			}
			if rotation.MaxAgeDays <= 0 {
				return errors.New("rotation.maxAgeDays must be greater than zero")
			}
		}
	}

	return nil
}

func validateLogFormat(f LogFormat) error {
	if _, ok := validLogFormats[f]; !ok {
		formats := maps.Keys(validLogFormats)
		slices.Sort(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}

func validateLogLevel(level string) error {
	if level == "" {
		return errors.New("log level must be set")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(level)); err != nil {
		return errors.Errorf("unknown level: %s", level)
	}
	return nil
}
