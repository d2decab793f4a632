package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"
)

const (
	logConfigPathEnvVar = "PERFTOOLS_LOG_CONFIG"
	RFC3339Milli        = "2006-01-02T15:04:05.000Z07:00"
	commandLineTime     = "15:04:05"
)

// ConfigureCommandLineLogging sets up logging suitable for the perftools CLI: human-readable output on stderr at
// the given level. If the PERFTOOLS_LOG_CONFIG environment variable names a logging config file, that file is used
// instead.
func ConfigureCommandLineLogging(level string) error {
	if path, ok := os.LookupEnv(logConfigPathEnvVar); ok {
		return ConfigureApplicationLogging(path)
	}
	zerologLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.WithStack(err)
	}
	writer := &FilteredLevelWriter{
		level: zerologLevel,
		writer: zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: commandLineTime,
			NoColor:    true,
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-5s", i))
			},
		},
	}
	ReplaceStdLogger(FromZerolog(zerolog.New(writer).With().Timestamp().Logger()))
	return nil
}

// ConfigureApplicationLogging sets up logging from the YAML logging config at configPath.
func ConfigureApplicationLogging(configPath string) error {
	// Set some global logging properties
	zerolog.TimeFieldFormat = RFC3339Milli // needs to be higher or greater precision than the writer format.
	zerolog.CallerMarshalFunc = shortCallerEncoder

	logConfig, err := readConfig(configPath)
	if err != nil {
		return err
	}

	var writers []io.Writer
	consoleLogger, err := createConsoleLogger(logConfig)
	if err != nil {
		return err
	}
	writers = append(writers, consoleLogger)

	if logConfig.File.Enabled {
		fileLogger, err := createFileLogger(logConfig)
		if err != nil {
			return err
		}
		writers = append(writers, fileLogger)
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).With().Timestamp().Logger()

	ReplaceStdLogger(FromZerolog(logger))
	return nil
}

func readConfig(configPath string) (Config, error) {
	yamlConfig, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read log config file %s", configPath)
	}

	var config Config
	err = yaml.Unmarshal(yamlConfig, &config)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to unmarshall log config file %s", configPath)
	}
	if err := validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func createFileLogger(logConfig Config) (*FilteredLevelWriter, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(logConfig.File.Level))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   logConfig.File.LogFile,
		MaxSize:    logConfig.File.Rotation.MaxSizeMb,
		MaxBackups: logConfig.File.Rotation.MaxBackups,
		MaxAge:     logConfig.File.Rotation.MaxAgeDays,
		Compress:   logConfig.File.Rotation.Compress,
	}

	if logConfig.File.Format == FormatText || logConfig.File.Format == FormatColourful {
		return createConsoleWriter(lumberjackLogger, level, logConfig.File.Format), nil
	}
	return createJsonWriter(lumberjackLogger, level), nil
}

func createConsoleLogger(logConfig Config) (*FilteredLevelWriter, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(logConfig.Console.Level))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if logConfig.Console.Format == FormatText || logConfig.Console.Format == FormatColourful {
		return createConsoleWriter(os.Stderr, level, logConfig.Console.Format), nil
	}
	return createJsonWriter(os.Stderr, level), nil
}

func createJsonWriter(out io.Writer, level zerolog.Level) *FilteredLevelWriter {
	return &FilteredLevelWriter{
		level:  level,
		writer: out,
	}
}

func createConsoleWriter(out io.Writer, level zerolog.Level, format LogFormat) *FilteredLevelWriter {
	return &FilteredLevelWriter{
		level: level,
		writer: zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: RFC3339Milli,
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%s", i))
			},
			FormatCaller: func(i interface{}) string {
				return filepath.Base(fmt.Sprintf("%s", i))
			},
			NoColor: format == FormatText,
		},
	}
}

// FilteredLevelWriter drops any event below level before it reaches the wrapped writer.
type FilteredLevelWriter struct {
	writer io.Writer
	level  zerolog.Level
}

func (w *FilteredLevelWriter) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

func (w *FilteredLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= w.level {
		return w.writer.Write(p)
	}
	return len(p), nil
}

func shortCallerEncoder(_ uintptr, file string, line int) string {
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
