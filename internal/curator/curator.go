// Package curator converts FTDC files to JSON or CSV with the curator binary.
package curator

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/logging"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", errors.Errorf("unknown ftdc export format %q, expected json or csv", s)
	}
}

// Converter runs "curator ftdc export".
type Converter struct {
	binary string
}

func NewConverter(binary string) *Converter {
	return &Converter{binary: binary}
}

// OutputPath is the file the export of ftdcPath is written to.
func OutputPath(ftdcPath string, format Format) string {
	return ftdcPath + "." + string(format)
}

// Convert exports ftdcPath to OutputPath(ftdcPath, format) and returns that path.
// Nothing is done if the output already exists. A failed export leaves no output behind.
func (c *Converter) Convert(ctx context.Context, ftdcPath string, format Format) (string, error) {
	outputPath := OutputPath(ftdcPath, format)
	log := logging.WithFields(map[string]any{"input": ftdcPath, "output": outputPath})
	if _, err := os.Stat(outputPath); err == nil {
		log.Info("Skipping conversion as the output already exists")
		return outputPath, nil
	}

	log.Infof("Converting FTDC to %s", format)
	out, err := os.Create(outputPath)
	if err != nil {
		return "", errors.WithStack(err)
	}
	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, c.binary, "ftdc", "export", string(format), "--input", ftdcPath)
	cmd.Stdout = out
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	closeErr := out.Close()
	if runErr != nil || closeErr != nil {
		os.Remove(outputPath)
		if runErr != nil {
			return "", errors.Wrapf(runErr, "%s ftdc export failed: %s", c.binary, strings.TrimSpace(stderr.String()))
		}
		return "", errors.WithStack(closeErr)
	}
	return outputPath, nil
}
