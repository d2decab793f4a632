//go:build mage

package main

import (
	"fmt"
	"strings"
	"time"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const (
	GO_VERSION_CONSTRAINT = ">= 1.22.0"
	buildPackage          = "github.com/armadaproject/perftools/internal/perftools/build"
)

func goBinary() string {
	return binaryWithExt("go")
}

func goOutput(args ...string) (string, error) {
	return sh.Output(goBinary(), args...)
}

func goRun(args ...string) error {
	return sh.RunV(goBinary(), args...)
}

func goVersion() (*semver.Version, error) {
	output, err := goOutput("version")
	if err != nil {
		return nil, errors.Errorf("error running version cmd: %v", err)
	}
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return nil, errors.Errorf("unexpected version cmd output: %s", output)
	}
	version, err := semver.NewVersion(strings.TrimPrefix(fields[2], "go"))
	if err != nil {
		return nil, errors.Errorf("error parsing version: %v", err)
	}
	return version, nil
}

func goCheck() error {
	return checkVersion(goVersion, GO_VERSION_CONSTRAINT)
}

func gitCheck() error {
	_, err := sh.Output("git", "--version")
	return err
}

// ldflags stamps release and commit information into the build package.
func ldflags() (string, error) {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", errors.Errorf("error getting commit: %v", err)
	}
	release, err := sh.Output("git", "describe", "--tags", "--always")
	if err != nil {
		return "", errors.Errorf("error getting release: %v", err)
	}
	vars := map[string]string{
		"ReleaseVersion": release,
		"GitCommit":      commit,
		"BuildTime":      time.Now().UTC().Format(time.RFC3339),
	}
	flags := []string{"-s", "-w"}
	for _, name := range []string{"ReleaseVersion", "GitCommit", "BuildTime"} {
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", buildPackage, name, vars[name]))
	}
	return strings.Join(flags, " "), nil
}
