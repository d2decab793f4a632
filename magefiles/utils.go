//go:build mage

package main

import (
	"fmt"
	"runtime"

	semver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

func binaryWithExt(name string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("%s.exe", name)
	}
	return name
}

func checkVersion(version func() (*semver.Version, error), constraintStr string) error {
	v, err := version()
	if err != nil {
		return errors.Errorf("error getting version: %v", err)
	}
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return errors.Errorf("error parsing constraint: %v", err)
	}
	if !constraint.Check(v) {
		return errors.Errorf("found version %v but it failed constraint %v", v, constraint)
	}
	return nil
}
