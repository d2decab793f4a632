//go:build mage

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/pkg/errors"
)

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"git", gitCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Removes build and test output.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "dist", "test_reports"} {
		os.RemoveAll(path)
	}
}

// Builds the perftools binary into ./bin with version information stamped in.
func Build() error {
	mg.Deps(goCheck, makeLocalBin)
	timeTaken := time.Now()
	flags, err := ldflags()
	if err != nil {
		return err
	}
	output := binaryWithExt("bin/perftools")
	if err := goRun("build", "-ldflags", flags, "-o", output, "./cmd/perftools"); err != nil {
		return err
	}
	fmt.Printf("Built %s in %s\n", output, time.Since(timeTaken))
	return nil
}

// Runs the linters and the unit tests.
func CI() {
	mg.SerialDeps(CheckLint, Tests)
}
