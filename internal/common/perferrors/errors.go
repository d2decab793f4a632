// Package perferrors contains the errors returned by the perftools pipeline.
// Commands look for the error types defined in this file to decide on the exit code
// and on whether the failure is limited to a single test run.
//
// If several runs fail within one command, the command should return an error of type
// multierror.Error from package github.com/hashicorp/go-multierror that encapsulates
// those individual errors.
package perferrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedInput is returned when a metrics record fails schema validation.
// The whole load is aborted; no partial table is ever returned alongside this error.
type ErrMalformedInput struct {
	// File or stream the record was read from
	Source string
	// 1-based line number of the offending record
	Line int
	// Name of the missing or invalid field, if known
	Field string
	// Optional message included with the error message
	Message string
	// Underlying decoding error, if any
	Cause error
}

func (err *ErrMalformedInput) Error() (s string) {
	if err.Field != "" {
		s = fmt.Sprintf("malformed record at %s:%d: field %q", err.Source, err.Line, err.Field)
	} else {
		s = fmt.Sprintf("malformed record at %s:%d", err.Source, err.Line)
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	if err.Cause != nil {
		s = s + fmt.Sprintf("; %s", err.Cause)
	}
	return
}

func (err *ErrMalformedInput) Unwrap() error {
	return err.Cause
}

// ErrComputation is returned when a statistic is undefined for the given input,
// e.g., a run with a zero duration, an empty table or an all-zero denominator.
type ErrComputation struct {
	Statistic string // Name of the statistic, e.g., "OperationThroughput"
	Message   string // Why the statistic is undefined
}

func (err *ErrComputation) Error() string {
	if err.Statistic == "" {
		return fmt.Sprintf("computation failed: %s", err.Message)
	}
	return fmt.Sprintf("cannot compute %s: %s", err.Statistic, err.Message)
}

// ErrMissingConfiguration is returned when a setting required by a command is absent.
type ErrMissingConfiguration struct {
	Key     string // Config key, e.g., "genny_metrics"
	Message string // An optional message, e.g., explaining which command needs the key
}

func (err *ErrMissingConfiguration) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("missing configuration %q", err.Key)
	}
	return fmt.Sprintf("missing configuration %q; %s", err.Key, err.Message)
}

// Exit codes used by the perftools command line.
const (
	ExitOK                   = 0
	ExitUnknown              = 1
	ExitMissingConfiguration = 2
	ExitMalformedInput       = 3
	ExitComputation          = 4
)

// ExitCodeFromError maps error types to process exit codes.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitOK
	}
	{
		var e *ErrMissingConfiguration
		if errors.As(err, &e) {
			return ExitMissingConfiguration
		}
	}
	{
		var e *ErrMalformedInput
		if errors.As(err, &e) {
			return ExitMalformedInput
		}
	}
	{
		var e *ErrComputation
		if errors.As(err, &e) {
			return ExitComputation
		}
	}
	return ExitUnknown
}
