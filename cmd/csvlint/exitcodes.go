package main

import "errors"

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK       = 0
	exitInternal = 1
	exitFindings = 2
	exitUsage    = 3
	exitRead     = 4
)

// errFindings signals that reports were printed and at least one crossed
// the --fail-on threshold.
var errFindings = errors.New("validation found problems")

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitInternal
}
