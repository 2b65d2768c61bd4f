package main

import "errors"

// cliError carries the process exit code for an error returned by a command.
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
	exitOK         = 0
	exitError      = 1 // usage, configuration and I/O failures
	exitValidation = 2 // validation or enrichment reported errors
	exitDeclined   = 3 // the import was not confirmed
)

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
	return exitError
}
