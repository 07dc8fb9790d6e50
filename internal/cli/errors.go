package cli

import (
	"errors"

	"protask/internal/state"
)

type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by a command.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// confirmationRequiredError is returned by destructive commands run without --yes.
type confirmationRequiredError struct {
	c state.Confirmation
}

func (e confirmationRequiredError) Error() string {
	return e.c.Prompt + " Re-run with --yes to confirm."
}

func IsConfirmationRequired(err error) bool {
	var c confirmationRequiredError
	return errors.As(err, &c)
}
