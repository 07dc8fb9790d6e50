// Package exitcode maps command errors to process exit codes.
package exitcode

import (
	"protask/internal/config"
	"protask/internal/state"
)

const (
	Success = 0

	// UserError covers bad arguments, validation failures, unknown ids and a
	// destructive command run without --yes.
	UserError = 1

	// ConfigError indicates an unreadable config file or an invalid setting.
	ConfigError = 2

	// StorageError indicates the snapshot could not be read or written.
	StorageError = 3
)

func For(err error) int {
	switch {
	case err == nil:
		return Success
	case config.IsConfigError(err):
		return ConfigError
	case state.IsPersistence(err):
		return StorageError
	default:
		return UserError
	}
}
