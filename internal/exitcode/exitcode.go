// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"todo/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, empty title, bad task number, bad date).
	UserError = 1

	// ConfigError indicates an unreadable or invalid config.yaml.
	ConfigError = 2

	// StorageError indicates the task file could not be read or written.
	StorageError = 3
)

// FromError maps a task store error to an exit code.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSelection),
		errors.Is(err, service.ErrFormat):
		return UserError
	default:
		return StorageError
	}
}
