package commands

import (
	"errors"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// fail prints err to errOut and returns the matching exit code.
func fail(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrPersistence) {
		fmt.Fprintf(errOut, "error: storage error: %v\n", err)
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return exitcode.FromError(err)
}

// runOnTask resolves a task from --id or a positional task number and
// applies byID or byIndex to it. Shared by done and rm.
func runOnTask(cfg *config.Config, id string, args []string, out, errOut io.Writer,
	byIndex func(int) error, byID func(string) error) int {

	var (
		err error
		num int
	)

	if id != "" {
		if len(args) > 0 {
			fmt.Fprintln(errOut, "error: cannot use both --id and a task number")
			return exitcode.UserError
		}
		err = byID(id)
	} else {
		num, err = ParseTaskNumber(args)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		err = byIndex(num - 1)
	}

	if err != nil {
		if errors.Is(err, service.ErrSelection) {
			if id != "" {
				fmt.Fprintf(errOut, "error: task not found: %s\n", id)
			} else {
				fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
			}
			return exitcode.UserError
		}
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
