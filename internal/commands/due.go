package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&DueCmd{})
}

// DueCmd implements the due command.
// The staged date is attached to the next add in the same process and is
// never written to the task file, so it is mostly useful inside `todo shell`.
type DueCmd struct {
	clear bool
}

// SetClear sets the --clear flag (for testing).
func (c *DueCmd) SetClear(v bool) {
	c.clear = v
}

func (c *DueCmd) Name() string      { return "due" }
func (c *DueCmd) Aliases() []string { return nil }
func (c *DueCmd) Synopsis() string  { return "Stage a due date for the next add" }
func (c *DueCmd) Usage() string     { return "todo due [--clear] [<YYYY-MM-DD>]" }
func (c *DueCmd) NeedsStore() bool  { return true }

func (c *DueCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.clear, "clear", false, "")
}

func (c *DueCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	switch {
	case c.clear:
		if len(args) > 0 {
			fmt.Fprintln(errOut, "error: cannot use both --clear and a date")
			return exitcode.UserError
		}
		svc.ClearPendingDueDate()

	case len(args) == 0:
		// Show the staged date
		if d, ok := svc.PendingDueDate(); ok {
			fmt.Fprintln(out, d.String())
		} else if !cfg.Quiet {
			fmt.Fprintln(out, "no pending due date")
		}
		return exitcode.Success

	case len(args) > 1:
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError

	default:
		if err := svc.SetPendingDueDate(args[0]); err != nil {
			return fail(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
