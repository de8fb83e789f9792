package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct {
	filter string
	search string
}

// SetFilter sets the --filter flag (for testing).
func (c *ListCmd) SetFilter(filter string) {
	c.filter = filter
}

// SetSearch sets the --search flag (for testing).
func (c *ListCmd) SetSearch(search string) {
	c.search = search
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todo list [--filter all|completed|incomplete] [--search <text>]"
}
func (c *ListCmd) NeedsStore() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	registerListingFlags(fs, &c.filter, &c.search)
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	filter, err := service.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	output.NewPrinter(out).Tasks(svc.List(filter, c.search), cfg.Quiet)
	return exitcode.Success
}

// registerListingFlags registers the flags shared by list, export and watch.
func registerListingFlags(fs *flag.FlagSet, filter, search *string) {
	fs.StringVar(filter, "filter", "all", "")
	fs.StringVar(filter, "f", "all", "")
	fs.StringVar(search, "search", "", "")
	fs.StringVar(search, "s", "", "")
}
