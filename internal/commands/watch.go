package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

// watchDebounce collapses the burst of events an atomic save produces.
const watchDebounce = 100 * time.Millisecond

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command.
// It prints the listing, then reloads and reprints it every time the task
// file changes on disk, until interrupted.
type WatchCmd struct {
	filter string
	search string
}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Reprint tasks whenever the task file changes" }
func (c *WatchCmd) Usage() string {
	return "todo watch [--filter all|completed|incomplete] [--search <text>]"
}
func (c *WatchCmd) NeedsStore() bool { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {
	registerListingFlags(fs, &c.filter, &c.search)
}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	filter, err := service.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	path, err := filepath.Abs(cfg.StoragePath())
	if err != nil {
		fmt.Fprintf(errOut, "error: storage error: %v\n", err)
		return exitcode.StorageError
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(errOut, "error: storage error: watch %s: %v\n", path, err)
		return exitcode.StorageError
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		fmt.Fprintf(errOut, "error: storage error: watch %s: %v\n", path, err)
		return exitcode.StorageError
	}

	printer := output.NewPrinter(out)
	printer.Tasks(svc.List(filter, c.search), cfg.Quiet)

	debounce := time.NewTimer(0)
	<-debounce.C
	pending := false

	for {
		select {
		case <-ctx.Done():
			return exitcode.Success

		case event, ok := <-watcher.Events:
			if !ok {
				return exitcode.Success
			}
			if !isStorageEvent(event, path) {
				continue
			}
			pending = true
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if err := svc.Load(); err != nil {
				cfg.Logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
				fmt.Fprintf(errOut, "error: storage error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "----")
			printer.Tasks(svc.List(filter, c.search), cfg.Quiet)

		case err, ok := <-watcher.Errors:
			if !ok {
				return exitcode.Success
			}
			cfg.Logger.Warn("watch error", zap.String("path", path), zap.Error(err))
		}
	}
}

// isStorageEvent reports whether event touches the task file at path.
func isStorageEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}
