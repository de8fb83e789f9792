// Package cli parses the command line, sets up config, logging and the task
// store, and dispatches to registered commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/service"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	fs       afero.Fs
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
// Settings are read from the OS filesystem and shell input from stdin unless
// overridden with WithFs and WithInput.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		fs:       afero.NewOsFs(),
		in:       os.Stdin,
	}
}

// WithFs sets the filesystem config.yaml is read from.
func (d *Dispatcher) WithFs(fs afero.Fs) *Dispatcher {
	d.fs = fs
	return d
}

// WithInput sets the reader the shell command reads lines from.
func (d *Dispatcher) WithInput(r io.Reader) *Dispatcher {
	d.in = r
	return d
}

// commonOptions are the flags accepted by every command.
type commonOptions struct {
	configDir string
	file      string
	quiet     bool
	debug     bool
}

func (o *commonOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configDir, "config", "", "")
	fs.StringVar(&o.file, "file", "", "")
	fs.BoolVar(&o.quiet, "quiet", false, "")
	fs.BoolVar(&o.debug, "debug", false, "")
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	if cmdName == shellName {
		return d.runShell(ctx, args[1:], out, errOut)
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := newFlagSet(cmd.Name())

	var opts commonOptions
	opts.register(fs)

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	positionalArgs, ok := parseFlags(fs, args, errOut)
	if !ok {
		return exitcode.UserError
	}

	cfg, code := d.setup(opts, errOut)
	if code != exitcode.Success {
		return code
	}
	defer func() { _ = cfg.Logger.Sync() }()

	var svc service.Service
	if cmd.NeedsStore() {
		if svc, code = d.openStore(ctx, cfg, errOut); code != exitcode.Success {
			return code
		}
	}

	// Run command
	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

// setup builds the per-run config: settings file, environment overrides,
// command-line overrides and the logger.
func (d *Dispatcher) setup(opts commonOptions, errOut io.Writer) (*config.Config, int) {
	cfg, err := config.New(opts.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return nil, exitcode.UserError
	}
	cfg.File = opts.file
	cfg.Quiet = opts.quiet
	cfg.Debug = opts.debug

	if err := cfg.LoadSettings(d.fs); err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return nil, exitcode.ConfigError
	}

	logger, err := logging.New(errOut, logging.Options{
		Level: cfg.Settings.Logging.Level,
		Debug: cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return nil, exitcode.ConfigError
	}
	cfg.Logger = logger

	cfg.Logger.Debug("config loaded",
		zap.String("dir", cfg.Dir),
		zap.String("storage", cfg.StoragePath()))
	return cfg, exitcode.Success
}

// openStore calls the service factory and reports failures as storage errors.
func (d *Dispatcher) openStore(ctx context.Context, cfg *config.Config, errOut io.Writer) (service.Service, int) {
	if d.factory == nil {
		fmt.Fprintln(errOut, "error: storage error: no task store configured")
		return nil, exitcode.StorageError
	}
	svc, err := d.factory(ctx, cfg)
	if err != nil {
		if errors.Is(err, service.ErrPersistence) {
			fmt.Fprintf(errOut, "error: storage error: %s\n", err)
		} else {
			fmt.Fprintf(errOut, "error: %s\n", err)
		}
		return nil, exitcode.StorageError
	}
	return svc, exitcode.Success
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves
	return fs
}

// parseFlags parses args into fs and prints a user-facing message on failure.
// Returns the positional arguments.
func parseFlags(fs *flag.FlagSet, args []string, errOut io.Writer) ([]string, bool) {
	if err := fs.Parse(args); err != nil {
		errStr := err.Error()

		// Check for missing flag value
		if strings.HasPrefix(errStr, "flag needs an argument:") {
			flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
			return nil, false
		}

		// Check for unknown flag
		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return nil, false
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return nil, false
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return nil, false
	}
	return positionalArgs, true
}
