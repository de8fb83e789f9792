package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"todo/internal/exitcode"
)

const (
	shellName   = "shell"
	shellPrompt = "todo> "
)

// runShell reads commands line by line and runs them against one config and
// one task store, so state such as the pending due date carries over between
// lines. Returns the exit code of the last command run.
func (d *Dispatcher) runShell(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := newFlagSet(shellName)
	var opts commonOptions
	opts.register(fs)

	positionalArgs, ok := parseFlags(fs, args, errOut)
	if !ok {
		return exitcode.UserError
	}
	if len(positionalArgs) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, code := d.setup(opts, errOut)
	if code != exitcode.Success {
		return code
	}
	defer func() { _ = cfg.Logger.Sync() }()

	svc, code := d.openStore(ctx, cfg, errOut)
	if code != exitcode.Success {
		return code
	}

	prompt := isTerminal(d.in)
	scanner := bufio.NewScanner(d.in)
	last := exitcode.Success

	for {
		if prompt {
			fmt.Fprint(out, shellPrompt)
		}
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return last
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields, err := splitFields(line)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			last = exitcode.UserError
			continue
		}
		if len(fields) == 0 {
			continue
		}

		name := fields[0]
		switch name {
		case "exit", "quit":
			return last
		case shellName:
			fmt.Fprintln(errOut, "error: already in shell")
			last = exitcode.UserError
			continue
		}

		cmd, ok := d.registry.Find(name)
		if !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
			last = exitcode.UserError
			continue
		}

		cmdFlags := newFlagSet(cmd.Name())
		var lineOpts commonOptions
		lineOpts.register(cmdFlags)
		cmd.RegisterFlags(cmdFlags)
		cmdArgs, ok := parseFlags(cmdFlags, fields[1:], errOut)
		if !ok {
			last = exitcode.UserError
			continue
		}
		// Config, file and logger are fixed when the shell starts.
		if lineOpts.configDir != "" || lineOpts.file != "" || lineOpts.debug {
			fmt.Fprintln(errOut, "error: --config, --file and --debug can only be given to shell itself")
			last = exitcode.UserError
			continue
		}

		cmdSvc := svc
		if !cmd.NeedsStore() {
			cmdSvc = nil
		}
		lineCfg := *cfg
		lineCfg.Quiet = cfg.Quiet || lineOpts.quiet
		last = cmd.Run(ctx, &lineCfg, cmdSvc, cmdArgs, out, errOut)
		cfg.Logger.Debug("shell command finished", zap.String("command", cmd.Name()), zap.Int("code", last))
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if prompt {
		fmt.Fprintln(out)
	}
	return last
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// splitFields splits a shell line on whitespace. Single or double quotes
// group words; quotes themselves are dropped.
func splitFields(line string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quote   rune
		inField bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inField = true
		case r == ' ' || r == '\t' || r == '\r':
			if inField {
				fields = append(fields, current.String())
				current.Reset()
				inField = false
			}
		default:
			current.WriteRune(r)
			inField = true
		}
	}

	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
