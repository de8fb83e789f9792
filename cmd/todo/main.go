// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"todo/internal/backend/jsonfile"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	fs := afero.NewOsFs()

	// Create service factory
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		store, err := jsonfile.Open(fs, cfg.StoragePath(),
			jsonfile.WithLogger(cfg.Logger),
			jsonfile.WithRecoverCorrupt(cfg.Settings.Storage.RecoverCorrupt))
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	// Create dispatcher
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory).WithFs(fs)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
