package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/clout/internal/admin"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/config"
	"github.com/okian/clout/pkg/logger"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "clout-admin:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-help" || args[0] == "--help" || args[0] == "help" {
		admin.ShowHelp(stdout)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	capperID := fs.String("capper", "", "capper ID (recompute only; default all cappers)")
	file := fs.String("file", "", "YAML fixture path (seed only)")
	if err := fs.Parse(rest); err != nil {
		return errUsage
	}

	switch cmd {
	case "verify", "recompute":
	case "seed":
		if *file == "" {
			fmt.Fprintln(stderr, "seed: -file is required")
			return errUsage
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		admin.ShowHelp(stderr)
		return errUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(stderr)); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	deps, cleanup, err := service.Wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := service.New(deps.Store, deps.Engine, deps.Tokens)
	runner := admin.NewRunner(svc, deps.Store, deps.Engine, stdout)

	switch cmd {
	case "verify":
		_, err = runner.Verify(ctx)
	case "recompute":
		_, err = runner.Recompute(ctx, *capperID)
	case "seed":
		var f *admin.Fixtures
		if f, err = admin.LoadFixtures(*file); err == nil {
			_, err = runner.Seed(ctx, f)
		}
	}
	return err
}
