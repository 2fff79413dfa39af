// Package cmd implements the cspbc command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/app"
	"github.com/kilianp07/cspbc/config"
	"github.com/kilianp07/cspbc/infra/logger"
)

// errInfeasible makes the process exit non-zero for infeasible solutions.
var errInfeasible = errors.New("solution is infeasible")

type rootOptions struct {
	cfgPath  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "cspbc",
		Short:         "Check crew scheduling solutions against the Derigs-Schaefer benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")
	root.AddCommand(
		newCheckCmd(opts),
		newInspectCmd(),
		newShowCmd(opts),
		newStatsCmd(opts),
		newBatchCmd(opts),
		newReportsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errInfeasible) {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
	}
	return err
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Log.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, component string) logger.Logger {
	env := logger.OptionsFromEnv()
	return logger.NewZerologLogger(component, logger.Options{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console || env.Console,
	})
}

// service loads the configuration and builds an app.Service.
func (o *rootOptions) service(extra ...app.Option) (*app.Service, *config.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	opts := append([]app.Option{app.WithLogger(newLogger(cfg, "cli"))}, extra...)
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}

// create opens path for writing; "-" means stdout.
func create(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func parseSizes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid size %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
