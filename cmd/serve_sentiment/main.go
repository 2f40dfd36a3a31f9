// Command serve_sentiment loads the fitted artifacts once and serves
// sentiment scores over HTTP until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/golangast/popcorn/internal/config"
	"github.com/golangast/popcorn/internal/logging"
	"github.com/golangast/popcorn/internal/server"
	"github.com/golangast/popcorn/neural/nnu/predict"
)

type options struct {
	configPath   string
	addr         string
	artifactsDir string
	verbose      bool
}

type app struct {
	opts   options
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	return (&app{}).command()
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "serve_sentiment",
		Short:        "Serve movie review sentiment scores over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, a.opts.verbose)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.opts.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&a.opts.addr, "addr", "", "listen address (overrides config)")
	f.StringVar(&a.opts.artifactsDir, "artifacts", "", "directory holding the fitted artifacts (overrides config)")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

// loadConfig reads the config file and applies the flags set on cmd.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = a.opts.addr
	}
	if cmd.Flags().Changed("artifacts") {
		cfg.Artifacts.Dir = a.opts.artifactsDir
	}
	return cfg, nil
}

func (a *app) serve(ctx context.Context) error {
	scorer, err := predict.LoadScorer(a.cfg.Artifacts.VectorizerPath(), a.cfg.Artifacts.ModelPath())
	if err != nil {
		return err
	}
	a.logger.Info("loaded artifacts",
		zap.String("vectorizer", a.cfg.Artifacts.VectorizerPath()),
		zap.String("model", a.cfg.Artifacts.ModelPath()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(scorer, a.logger, server.Options{AllowOrigin: a.cfg.Server.AllowOrigin})
	return srv.Run(ctx, a.cfg.Server.Addr)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
