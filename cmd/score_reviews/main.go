// Command score_reviews scores every review of an unlabeled TSV and writes
// "id<TAB>score" lines.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/golangast/popcorn/internal/config"
	"github.com/golangast/popcorn/internal/logging"
	"github.com/golangast/popcorn/neural/nnu/predict"
	"github.com/golangast/popcorn/neural/nnu/train"
)

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		dataPath     string
		artifactsDir string
		outputPath   string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:          "score_reviews",
		Short:        "Score an unlabeled review TSV with the fitted model",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data") {
				cfg.Data.Unlabeled = dataPath
			}
			if cmd.Flags().Changed("artifacts") {
				cfg.Artifacts.Dir = artifactsDir
			}
			logger, err := logging.New(cfg.Logging, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			scorer, err := predict.LoadScorer(cfg.Artifacts.VectorizerPath(), cfg.Artifacts.ModelPath())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outputPath, err)
				}
				defer f.Close()
				w = f
			}

			n, err := train.ScoreFile(scorer, cfg.Data.Unlabeled, w)
			if err != nil {
				return err
			}
			logger.Info("scored reviews", zap.String("input", cfg.Data.Unlabeled), zap.Int("rows", n))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "path to a YAML config file")
	f.StringVar(&dataPath, "data", "", "unlabeled TSV to score (overrides config)")
	f.StringVar(&artifactsDir, "artifacts", "", "directory holding the fitted artifacts (overrides config)")
	f.StringVarP(&outputPath, "output", "o", "", "write scores to this file instead of stdout")
	f.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
