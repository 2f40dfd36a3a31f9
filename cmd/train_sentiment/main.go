// Command train_sentiment fits the TF-IDF vectorizer and logistic regression
// classifier on a labeled review TSV, reports validation metrics and writes
// both artifacts. Every run is recorded in a small SQLite registry.
package main

import (
	"database/sql"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/golangast/popcorn/internal/config"
	"github.com/golangast/popcorn/internal/logging"
	"github.com/golangast/popcorn/internal/sqlite_db"
	"github.com/golangast/popcorn/neural/nnu/train"
)

type options struct {
	configPath  string
	dataPath    string
	outDir      string
	seed        uint64
	maxFeatures int
	maxIter     int
	verbose     bool
	limit       int
}

type app struct {
	opts   options
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "train_sentiment",
		Short: "Train the movie review sentiment model",
		Long: `train_sentiment reads a labeled review TSV (id, sentiment, review),
holds out a seeded validation split, fits a TF-IDF vectorizer and a logistic
regression classifier, prints ROC AUC, accuracy and the confusion matrix, and
writes tfidf_vectorizer.gob and logreg_model.gob to the artifact directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.train(cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "path to a YAML config file")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable debug logging")

	f := root.Flags()
	f.StringVar(&a.opts.dataPath, "data", "", "labeled TSV to train on (overrides config)")
	f.StringVar(&a.opts.outDir, "out", "", "directory for the fitted artifacts (overrides config)")
	f.Uint64Var(&a.opts.seed, "seed", 0, "split seed (overrides config)")
	f.IntVar(&a.opts.maxFeatures, "max-features", 0, "vocabulary size cap (overrides config)")
	f.IntVar(&a.opts.maxIter, "max-iter", 0, "optimizer iteration cap (overrides config)")

	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRuns(cmd.OutOrStdout())
		},
	}
	runs.Flags().IntVarP(&a.opts.limit, "limit", "n", 10, "number of runs to show (0 for all)")
	root.AddCommand(runs)

	root.AddCommand(&cobra.Command{
		Use:   "config <path>",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})

	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Labeled = a.opts.dataPath
	}
	if flags.Changed("out") {
		cfg.Artifacts.Dir = a.opts.outDir
	}
	if flags.Changed("seed") {
		cfg.Training.Seed = a.opts.seed
	}
	if flags.Changed("max-features") {
		cfg.Training.MaxFeatures = a.opts.maxFeatures
	}
	if flags.Changed("max-iter") {
		cfg.Training.MaxIter = a.opts.maxIter
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, a.opts.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) train(w io.Writer) error {
	report, err := train.Run(a.cfg, a.logger)
	if err != nil {
		return err
	}
	printReport(w, report)

	if a.cfg.Registry.Path == "" {
		a.logger.Debug("run registry disabled")
		return nil
	}
	db, err := sqlite_db.InitDB(a.cfg.Registry.Path)
	if err != nil {
		// Artifacts are already on disk; the run still succeeded.
		a.logger.Warn("run not recorded", zap.Error(err))
		return nil
	}
	defer db.Close()

	id, err := sqlite_db.RecordRun(db, runFromReport(report))
	if err != nil {
		a.logger.Warn("run not recorded", zap.Error(err))
		return nil
	}
	a.logger.Info("recorded run", zap.String("id", id), zap.String("registry", a.cfg.Registry.Path))
	return nil
}

func (a *app) listRuns(w io.Writer) error {
	if a.cfg.Registry.Path == "" {
		fmt.Fprintln(w, "run registry disabled")
		return nil
	}
	if _, err := os.Stat(a.cfg.Registry.Path); os.IsNotExist(err) {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	db, err := sqlite_db.InitDB(a.cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return printRuns(w, db, a.opts.limit)
}

func runFromReport(r *train.Report) sqlite_db.Run {
	return sqlite_db.Run{
		Dataset:            r.Dataset,
		TrainSize:          r.TrainSize,
		ValidationSize:     r.ValidationSize,
		VocabularySize:     r.VocabularySize,
		Iterations:         r.Fit.Iterations,
		Converged:          r.Fit.Converged,
		AUC:                r.Metrics.AUC,
		Accuracy:           r.Metrics.Accuracy,
		TN:                 r.Metrics.Confusion.TN(),
		FP:                 r.Metrics.Confusion.FP(),
		FN:                 r.Metrics.Confusion.FN(),
		TP:                 r.Metrics.Confusion.TP(),
		VectorizerArtifact: r.VectorizerPath,
		ModelArtifact:      r.ModelPath,
	}
}

func printReport(w io.Writer, r *train.Report) {
	fmt.Fprintf(w, "train rows:      %d\n", r.TrainSize)
	fmt.Fprintf(w, "validation rows: %d\n", r.ValidationSize)
	fmt.Fprintf(w, "vocabulary:      %d\n", r.VocabularySize)
	fmt.Fprintf(w, "iterations:      %d (converged: %t)\n", r.Fit.Iterations, r.Fit.Converged)
	fmt.Fprintf(w, "ROC AUC:         %s\n", formatAUC(r.Metrics.AUC))
	fmt.Fprintf(w, "accuracy:        %.4f\n", r.Metrics.Accuracy)
	fmt.Fprintf(w, "confusion matrix:\n%s\n", r.Metrics.Confusion)
	fmt.Fprintf(w, "positive terms:  %s\n", strings.Join(r.PositiveTerms, ", "))
	fmt.Fprintf(w, "negative terms:  %s\n", strings.Join(r.NegativeTerms, ", "))
	fmt.Fprintf(w, "artifacts:       %s, %s\n", r.VectorizerPath, r.ModelPath)
}

func printRuns(w io.Writer, db *sql.DB, limit int) error {
	runs, err := sqlite_db.ListRuns(db, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTRAIN\tVALID\tVOCAB\tITER\tAUC\tACCURACY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%.4f\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.TrainSize, r.ValidationSize, r.VocabularySize, r.Iterations,
			formatAUC(r.AUC), r.Accuracy)
	}
	return tw.Flush()
}

func formatAUC(auc float64) string {
	if math.IsNaN(auc) {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", auc)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
