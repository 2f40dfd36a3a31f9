// Package train runs the sentiment training pipeline: load, clean, split,
// vectorize, fit, evaluate and persist.
package train

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/golangast/popcorn/internal/config"
	"github.com/golangast/popcorn/neural/nnu/dataset"
	"github.com/golangast/popcorn/neural/nnu/gobs"
	"github.com/golangast/popcorn/neural/nnu/logreg"
	"github.com/golangast/popcorn/neural/nnu/metrics"
	"github.com/golangast/popcorn/neural/nnu/predict"
	"github.com/golangast/popcorn/neural/nnu/split"
	"github.com/golangast/popcorn/neural/nnu/tfidf"
	"github.com/golangast/popcorn/tagger/clean"
)

// Report summarises one training run.
type Report struct {
	Dataset        string
	TrainSize      int
	ValidationSize int
	VocabularySize int
	Fit            logreg.FitStats
	Metrics        metrics.Report
	Duration       time.Duration
	VectorizerPath string
	ModelPath      string
	// Terms with the largest positive and negative weights, strongest first.
	PositiveTerms []string
	NegativeTerms []string
}

// topTermCount is how many weighted terms a report lists per class.
const topTermCount = 10

// Fitted is the in-memory result of Fit, before anything is written.
type Fitted struct {
	Vectorizer *tfidf.Vectorizer
	Model      *logreg.Model
	Report     Report
}

// Run loads the labeled dataset named by cfg, fits both artifacts,
// evaluates them on the validation split and writes them to disk.
// Any failure before the final write leaves the artifact files untouched.
func Run(cfg *config.Config, logger *zap.Logger) (*Report, error) {
	start := time.Now()

	reviews, err := dataset.LoadLabeled(cfg.Data.Labeled)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded dataset", zap.String("path", cfg.Data.Labeled), zap.Int("rows", len(reviews)))

	fitted, err := Fit(reviews, cfg.Training, logger)
	if err != nil {
		return nil, err
	}

	report := fitted.Report
	report.Dataset = cfg.Data.Labeled
	report.VectorizerPath = cfg.Artifacts.VectorizerPath()
	report.ModelPath = cfg.Artifacts.ModelPath()

	err = gobs.SaveAll(
		gobs.Item{Path: report.VectorizerPath, Kind: predict.KindVectorizer, Value: fitted.Vectorizer},
		gobs.Item{Path: report.ModelPath, Kind: predict.KindModel, Value: fitted.Model},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save artifacts: %w", err)
	}
	report.Duration = time.Since(start)

	logger.Info("saved artifacts",
		zap.String("vectorizer", report.VectorizerPath),
		zap.String("model", report.ModelPath),
		zap.Duration("duration", report.Duration))
	return &report, nil
}

// Fit runs every in-memory step of the pipeline on labeled reviews.
func Fit(reviews []dataset.Review, tc config.TrainingConfig, logger *zap.Logger) (*Fitted, error) {
	for i, r := range reviews {
		if !r.Labeled {
			return nil, fmt.Errorf("review %d has no label", i)
		}
	}

	trainIdx, valIdx, err := split.TrainValidation(len(reviews), tc.ValidationFraction, tc.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	trainSet := dataset.Subset(reviews, trainIdx)
	valSet := dataset.Subset(reviews, valIdx)

	trainText := clean.All(dataset.Texts(trainSet))
	valText := clean.All(dataset.Texts(valSet))

	vectorizer := tfidf.NewVectorizer(tc.MaxFeatures)
	trainRows, err := vectorizer.FitTransform(trainText)
	if err != nil {
		return nil, err
	}
	valRows := vectorizer.TransformAll(valText)
	logger.Info("fitted vectorizer",
		zap.Int("train", len(trainRows)),
		zap.Int("validation", len(valRows)),
		zap.Int("vocabulary", vectorizer.Dim()))

	model := logreg.New(vectorizer.Dim(), tc.C, tc.MaxIter)
	stats, err := model.Fit(trainRows, dataset.Labels(trainSet))
	if err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}
	if !stats.Converged {
		logger.Warn("classifier stopped before converging",
			zap.Int("iterations", stats.Iterations),
			zap.String("status", stats.Status))
	} else {
		logger.Info("fitted classifier",
			zap.Int("iterations", stats.Iterations),
			zap.Float64("loss", stats.Loss))
	}

	probs := make([]float64, len(valRows))
	for i, row := range valRows {
		probs[i] = model.PredictProba(row)
	}
	valLabels := dataset.Labels(valSet)
	report, err := metrics.Evaluate(valLabels, probs, tc.Threshold)
	switch {
	case errors.Is(err, metrics.ErrUndefinedAUC):
		logger.Warn("validation split holds a single class; auc is undefined")
	case err != nil:
		return nil, fmt.Errorf("failed to evaluate classifier: %w", err)
	}
	logger.Info("validation metrics",
		zap.Float64("auc", report.AUC),
		zap.Float64("accuracy", report.Accuracy),
		zap.Ints("confusion", []int{
			report.Confusion.TN(), report.Confusion.FP(),
			report.Confusion.FN(), report.Confusion.TP(),
		}))

	positive, negative := TopTerms(vectorizer, model, topTermCount)
	logger.Debug("strongest terms", zap.Strings("positive", positive), zap.Strings("negative", negative))

	return &Fitted{
		Vectorizer: vectorizer,
		Model:      model,
		Report: Report{
			TrainSize:      len(trainSet),
			ValidationSize: len(valSet),
			VocabularySize: vectorizer.Dim(),
			Fit:            stats,
			Metrics:        report,
			PositiveTerms:  positive,
			NegativeTerms:  negative,
		},
	}, nil
}

// TopTerms returns up to k vocabulary terms with the largest positive
// weights and up to k with the largest negative weights, strongest first.
// Ties keep vocabulary order.
func TopTerms(v *tfidf.Vectorizer, m *logreg.Model, k int) (positive, negative []string) {
	ids := make([]int, len(m.Weights))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return m.Weights[ids[a]] > m.Weights[ids[b]]
	})

	for _, id := range ids {
		if len(positive) == k || m.Weights[id] <= 0 {
			break
		}
		positive = append(positive, v.Vocab.GetWord(id))
	}
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if len(negative) == k || m.Weights[id] >= 0 {
			break
		}
		negative = append(negative, v.Vocab.GetWord(id))
	}
	return positive, negative
}

// ScoreFile scores every review of an unlabeled TSV file and writes
// "id<TAB>score" lines to w, preceded by a header. Rows without an id
// column use their 1-based row number. It returns the number of rows
// written.
func ScoreFile(scorer *predict.Scorer, path string, w io.Writer) (int, error) {
	reviews, err := dataset.LoadUnlabeled(path)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\tscore\n", dataset.ColumnID); err != nil {
		return 0, err
	}
	for i, r := range reviews {
		id := r.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		score := strconv.FormatFloat(scorer.Score(r.Text), 'f', -1, 64)
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", id, score); err != nil {
			return i, fmt.Errorf("failed to write score for %s: %w", id, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush scores: %w", err)
	}
	return len(reviews), nil
}
