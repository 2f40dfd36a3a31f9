// Package predict maps one review text to a 0-100 sentiment score using a
// fitted vectorizer and classifier.
package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/golangast/popcorn/neural/nnu/gobs"
	"github.com/golangast/popcorn/neural/nnu/logreg"
	"github.com/golangast/popcorn/neural/nnu/sparse"
	"github.com/golangast/popcorn/neural/nnu/tfidf"
	"github.com/golangast/popcorn/tagger/clean"
)

// Artifact kinds and their default file names.
const (
	KindVectorizer = "tfidf_vectorizer"
	KindModel      = "logreg_model"

	VectorizerFile = "tfidf_vectorizer.gob"
	ModelFile      = "logreg_model.gob"
)

// ErrDimensionMismatch is returned when the vectorizer and classifier were
// not fitted together.
var ErrDimensionMismatch = errors.New("vectorizer and classifier dimensions differ")

// Transformer maps cleaned text onto the feature space.
type Transformer interface {
	Transform(doc string) sparse.Vector
}

// Classifier returns the positive-class probability of a row.
type Classifier interface {
	PredictProba(x sparse.Vector) float64
}

type dimensioned interface {
	Dim() int
}

// Scorer pairs a fitted transformer with a fitted classifier. It holds no
// mutable state and is safe for concurrent use when both parts are.
type Scorer struct {
	transformer Transformer
	classifier  Classifier
}

// NewScorer wires the two fitted parts together. When both report a
// dimension, the dimensions must agree.
func NewScorer(t Transformer, c Classifier) (*Scorer, error) {
	if t == nil || c == nil {
		return nil, errors.New("scorer needs both a transformer and a classifier")
	}
	td, tok := t.(dimensioned)
	cd, cok := c.(dimensioned)
	if tok && cok && td.Dim() != cd.Dim() {
		return nil, fmt.Errorf("%w: %d features vs %d weights", ErrDimensionMismatch, td.Dim(), cd.Dim())
	}
	return &Scorer{transformer: t, classifier: c}, nil
}

// Probability returns the positive-class probability of raw text.
func (s *Scorer) Probability(text string) float64 {
	return s.classifier.PredictProba(s.transformer.Transform(clean.Clean(text)))
}

// Score returns 100 times the positive-class probability, always within
// [0, 100].
func (s *Scorer) Score(text string) float64 {
	score := s.Probability(text) * 100
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// LoadVectorizer reads and validates a vectorizer artifact.
func LoadVectorizer(path string) (*tfidf.Vectorizer, error) {
	var v tfidf.Vectorizer
	if err := gobs.Load(path, KindVectorizer, &v); err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &v, nil
}

// LoadModel reads and validates a classifier artifact.
func LoadModel(path string) (*logreg.Model, error) {
	var m logreg.Model
	if err := gobs.Load(path, KindModel, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// LoadScorer loads both artifacts and wires them into a Scorer. There is
// no fallback: any missing or damaged artifact is an error.
func LoadScorer(vectorizerPath, modelPath string) (*Scorer, error) {
	v, err := LoadVectorizer(vectorizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vectorizer: %w", err)
	}
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}
	return NewScorer(v, m)
}

// LoadScorerFromDir loads the default artifact names from dir.
func LoadScorerFromDir(dir string) (*Scorer, error) {
	return LoadScorer(filepath.Join(dir, VectorizerFile), filepath.Join(dir, ModelFile))
}

// ArtifactDir returns the directory holding the running executable, with
// symlinks resolved, so artifacts deployed next to the binary are found
// regardless of the caller's working directory.
func ArtifactDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Result is the single JSON object printed for a scored text.
type Result struct {
	Score float64 `json:"score"`
}

// WriteResult writes {"score": score} followed by a newline.
func WriteResult(w io.Writer, score float64) error {
	return json.NewEncoder(w).Encode(Result{Score: score})
}
