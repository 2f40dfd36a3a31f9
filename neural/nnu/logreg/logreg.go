// Package logreg fits and applies an L2-regularised binary logistic
// regression over sparse rows.
package logreg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/golangast/popcorn/neural/nnu/sparse"
)

const (
	// DefaultC is the inverse regularisation strength.
	DefaultC = 1.0
	// DefaultMaxIter bounds the number of L-BFGS major iterations.
	DefaultMaxIter = 200
	// gradientTolerance stops the optimiser once the largest gradient
	// component falls below it.
	gradientTolerance = 1e-4
)

var (
	ErrNotFitted   = errors.New("classifier is not fitted")
	ErrBadLabel    = errors.New("label must be 0 or 1")
	ErrSingleClass = errors.New("training labels contain a single class")
	ErrNoExamples  = errors.New("no training examples")
)

// Model is a fitted (or to-be-fitted) classifier. Weights has one entry
// per feature.
type Model struct {
	Weights []float64
	Bias    float64
	C       float64
	MaxIter int
}

// FitStats describes how the optimiser finished.
type FitStats struct {
	Iterations      int
	FuncEvaluations int
	Loss            float64
	Status          string
	Converged       bool
}

// New returns an unfitted model over dim features.
func New(dim int, c float64, maxIter int) *Model {
	if c <= 0 {
		c = DefaultC
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	return &Model{
		Weights: make([]float64, dim),
		C:       c,
		MaxIter: maxIter,
	}
}

// Dim returns the number of features.
func (m *Model) Dim() int {
	if m == nil {
		return 0
	}
	return len(m.Weights)
}

// Fit minimises 0.5*||w||^2 + C*sum(logloss) with L-BFGS. The bias is not
// regularised. Stopping at MaxIter is reported through FitStats, not as an
// error.
func (m *Model) Fit(X []sparse.Vector, y []int) (FitStats, error) {
	if err := m.checkTrainingSet(X, y); err != nil {
		return FitStats{}, err
	}
	dim := m.Dim()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return m.objective(x, X, y, nil)
		},
		Grad: func(grad, x []float64) {
			m.objective(x, X, y, grad)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   m.MaxIter,
		GradientThreshold: gradientTolerance,
	}

	init := make([]float64, dim+1)
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{Store: 10})
	if result == nil {
		return FitStats{}, fmt.Errorf("logistic regression optimisation: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FitStats{}, fmt.Errorf("logistic regression diverged after %d iterations", result.Stats.MajorIterations)
		}
	}

	copy(m.Weights, result.X[:dim])
	m.Bias = result.X[dim]

	return FitStats{
		Iterations:      result.Stats.MajorIterations,
		FuncEvaluations: result.Stats.FuncEvaluations,
		Loss:            result.F,
		Status:          result.Status.String(),
		Converged:       err == nil && !result.Status.Early(),
	}, nil
}

func (m *Model) checkTrainingSet(X []sparse.Vector, y []int) error {
	if len(X) == 0 {
		return ErrNoExamples
	}
	if len(X) != len(y) {
		return fmt.Errorf("got %d rows but %d labels", len(X), len(y))
	}
	if m.Dim() == 0 {
		return fmt.Errorf("classifier has no features")
	}
	var pos int
	for i, label := range y {
		switch label {
		case 0:
		case 1:
			pos++
		default:
			return fmt.Errorf("row %d has label %d: %w", i, label, ErrBadLabel)
		}
		if err := X[i].Check(m.Dim()); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	if pos == 0 || pos == len(y) {
		return ErrSingleClass
	}
	return nil
}

// objective returns the penalised loss at x = [w..., b] and, when grad is
// non-nil, fills it with the gradient.
func (m *Model) objective(x []float64, X []sparse.Vector, y []int, grad []float64) float64 {
	dim := len(x) - 1
	w, b := x[:dim], x[dim]

	loss := 0.5 * floats.Dot(w, w)
	if grad != nil {
		copy(grad[:dim], w)
		grad[dim] = 0
	}
	for i, row := range X {
		z := b + row.Dot(w)
		label := float64(y[i])
		loss += m.C * (softplus(z) - label*z)
		if grad != nil {
			r := m.C * (Sigmoid(z) - label)
			row.AddScaledTo(grad[:dim], r)
			grad[dim] += r
		}
	}
	return loss
}

// PredictProba returns the positive-class probability of x.
func (m *Model) PredictProba(x sparse.Vector) float64 {
	return Sigmoid(m.Bias + x.Dot(m.Weights))
}

// Validate checks that a loaded model is usable.
func (m *Model) Validate() error {
	if m == nil || len(m.Weights) == 0 {
		return ErrNotFitted
	}
	if math.IsNaN(m.Bias) || math.IsInf(m.Bias, 0) {
		return fmt.Errorf("classifier bias is not finite: %v", m.Bias)
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("classifier weight %d is not finite: %v", i, w)
		}
	}
	return nil
}

// Sigmoid is the logistic function, evaluated without overflow.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
