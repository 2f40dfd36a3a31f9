// Package metrics scores binary predictions against held-out labels.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrUndefinedAUC is returned when the labels hold a single class.
var ErrUndefinedAUC = errors.New("roc auc is undefined when only one class is present")

// Matrix is a 2x2 confusion matrix: rows are actual labels, columns are
// predicted labels.
type Matrix [2][2]int

// TN returns the true negatives.
func (m Matrix) TN() int { return m[0][0] }

// FP returns the false positives.
func (m Matrix) FP() int { return m[0][1] }

// FN returns the false negatives.
func (m Matrix) FN() int { return m[1][0] }

// TP returns the true positives.
func (m Matrix) TP() int { return m[1][1] }

// Total returns the number of counted examples.
func (m Matrix) Total() int { return m.TN() + m.FP() + m.FN() + m.TP() }

func (m Matrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[[%d %d]\n", m[0][0], m[0][1])
	fmt.Fprintf(&sb, " [%d %d]]", m[1][0], m[1][1])
	return sb.String()
}

// Report gathers the validation metrics of one run.
type Report struct {
	AUC       float64
	Accuracy  float64
	Confusion Matrix
	Threshold float64
}

// Threshold labels every probability >= cut as positive.
func Threshold(probs []float64, cut float64) []int {
	preds := make([]int, len(probs))
	for i, p := range probs {
		if p >= cut {
			preds[i] = 1
		}
	}
	return preds
}

// Accuracy returns the share of predictions equal to their label.
func Accuracy(labels, preds []int) (float64, error) {
	if err := sameLength(labels, preds); err != nil {
		return 0, err
	}
	if len(labels) == 0 {
		return 0, errors.New("accuracy of an empty set")
	}
	var correct int
	for i := range labels {
		if labels[i] == preds[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

// Confusion counts label/prediction pairs. Both must be 0 or 1.
func Confusion(labels, preds []int) (Matrix, error) {
	var m Matrix
	if err := sameLength(labels, preds); err != nil {
		return m, err
	}
	for i := range labels {
		a, p := labels[i], preds[i]
		if a < 0 || a > 1 || p < 0 || p > 1 {
			return Matrix{}, fmt.Errorf("pair %d (%d, %d) is not binary", i, a, p)
		}
		m[a][p]++
	}
	return m, nil
}

// ROCAUC returns the area under the ROC curve of scores against labels.
// Tied scores share a single cutoff.
func ROCAUC(labels []int, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return math.NaN(), fmt.Errorf("got %d labels but %d scores", len(labels), len(scores))
	}
	y := make([]float64, len(scores))
	classes := make([]bool, len(labels))
	var pos int
	for i, l := range labels {
		switch l {
		case 0:
		case 1:
			classes[i] = true
			pos++
		default:
			return math.NaN(), fmt.Errorf("label %d at %d is not binary", l, i)
		}
		y[i] = scores[i]
	}
	if pos == 0 || pos == len(labels) {
		return math.NaN(), ErrUndefinedAUC
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Evaluate computes the full report for positive-class probabilities.
// An undefined AUC is reported as NaN alongside ErrUndefinedAUC; the other
// fields are still filled in.
func Evaluate(labels []int, probs []float64, threshold float64) (Report, error) {
	preds := Threshold(probs, threshold)
	acc, err := Accuracy(labels, preds)
	if err != nil {
		return Report{}, err
	}
	cm, err := Confusion(labels, preds)
	if err != nil {
		return Report{}, err
	}
	auc, err := ROCAUC(labels, probs)
	report := Report{AUC: auc, Accuracy: acc, Confusion: cm, Threshold: threshold}
	if err != nil && !errors.Is(err, ErrUndefinedAUC) {
		return Report{}, err
	}
	return report, err
}

func sameLength(labels, preds []int) error {
	if len(labels) != len(preds) {
		return fmt.Errorf("got %d labels but %d predictions", len(labels), len(preds))
	}
	return nil
}
