// Package dataset reads tab-separated review files.
//
// A labeled file carries at least the columns "review" and "sentiment";
// an unlabeled file only needs "review". An "id" column is kept when present.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ColumnID        = "id"
	ColumnReview    = "review"
	ColumnSentiment = "sentiment"
)

var (
	// ErrBadLabel marks a sentiment value other than 0 or 1.
	ErrBadLabel = errors.New("sentiment must be 0 or 1")
	// ErrMissingColumn marks a header without a required column.
	ErrMissingColumn = errors.New("required column missing")
	// ErrEmpty marks a file with a header but no rows.
	ErrEmpty = errors.New("dataset has no rows")
)

// Review is one row. Labeled is false for rows read from an unlabeled file.
type Review struct {
	ID      string
	Text    string
	Label   int
	Labeled bool
}

// LoadLabeled reads a labeled TSV file.
func LoadLabeled(path string) ([]Review, error) {
	return loadFile(path, true)
}

// LoadUnlabeled reads a TSV file that may lack the sentiment column.
func LoadUnlabeled(path string) ([]Review, error) {
	return loadFile(path, false)
}

func loadFile(path string, labeled bool) ([]Review, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	reviews, err := Read(file, labeled)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return reviews, nil
}

// Read parses TSV rows from r. With labeled set, every row must carry a
// sentiment of exactly 0 or 1; the first offending row fails the read.
func Read(r io.Reader, labeled bool) ([]Review, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header: %w", ErrEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := indexColumns(header)

	reviewCol, ok := cols[ColumnReview]
	if !ok {
		return nil, fmt.Errorf("%q: %w", ColumnReview, ErrMissingColumn)
	}
	sentimentCol, hasSentiment := cols[ColumnSentiment]
	if labeled && !hasSentiment {
		return nil, fmt.Errorf("%q: %w", ColumnSentiment, ErrMissingColumn)
	}
	idCol, hasID := cols[ColumnID]

	var reviews []Review
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed row: %w", err)
		}
		row := len(reviews) + 1

		rv := Review{Text: record[reviewCol]}
		if hasID {
			rv.ID = record[idCol]
		}
		if labeled {
			label, err := parseLabel(record[sentimentCol])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
			rv.Label = label
			rv.Labeled = true
		}
		reviews = append(reviews, rv)
	}
	if len(reviews) == 0 {
		return nil, ErrEmpty
	}
	return reviews, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func parseLabel(s string) (int, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	default:
		return 0, fmt.Errorf("sentiment %q: %w", s, ErrBadLabel)
	}
}

// Texts returns the review texts in order.
func Texts(reviews []Review) []string {
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}
	return texts
}

// Labels returns the labels in order.
func Labels(reviews []Review) []int {
	labels := make([]int, len(reviews))
	for i, r := range reviews {
		labels[i] = r.Label
	}
	return labels
}

// Subset returns the reviews at the given indices.
func Subset(reviews []Review, idx []int) []Review {
	out := make([]Review, len(idx))
	for i, j := range idx {
		out[i] = reviews[j]
	}
	return out
}
