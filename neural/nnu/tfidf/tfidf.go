// Package tfidf turns cleaned review text into L2-normalised TF-IDF rows.
package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/golangast/popcorn/neural/nnu/sparse"
	"github.com/golangast/popcorn/neural/nnu/vocab"
)

// DefaultMaxFeatures caps the vocabulary when no explicit limit is given.
const DefaultMaxFeatures = 20000

var (
	// ErrNotFitted is returned when a vectorizer is used before Fit.
	ErrNotFitted = errors.New("vectorizer is not fitted")
	// ErrEmptyVocabulary is returned when the training text yields no tokens.
	ErrEmptyVocabulary = errors.New("training documents produced an empty vocabulary")
)

// Vectorizer holds the fitted vocabulary and IDF weights. IDF[i] is the
// weight of Vocab.TokenToWord[i].
type Vectorizer struct {
	MaxFeatures int
	Vocab       *vocab.Vocabulary
	IDF         []float64
	Documents   int
}

// NewVectorizer returns an unfitted vectorizer. A non-positive maxFeatures
// keeps every term.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Tokenize splits doc into lowercased runs of letters, digits and
// underscores, dropping runs shorter than two characters.
func Tokenize(doc string) []string {
	fields := strings.FieldsFunc(doc, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// Fit learns the vocabulary and smoothed IDF weights from docs,
// replacing any previous state.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("fit vectorizer: %w", ErrEmptyVocabulary)
	}
	counter := vocab.NewCounter()
	for _, d := range docs {
		counter.AddDocument(Tokenize(d))
	}
	voc := counter.Vocabulary(v.MaxFeatures)
	if voc.Size() == 0 {
		return fmt.Errorf("fit vectorizer on %d documents: %w", len(docs), ErrEmptyVocabulary)
	}

	n := float64(counter.Docs())
	idf := make([]float64, voc.Size())
	for i, w := range voc.TokenToWord {
		df := float64(counter.DocumentFrequency(w))
		idf[i] = math.Log((1+n)/(1+df)) + 1
	}

	v.Vocab = voc
	v.IDF = idf
	v.Documents = counter.Docs()
	return nil
}

// Dim returns the number of features, zero before Fit.
func (v *Vectorizer) Dim() int {
	if v == nil {
		return 0
	}
	return v.Vocab.Size()
}

// Transform maps doc onto the fitted feature space. Unknown terms are
// ignored; a document with no known terms yields the zero vector.
func (v *Vectorizer) Transform(doc string) sparse.Vector {
	if v.Dim() == 0 {
		return sparse.Vector{}
	}
	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if id, ok := v.Vocab.GetTokenID(tok); ok {
			counts[id]++
		}
	}
	if len(counts) == 0 {
		return sparse.Vector{}
	}

	out := sparse.Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, len(counts)),
	}
	for id := range counts {
		out.Indices = append(out.Indices, id)
	}
	sort.Ints(out.Indices)
	for i, id := range out.Indices {
		out.Values[i] = counts[id] * v.IDF[id]
	}
	if norm := out.Norm(); norm > 0 {
		out.Scale(1 / norm)
	}
	return out
}

// TransformAll transforms every document.
func (v *Vectorizer) TransformAll(docs []string) []sparse.Vector {
	rows := make([]sparse.Vector, len(docs))
	for i, d := range docs {
		rows[i] = v.Transform(d)
	}
	return rows
}

// FitTransform fits on docs and returns their rows.
func (v *Vectorizer) FitTransform(docs []string) ([]sparse.Vector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.TransformAll(docs), nil
}

// Validate checks that a loaded vectorizer is internally consistent.
func (v *Vectorizer) Validate() error {
	if v == nil || v.Vocab == nil || v.Vocab.Size() == 0 {
		return ErrNotFitted
	}
	if len(v.IDF) != v.Vocab.Size() {
		return fmt.Errorf("vectorizer has %d idf weights for %d terms", len(v.IDF), v.Vocab.Size())
	}
	if len(v.Vocab.WordToToken) != len(v.Vocab.TokenToWord) {
		return fmt.Errorf("vectorizer vocabulary maps %d words but lists %d", len(v.Vocab.WordToToken), len(v.Vocab.TokenToWord))
	}
	for i, w := range v.Vocab.TokenToWord {
		if id, ok := v.Vocab.WordToToken[w]; !ok || id != i {
			return fmt.Errorf("vectorizer vocabulary entry %q is not indexed at %d", w, i)
		}
	}
	for i, w := range v.IDF {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 1 {
			return fmt.Errorf("vectorizer idf weight %d is invalid: %v", i, w)
		}
	}
	return nil
}
