package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		doc      string
		expected []string
	}{
		{"a bc de", []string{"bc", "de"}},
		{"  great movie   ", []string{"great", "movie"}},
		{"1x x_y", []string{"1x", "x_y"}},
		{"Don't", []string{"don"}},
		{"ÉA é", []string{"éa"}},
		{"", []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.doc, func(t *testing.T) {
			assert.Equal(t, tc.expected, Tokenize(tc.doc))
		})
	}
}

func TestFitIDF(t *testing.T) {
	v := NewVectorizer(0)
	require.NoError(t, v.Fit([]string{"good movie", "bad movie"}))

	require.Equal(t, 3, v.Dim())
	assert.Equal(t, []string{"bad", "good", "movie"}, v.Vocab.TokenToWord)
	assert.Equal(t, 2, v.Documents)

	rare := math.Log(3.0/2.0) + 1
	assert.InDelta(t, rare, v.IDF[0], 1e-12)
	assert.InDelta(t, rare, v.IDF[1], 1e-12)
	assert.InDelta(t, 1.0, v.IDF[2], 1e-12)
	require.NoError(t, v.Validate())
}

func TestTransform(t *testing.T) {
	v := NewVectorizer(0)
	require.NoError(t, v.Fit([]string{"good movie", "bad movie"}))

	row := v.Transform("good movie good unknown")
	require.Equal(t, []int{1, 2}, row.Indices)

	g := 2 * (math.Log(1.5) + 1)
	m := 1.0
	norm := math.Sqrt(g*g + m*m)
	assert.InDelta(t, g/norm, row.Values[0], 1e-12)
	assert.InDelta(t, m/norm, row.Values[1], 1e-12)
	assert.InDelta(t, 1.0, row.Norm(), 1e-12)
	require.NoError(t, row.Check(v.Dim()))
}

func TestTransformUnknownOnly(t *testing.T) {
	v := NewVectorizer(0)
	require.NoError(t, v.Fit([]string{"good movie"}))
	row := v.Transform("nothing here matches")
	assert.Equal(t, 0, row.Len())
}

func TestTransformDoesNotRefit(t *testing.T) {
	v := NewVectorizer(0)
	require.NoError(t, v.Fit([]string{"good movie", "bad movie"}))
	before := append([]float64(nil), v.IDF...)

	v.TransformAll([]string{"brand new words", "good good good"})
	assert.Equal(t, before, v.IDF)
	assert.Equal(t, 3, v.Dim())
}

func TestMaxFeatures(t *testing.T) {
	v := NewVectorizer(2)
	require.NoError(t, v.Fit([]string{"plot plot plot acting acting score", "plot acting"}))
	assert.Equal(t, []string{"acting", "plot"}, v.Vocab.TokenToWord)
}

func TestFitErrors(t *testing.T) {
	v := NewVectorizer(DefaultMaxFeatures)
	assert.ErrorIs(t, v.Fit(nil), ErrEmptyVocabulary)
	assert.ErrorIs(t, v.Fit([]string{"a b c", "   "}), ErrEmptyVocabulary)
	assert.ErrorIs(t, v.Validate(), ErrNotFitted)
	assert.Equal(t, 0, v.Transform("anything").Len())
}

func TestFitTransform(t *testing.T) {
	v := NewVectorizer(DefaultMaxFeatures)
	rows, err := v.FitTransform([]string{"great film", "awful film"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.InDelta(t, 1.0, r.Norm(), 1e-12)
	}
}

func TestValidateRejectsCorruptState(t *testing.T) {
	v := NewVectorizer(0)
	require.NoError(t, v.Fit([]string{"good movie", "bad movie"}))

	v.IDF = v.IDF[:2]
	assert.Error(t, v.Validate())

	v.IDF = []float64{1, math.NaN(), 1}
	assert.Error(t, v.Validate())

	v.IDF = []float64{1, 1, 1}
	v.Vocab.WordToToken["bad"] = 2
	assert.Error(t, v.Validate())
}
