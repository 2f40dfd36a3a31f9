package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labeledTSV = "id\tsentiment\treview\n" +
	"\"5814_8\"\t1\t\"With all this stuff going down at the moment <br />it's great\"\n" +
	"\"2381_9\"\t0\t\"The film is a bore.\"\n"

func TestReadLabeled(t *testing.T) {
	reviews, err := Read(strings.NewReader(labeledTSV), true)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, "5814_8", reviews[0].ID)
	assert.Equal(t, 1, reviews[0].Label)
	assert.True(t, reviews[0].Labeled)
	assert.Contains(t, reviews[0].Text, "<br />")
	assert.Equal(t, 0, reviews[1].Label)

	assert.Equal(t, []int{1, 0}, Labels(reviews))
	assert.Equal(t, "The film is a bore.", Texts(reviews)[1])
	assert.Equal(t, []Review{reviews[1]}, Subset(reviews, []int{1}))
}

func TestReadUnlabeled(t *testing.T) {
	data := "id\treview\n\"12311_10\"\t\"Naturally in a film \\\"like\\\" this\"\n"
	reviews, err := Read(strings.NewReader(data), false)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.False(t, reviews[0].Labeled)
	assert.Equal(t, "12311_10", reviews[0].ID)
	assert.Contains(t, reviews[0].Text, "like")
}

func TestReadHeaderVariants(t *testing.T) {
	data := "\ufeffReview\tSentiment\n great \t 1 \n"
	reviews, err := Read(strings.NewReader(data), true)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "", reviews[0].ID)
	assert.Equal(t, 1, reviews[0].Label)
}

func TestReadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		labeled bool
		want    error
	}{
		{"empty file", "", true, ErrEmpty},
		{"header only", "sentiment\treview\n", true, ErrEmpty},
		{"no review column", "id\tsentiment\n1\t0\n", true, ErrMissingColumn},
		{"no sentiment column", "id\treview\n1\tfine\n", true, ErrMissingColumn},
		{"non binary label", "sentiment\treview\n2\tok\n", true, ErrBadLabel},
		{"text label", "sentiment\treview\npositive\tok\n", true, ErrBadLabel},
		{"empty label", "sentiment\treview\n\tok\n", true, ErrBadLabel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.data), tc.labeled)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReadMalformedRow(t *testing.T) {
	data := "sentiment\treview\n1\tgood\n0\tbad\textra\n"
	_, err := Read(strings.NewReader(data), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed row")
}

func TestReadBadLabelReportsRow(t *testing.T) {
	data := "sentiment\treview\n1\tgood\n0\tbad\n7\tugly\n"
	_, err := Read(strings.NewReader(data), true)
	require.ErrorIs(t, err, ErrBadLabel)
	assert.Contains(t, err.Error(), "row 3")
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labeledTrainData.tsv")
	require.NoError(t, os.WriteFile(path, []byte(labeledTSV), 0o644))

	reviews, err := LoadLabeled(path)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	reviews, err = LoadUnlabeled(path)
	require.NoError(t, err)
	assert.False(t, reviews[0].Labeled)

	_, err = LoadLabeled(filepath.Join(dir, "missing.tsv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
