// Command predict_sentiment scores one review and prints {"score": x}, where
// x is 100 times the probability that the review is positive.
//
// The only argument is the review text; it is never read as a flag or a
// subcommand. The fitted artifacts (tfidf_vectorizer.gob, logreg_model.gob)
// are read from the directory holding the executable, never from the
// working directory.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/golangast/popcorn/neural/nnu/predict"
)

const usage = `usage: predict_sentiment "<review text>"`

// run scores args[0] and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, artifactDir func() (string, error)) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	dir, err := artifactDir()
	if err != nil {
		fmt.Fprintf(stderr, "predict_sentiment: %v\n", err)
		return 1
	}
	scorer, err := predict.LoadScorerFromDir(dir)
	if err != nil {
		fmt.Fprintf(stderr, "predict_sentiment: %v\n", err)
		return 1
	}
	if err := predict.WriteResult(stdout, scorer.Score(args[0])); err != nil {
		fmt.Fprintf(stderr, "predict_sentiment: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, predict.ArtifactDir))
}
