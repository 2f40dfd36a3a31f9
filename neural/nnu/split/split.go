// Package split partitions example indices into training and validation sets.
package split

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// DefaultSeed reproduces the reference split.
const DefaultSeed uint64 = 42

// TrainValidation shuffles 0..n-1 with seed and returns the training and
// validation indices, each sorted ascending. The validation side gets
// ceil(fraction*n) examples. The same n, fraction and seed always produce
// the same partition.
func TrainValidation(n int, fraction float64, seed uint64) (train, validation []int, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("validation fraction %v must be in (0, 1)", fraction)
	}
	nVal := int(math.Ceil(fraction * float64(n)))
	nTrain := n - nVal
	if nVal <= 0 || nTrain <= 0 {
		return nil, nil, fmt.Errorf("cannot split %d examples with validation fraction %v", n, fraction)
	}

	r := rand.New(rand.NewSource(seed))
	perm := r.Perm(n)

	validation = append([]int(nil), perm[:nVal]...)
	train = append([]int(nil), perm[nVal:]...)
	sort.Ints(validation)
	sort.Ints(train)
	return train, validation, nil
}
