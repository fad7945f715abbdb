package operators

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// ErrInvalidProbability indicates a probability outside [0, 1]
var ErrInvalidProbability = errors.New("operators: probability out of range")

// ErrLengthMismatch indicates parents of different genome sizes
var ErrLengthMismatch = errors.New("operators: parents differ in length")

// ValidateProbability checks that p lies in the closed interval [0, 1]
func ValidateProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %s=%v", ErrInvalidProbability, name, p)
	}
	return nil
}

// Crossover performs uniform crossover. With probability pc every gene of
// the child is taken from p1 or p2 by a fair coin; otherwise the child is a
// copy of one parent picked by a fair coin. The child always owns a fresh
// gene slice.
func Crossover(p1, p2 genome.Individual, pc float64, rng *rand.Rand) (genome.Individual, error) {
	if p1.Len() != p2.Len() {
		return genome.Individual{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, p1.Len(), p2.Len())
	}
	if err := ValidateProbability("crossover", pc); err != nil {
		return genome.Individual{}, err
	}

	if rng.Float64() >= pc {
		if rng.Intn(2) == 0 {
			return p1.Clone(), nil
		}
		return p2.Clone(), nil
	}

	genes := make([]genome.Point, p1.Len())
	for k := range genes {
		if rng.Intn(2) == 0 {
			genes[k] = p1.Gene(k)
		} else {
			genes[k] = p2.Gene(k)
		}
	}
	return genome.NewIndividual(genes), nil
}
