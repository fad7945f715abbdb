package operators

import (
	"math/rand"

	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// Sampler draws a random position inside the domain
type Sampler interface {
	SamplePosition(rng *rand.Rand) (float64, float64, error)
}

// Mutate returns a copy of ind in which every gene, independently with
// probability pm, is moved to a fresh in-domain position drawn from s.
// Radius and plant metadata are kept. The second return value is the number
// of genes moved.
func Mutate(ind genome.Individual, pm float64, s Sampler, rng *rand.Rand) (genome.Individual, int, error) {
	if err := ValidateProbability("mutation", pm); err != nil {
		return genome.Individual{}, 0, err
	}

	out := ind.Clone()
	moved := 0
	for k := 0; k < out.Len(); k++ {
		if rng.Float64() >= pm {
			continue
		}
		x, y, err := s.SamplePosition(rng)
		if err != nil {
			return genome.Individual{}, 0, err
		}
		out.SetGene(k, out.Gene(k).WithPosition(x, y))
		moved++
	}
	return out, moved, nil
}
