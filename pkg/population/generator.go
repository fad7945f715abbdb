package population

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
	"github.com/ishanwen-byte/plantevolve-go/pkg/inventory"
)

// DefaultMaxSamples bounds rejection sampling for a single position
const DefaultMaxSamples = 1_000_000

// ErrSamplingExhausted is returned when sampling could not find an inside
// point within the sample budget
var ErrSamplingExhausted = errors.New("population: no inside point found within sample budget")

// Generator creates random, domain-aware individuals. It does not look at
// overlap between genes; that is left to fitness evaluation.
type Generator struct {
	domain     domain.Domain
	slots      []inventory.Slot
	maxSamples int
}

// NewGenerator builds a generator for genomes laid out as slots
func NewGenerator(d domain.Domain, slots []inventory.Slot) (*Generator, error) {
	if d == nil {
		return nil, fmt.Errorf("population: domain is required")
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("population: genome size must be positive")
	}
	own := make([]inventory.Slot, len(slots))
	copy(own, slots)
	return &Generator{domain: d, slots: own, maxSamples: DefaultMaxSamples}, nil
}

// SetMaxSamples overrides the rejection sampling budget per position
func (g *Generator) SetMaxSamples(n int) {
	if n > 0 {
		g.maxSamples = n
	}
}

// Domain returns the region genes are sampled in
func (g *Generator) Domain() domain.Domain {
	return g.domain
}

// GenomeSize returns the number of genes per individual
func (g *Generator) GenomeSize() int {
	return len(g.slots)
}

// Slot returns the metadata template of gene i
func (g *Generator) Slot(i int) inventory.Slot {
	return g.slots[i]
}

// SamplePosition draws (x, y) uniformly from the domain. Shapes with a
// direct sampler (bands and rings) use it; the rest are drawn from the
// bounding box until the point is inside.
func (g *Generator) SamplePosition(rng *rand.Rand) (float64, float64, error) {
	box := g.domain.BoundingBox()
	sampler, direct := g.domain.(domain.Sampler)
	for i := 0; i < g.maxSamples; i++ {
		var x, y float64
		if direct {
			x, y = sampler.Sample(rng)
		} else {
			x = box.MinX + rng.Float64()*box.Width
			y = box.MinY + rng.Float64()*box.Height
		}
		if !g.domain.IsPointOutside(x, y) {
			return x, y, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s after %d samples", ErrSamplingExhausted, domain.Describe(g.domain), g.maxSamples)
}

// Individual creates one random individual
func (g *Generator) Individual(rng *rand.Rand) (genome.Individual, error) {
	points := make([]genome.Point, len(g.slots))
	for i, slot := range g.slots {
		x, y, err := g.SamplePosition(rng)
		if err != nil {
			return genome.Individual{}, err
		}
		points[i] = slot.Point(x, y)
	}
	return genome.NewIndividual(points), nil
}

// Population creates size random individuals. On error no partial
// population is returned.
func (g *Generator) Population(rng *rand.Rand, size int) ([]genome.Individual, error) {
	if size <= 0 {
		return nil, fmt.Errorf("population: size must be positive, got %d", size)
	}
	pop := make([]genome.Individual, size)
	for i := range pop {
		ind, err := g.Individual(rng)
		if err != nil {
			return nil, fmt.Errorf("individual %d: %w", i, err)
		}
		pop[i] = ind
	}
	return pop, nil
}
