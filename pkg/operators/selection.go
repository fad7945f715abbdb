package operators

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// ErrUnknownSelector is returned by GetSelector for unregistered names
var ErrUnknownSelector = errors.New("operators: unknown selection strategy")

// Selector picks one parent. Higher fitness must never lower the chance of
// being picked.
type Selector interface {
	Name() string
	Select(pop []genome.Individual, fitness []float64, rng *rand.Rand) genome.Individual
}

// SelectorConfig carries the tunables selection strategies may use
type SelectorConfig struct {
	TournamentSize int
}

var selectors = map[string]func(cfg SelectorConfig) Selector{}

// RegisterSelector adds a selection strategy constructor to the registry
func RegisterSelector(name string, constructor func(cfg SelectorConfig) Selector) {
	selectors[name] = constructor
}

// GetSelector returns a selection strategy by name
func GetSelector(name string, cfg SelectorConfig) (Selector, error) {
	ctor, ok := selectors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownSelector, name, strings.Join(SelectorNames(), ", "))
	}
	return ctor(cfg), nil
}

// SelectorNames returns all registered selection strategy names, sorted
func SelectorNames() []string {
	names := make([]string, 0, len(selectors))
	for k := range selectors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterSelector("tournament", func(cfg SelectorConfig) Selector {
		return &TournamentSelector{Size: cfg.TournamentSize}
	})
	RegisterSelector("roulette", func(SelectorConfig) Selector { return &RouletteSelector{} })
	RegisterSelector("rank", func(SelectorConfig) Selector { return &RankSelector{} })
}

// TournamentSelector samples Size individuals with replacement and returns
// the fittest of them
type TournamentSelector struct {
	Size int
}

func (s *TournamentSelector) Name() string { return "tournament" }

func (s *TournamentSelector) Select(pop []genome.Individual, fitness []float64, rng *rand.Rand) genome.Individual {
	size := s.Size
	if size < 1 {
		size = 2
	}

	bestIdx := rng.Intn(len(pop))
	for i := 1; i < size; i++ {
		idx := rng.Intn(len(pop))
		if fitness[idx] > fitness[bestIdx] {
			bestIdx = idx
		}
	}
	return pop[bestIdx]
}

// RouletteSelector picks with probability proportional to fitness shifted so
// that the weakest individual keeps a small positive share
type RouletteSelector struct{}

func (s *RouletteSelector) Name() string { return "roulette" }

func (s *RouletteSelector) Select(pop []genome.Individual, fitness []float64, rng *rand.Rand) genome.Individual {
	lo, hi := fitness[0], fitness[0]
	for _, f := range fitness[1:] {
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	if hi == lo {
		return pop[rng.Intn(len(pop))]
	}

	offset := (hi - lo) / float64(len(fitness))
	weights := make([]float64, len(fitness))
	for i, f := range fitness {
		weights[i] = f - lo + offset
	}
	return pop[spin(weights, rng)]
}

// RankSelector picks with probability proportional to fitness rank. Ties
// share the average of their ranks.
type RankSelector struct{}

func (s *RankSelector) Name() string { return "rank" }

func (s *RankSelector) Select(pop []genome.Individual, fitness []float64, rng *rand.Rand) genome.Individual {
	return pop[spin(Ranks(fitness), rng)]
}

// Ranks returns 1-based ascending ranks of fitness, averaging ties
func Ranks(fitness []float64) []float64 {
	n := len(fitness)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return fitness[idx[a]] < fitness[idx[b]] })

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && fitness[idx[end]] == fitness[idx[start]] {
			end++
		}
		// positions start..end-1 hold ranks start+1..end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}

// spin performs one roulette wheel draw over non-negative weights
func spin(weights []float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
