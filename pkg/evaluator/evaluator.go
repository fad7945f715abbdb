package evaluator

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// Score is the evaluation of one individual
type Score struct {
	// Fitness is the ranking value, higher is better
	Fitness float64 `json:"fitness"`
	// DomainViolations counts genes whose center lies outside the domain
	DomainViolations int `json:"domain_violations"`
	// OverlapPenalty is the unweighted sum of squared pair intrusions
	OverlapPenalty float64 `json:"overlap_penalty"`
	// OverlappingPairs counts pairs closer than the sum of their radii
	OverlappingPairs int `json:"overlapping_pairs"`
	// PairsEvaluated is the number of unordered pairs examined
	PairsEvaluated int `json:"pairs_evaluated"`
}

// Penalty returns the unweighted total penalty
func (s Score) Penalty() float64 {
	return float64(s.DomainViolations) + s.OverlapPenalty
}

// Valid reports whether the layout has zero penalty. Counts are used rather
// than the float sum so that an intrusion too small to survive squaring is
// still rejected.
func (s Score) Valid() bool {
	return s.DomainViolations == 0 && s.OverlappingPairs == 0
}

// Overlap is the result of a pairwise overlap scan
type Overlap struct {
	Penalty          float64
	OverlappingPairs int
	PairsEvaluated   int
}

// CalculateOverlap scans every unordered pair (i, j), i < j, once. A pair
// whose centers are closer than r_i + r_j contributes (r_i + r_j - d)^2.
func CalculateOverlap(genes []genome.Point) Overlap {
	var o Overlap
	for i := 0; i < len(genes); i++ {
		for j := i + 1; j < len(genes); j++ {
			o.PairsEvaluated++
			required := genes[i].Radius + genes[j].Radius
			// compare squared distances first and only take the root on overlap
			if genome.DistanceSquared(genes[i], genes[j]) >= required*required {
				continue
			}
			actual := genome.Distance(genes[i], genes[j])
			if actual >= required {
				continue
			}
			gap := required - actual
			o.Penalty += gap * gap
			o.OverlappingPairs++
		}
	}
	return o
}

// Evaluator computes fitness for individuals placed in one domain
type Evaluator struct {
	config  types.FitnessConfig
	domain  domain.Domain
	workers int
	logger  *logrus.Logger
}

// New creates a new Evaluator instance
func New(config types.FitnessConfig, d domain.Domain, workers int) (*Evaluator, error) {
	if d == nil {
		return nil, fmt.Errorf("evaluator: domain is required")
	}
	// a zero weight would let invalid layouts score like valid ones
	if !(config.DomainWeight > 0) || !(config.OverlapWeight > 0) {
		return nil, fmt.Errorf("evaluator: penalty weights must be positive")
	}
	if workers <= 0 {
		workers = 1
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"domain":         domain.Describe(d),
		"base_score":     config.BaseScore,
		"domain_weight":  config.DomainWeight,
		"overlap_weight": config.OverlapWeight,
		"workers":        workers,
	}).Debug("Initialized evaluator")

	return &Evaluator{
		config:  config,
		domain:  d,
		workers: workers,
		logger:  logger,
	}, nil
}

// SetLogger replaces the evaluator's logger
func (e *Evaluator) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Domain returns the domain individuals are evaluated against
func (e *Evaluator) Domain() domain.Domain {
	return e.domain
}

// Evaluate scores one individual:
//
//	fitness = base - domainWeight*violations - overlapWeight*sum(overlap)
func (e *Evaluator) Evaluate(ind genome.Individual) Score {
	overlap := CalculateOverlap(ind.Genes())
	violations := domain.CountOutside(e.domain, ind)

	return Score{
		Fitness: e.config.BaseScore -
			e.config.DomainWeight*float64(violations) -
			e.config.OverlapWeight*overlap.Penalty,
		DomainViolations: violations,
		OverlapPenalty:   overlap.Penalty,
		OverlappingPairs: overlap.OverlappingPairs,
		PairsEvaluated:   overlap.PairsEvaluated,
	}
}

// EvaluateBatch scores a whole population using up to workers goroutines.
// Scores are returned in population order.
func (e *Evaluator) EvaluateBatch(pop []genome.Individual) []Score {
	scores := make([]Score, len(pop))
	if e.workers == 1 || len(pop) < 2 {
		for i, ind := range pop {
			scores[i] = e.Evaluate(ind)
		}
		return scores
	}

	p := pool.New().WithMaxGoroutines(e.workers)
	for i := range pop {
		i := i
		p.Go(func() {
			// each goroutine writes only its own slot
			scores[i] = e.Evaluate(pop[i])
		})
	}
	p.Wait()

	return scores
}
