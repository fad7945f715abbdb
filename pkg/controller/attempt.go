package controller

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/evaluator"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
	"github.com/ishanwen-byte/plantevolve-go/pkg/operators"
)

// AttemptResult represents the result of a single attempt
type AttemptResult struct {
	Attempt     int                  `json:"attempt"`
	Best        genome.Individual    `json:"best"`
	Score       evaluator.Score      `json:"score"`
	Report      evaluator.GateReport `json:"report"`
	Generations int                  `json:"generations"`
	History     []float64            `json:"history"`
	Duration    time.Duration        `json:"duration"`
	Interrupted bool                 `json:"interrupted"`
}

// Summary converts the attempt to the form stored in EvolutionResult
func (ar *AttemptResult) Summary() types.AttemptSummary {
	history := make([]float64, len(ar.History))
	copy(history, ar.History)
	return types.AttemptSummary{
		Attempt:     ar.Attempt,
		Generations: ar.Generations,
		BestFitness: ar.Score.Fitness,
		Penalty:     ar.Score.Penalty(),
		Valid:       ar.Report.Valid,
		FailedStage: ar.Report.FailedStage,
		Elapsed:     ar.Duration,
		History:     history,
	}
}

// GetAttemptStats returns statistics about the attempt
func (ar *AttemptResult) GetAttemptStats() map[string]interface{} {
	stats := map[string]interface{}{
		"attempt":           ar.Attempt,
		"generations":       ar.Generations,
		"duration_ms":       ar.Duration.Milliseconds(),
		"best_fitness":      ar.Score.Fitness,
		"domain_violations": ar.Score.DomainViolations,
		"overlapping_pairs": ar.Score.OverlappingPairs,
		"valid":             ar.Report.Valid,
	}

	if len(ar.History) > 1 {
		stats["fitness_gain"] = ar.History[len(ar.History)-1] - ar.History[0]
	}
	if ar.Interrupted {
		stats["interrupted"] = true
	}

	return stats
}

// runAttempt evolves one fresh population for up to Generations generations.
// The stop check runs between generations only. The attempt ends early once
// its best individual is valid.
func (c *Controller) runAttempt(ctx context.Context, attempt int, deadline time.Time) (*AttemptResult, error) {
	c.logger.WithField("attempt", attempt).Debug("Starting attempt")

	startTime := time.Now()
	result := &AttemptResult{Attempt: attempt}

	pop, err := c.generator.Population(c.rng, c.config.PopulationSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize population: %w", err)
	}
	scores := c.evaluator.EvaluateBatch(pop)
	best := bestIndex(scores)
	result.History = append(result.History, scores[best].Fitness)

	for gen := 1; gen <= c.config.Generations; gen++ {
		if scores[best].Valid() {
			break
		}
		if stopped(ctx, deadline) {
			result.Interrupted = true
			break
		}

		pop, err = c.nextGeneration(pop, scores)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		scores = c.evaluator.EvaluateBatch(pop)
		best = bestIndex(scores)
		result.History = append(result.History, scores[best].Fitness)
		result.Generations = gen

		c.logger.WithFields(logrus.Fields{
			"attempt":    attempt,
			"generation": gen,
			"best":       scores[best].Fitness,
			"penalty":    scores[best].Penalty(),
		}).Debug("Generation completed")
	}

	result.Best = pop[best].Clone()
	result.Score = scores[best]
	result.Report = c.gate.Check(result.Best)
	result.Duration = time.Since(startTime)

	c.logger.WithFields(logrus.Fields(result.GetAttemptStats())).Info("Attempt completed")

	return result, nil
}

// nextGeneration builds a same-size population: the EliteCount fittest
// individuals unchanged, the rest by selection, crossover and mutation
func (c *Controller) nextGeneration(pop []genome.Individual, scores []evaluator.Score) ([]genome.Individual, error) {
	fitness := make([]float64, len(scores))
	for i, s := range scores {
		fitness[i] = s.Fitness
	}

	next := make([]genome.Individual, 0, len(pop))
	for _, idx := range rankByFitness(fitness)[:c.config.EliteCount] {
		next = append(next, pop[idx].Clone())
	}

	for len(next) < len(pop) {
		p1 := c.selector.Select(pop, fitness, c.rng)
		p2 := c.selector.Select(pop, fitness, c.rng)
		child, err := operators.Crossover(p1, p2, c.config.CrossoverProbability, c.rng)
		if err != nil {
			return nil, err
		}
		child, _, err = operators.Mutate(child, c.config.MutationProbability, c.generator, c.rng)
		if err != nil {
			return nil, err
		}
		next = append(next, child)
	}
	return next, nil
}

// bestIndex returns the index of the highest fitness. On ties a valid score
// wins, then the first.
func bestIndex(scores []evaluator.Score) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		switch {
		case scores[i].Fitness > scores[best].Fitness:
			best = i
		case scores[i].Fitness == scores[best].Fitness && scores[i].Valid() && !scores[best].Valid():
			best = i
		}
	}
	return best
}

// rankByFitness returns indices ordered from fittest to weakest
func rankByFitness(fitness []float64) []int {
	idx := make([]int, len(fitness))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return fitness[idx[a]] > fitness[idx[b]] })
	return idx
}

func stopped(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && !time.Now().Before(deadline)
}
