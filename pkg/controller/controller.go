// Package controller runs the attempt loop: each attempt evolves a fresh
// population and its best individual is checked by the validity gate. Runs
// end converged, exhausted or timed out; only configuration problems are
// returned as errors.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/evaluator"
	"github.com/ishanwen-byte/plantevolve-go/pkg/inventory"
	"github.com/ishanwen-byte/plantevolve-go/pkg/operators"
	"github.com/ishanwen-byte/plantevolve-go/pkg/population"
)

// ErrInvalidConfig is wrapped by every configuration error New reports
var ErrInvalidConfig = errors.New("controller: invalid configuration")

// State of a controller
type State int

const (
	StateIdle State = iota
	StateRunning
	StateConverged
	StateExhausted
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	case StateTimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Controller owns everything one run needs. It is not safe for concurrent
// use.
type Controller struct {
	config    types.EvolutionConfig
	domainCfg types.DomainConfig
	domain    domain.Domain
	generator *population.Generator
	evaluator *evaluator.Evaluator
	gate      *evaluator.Gate
	selector  operators.Selector
	listeners []Listener
	seed      int64
	rng       *rand.Rand
	state     State
	logger    *logrus.Logger
}

// ValidateEvolution checks the generational parameters. Genome size 0 is
// accepted here because it may be derived from inventory quantities.
func ValidateEvolution(cfg types.EvolutionConfig) error {
	if cfg.GenomeSize < 0 {
		return fmt.Errorf("%w: genome_size must be positive, got %d", ErrInvalidConfig, cfg.GenomeSize)
	}
	if cfg.PopulationSize <= 0 {
		return fmt.Errorf("%w: population_size must be positive, got %d", ErrInvalidConfig, cfg.PopulationSize)
	}
	if cfg.Generations <= 0 {
		return fmt.Errorf("%w: generations must be positive, got %d", ErrInvalidConfig, cfg.Generations)
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive, got %d", ErrInvalidConfig, cfg.MaxAttempts)
	}
	if err := operators.ValidateProbability("crossover_probability", cfg.CrossoverProbability); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := operators.ValidateProbability("mutation_probability", cfg.MutationProbability); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return fmt.Errorf("%w: elite_count must be within [0, %d], got %d", ErrInvalidConfig, cfg.PopulationSize, cfg.EliteCount)
	}
	if cfg.TournamentSize < 0 {
		return fmt.Errorf("%w: tournament_size must not be negative, got %d", ErrInvalidConfig, cfg.TournamentSize)
	}
	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: timeout_seconds must not be negative, got %d", ErrInvalidConfig, cfg.TimeoutSeconds)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, cfg.Workers)
	}
	if _, err := operators.GetSelector(selectionName(cfg), operators.SelectorConfig{}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// New validates cfg and builds the domain, slot layout, evaluator and
// selector. Nothing is returned on error.
func New(cfg types.Config) (*Controller, error) {
	evo := cfg.Evolution
	if err := ValidateEvolution(evo); err != nil {
		return nil, err
	}

	d, err := domain.Build(cfg.Domain.Type, cfg.Domain.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	inv, err := inventory.New(cfg.Inventory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	size, err := inv.GenomeSize(evo.GenomeSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	evo.GenomeSize = size

	seed := evo.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	// slot metadata is fixed for the whole run so every individual shares it
	slots, err := inv.Assign(size, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	gen, err := population.NewGenerator(d, slots)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// a domain no position can be drawn from fails here, not mid-run; the
	// separate source keeps the run's draws unchanged
	if _, _, err := gen.SamplePosition(rand.New(rand.NewSource(seed))); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	workers := evo.Workers
	if workers == 0 {
		workers = constants.DefaultWorkers
	}
	eval, err := evaluator.New(cfg.Fitness, d, workers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	tournament := evo.TournamentSize
	if tournament == 0 {
		tournament = constants.DefaultTournamentSize
	}
	sel, err := operators.GetSelector(selectionName(evo), operators.SelectorConfig{TournamentSize: tournament})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if evo.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	c := &Controller{
		config:    evo,
		domainCfg: cfg.Domain,
		domain:    d,
		generator: gen,
		evaluator: eval,
		selector:  sel,
		seed:      seed,
		rng:       rng,
		state:     StateIdle,
		logger:    logger,
	}
	c.SetLogger(logger)
	return c, nil
}

// SetLogger replaces the logger used by the controller, its evaluator and
// its gate
func (c *Controller) SetLogger(logger *logrus.Logger) {
	if logger == nil {
		return
	}
	c.logger = logger
	c.evaluator.SetLogger(logger)
	c.gate = c.evaluator.NewGate()
}

// AddListener registers a progress listener
func (c *Controller) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Seed returns the seed actually used, which differs from the configured
// one when that was 0
func (c *Controller) Seed() int64 {
	return c.seed
}

// GenomeSize returns the resolved genome length
func (c *Controller) GenomeSize() int {
	return c.config.GenomeSize
}

// Domain returns the domain layouts are placed in
func (c *Controller) Domain() domain.Domain {
	return c.domain
}

// Run executes attempts until one yields a valid layout, the attempt budget
// is spent, or ctx or the configured timeout stops it. A well-formed result
// is returned in all three cases. An error means a run could not proceed at
// all, e.g. a domain too thin to sample.
func (c *Controller) Run(ctx context.Context) (types.EvolutionResult, error) {
	startTime := time.Now()
	var deadline time.Time
	if c.config.TimeoutSeconds > 0 {
		deadline = startTime.Add(time.Duration(c.config.TimeoutSeconds) * time.Second)
	}

	result := types.EvolutionResult{
		RunID:       uuid.New().String(),
		MaxAttempts: c.config.MaxAttempts,
		Seed:        c.seed,
		StartedAt:   startTime,
		Domain:      c.domainCfg,
	}

	c.state = StateRunning
	c.logger.WithFields(logrus.Fields{
		"run_id":       result.RunID,
		"domain":       domain.Describe(c.domain),
		"genome_size":  c.config.GenomeSize,
		"population":   c.config.PopulationSize,
		"generations":  c.config.Generations,
		"max_attempts": c.config.MaxAttempts,
		"seed":         c.seed,
	}).Info("Starting evolution")
	for _, l := range c.listeners {
		l.OnStart(result.RunID, c.config)
	}

	var best *AttemptResult
	outcome := types.OutcomeExhausted

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		// the first attempt always runs so a candidate exists
		if attempt > 1 && stopped(ctx, deadline) {
			outcome = types.OutcomeTimedOut
			break
		}

		ar, err := c.runAttempt(ctx, attempt, deadline)
		if err != nil {
			c.state = StateIdle
			return types.EvolutionResult{}, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		result.Attempts = append(result.Attempts, ar.Summary())

		if best == nil || ar.Score.Fitness > best.Score.Fitness {
			best = ar
		}

		if ar.Report.Valid {
			best = ar
			outcome = types.OutcomeConverged
			for _, l := range c.listeners {
				l.OnSuccess(attempt, time.Since(startTime).Seconds())
			}
			break
		}

		for _, l := range c.listeners {
			l.OnAttemptFailed(attempt, c.config.MaxAttempts, ar.Duration.Seconds(), ar.Report)
		}
		if ar.Interrupted {
			outcome = types.OutcomeTimedOut
			break
		}
	}

	result.Outcome = outcome
	result.Best = best.Best.Clone()
	result.Fitness = best.Score.Fitness
	result.Penalty = best.Score.Penalty()
	result.Attempt = best.Attempt
	result.Elapsed = time.Since(startTime)

	fields := logrus.Fields{
		"run_id":   result.RunID,
		"outcome":  result.Outcome,
		"attempt":  result.Attempt,
		"fitness":  result.Fitness,
		"penalty":  result.Penalty,
		"attempts": len(result.Attempts),
		"elapsed":  result.Elapsed,
	}
	switch outcome {
	case types.OutcomeConverged:
		c.state = StateConverged
		c.logger.WithFields(fields).Info("Evolution converged")
	case types.OutcomeTimedOut:
		c.state = StateTimedOut
		c.logger.WithFields(fields).Warn("Evolution stopped before convergence, returning best effort")
	default:
		c.state = StateExhausted
		c.logger.WithFields(fields).Warn("Attempt budget exhausted, returning best effort")
	}

	return result, nil
}

func selectionName(cfg types.EvolutionConfig) string {
	if cfg.Selection == "" {
		return constants.SelectionTournament
	}
	return cfg.Selection
}
