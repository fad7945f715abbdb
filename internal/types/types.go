package types

import (
	"time"

	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
	"github.com/ishanwen-byte/plantevolve-go/pkg/inventory"
)

// Outcome tells how a run ended
type Outcome string

const (
	// OutcomeConverged means a valid layout was found
	OutcomeConverged Outcome = "converged"
	// OutcomeExhausted means every attempt ran without finding a valid layout
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeTimedOut means the wall clock budget ran out first
	OutcomeTimedOut Outcome = "timed_out"
)

// EvolutionResult is the single value a run hands to view, export and
// persistence collaborators
type EvolutionResult struct {
	RunID       string            `json:"run_id"`
	Outcome     Outcome           `json:"outcome"`
	Best        genome.Individual `json:"best"`
	Fitness     float64           `json:"fitness"`
	Penalty     float64           `json:"penalty"`
	Attempt     int               `json:"attempt"`
	MaxAttempts int               `json:"max_attempts"`
	Seed        int64             `json:"seed"`
	Elapsed     time.Duration     `json:"elapsed"`
	StartedAt   time.Time         `json:"started_at"`
	Domain      DomainConfig      `json:"domain"`
	Attempts    []AttemptSummary  `json:"attempts,omitempty"`
}

// Converged reports whether Best is a valid layout
func (r EvolutionResult) Converged() bool {
	return r.Outcome == OutcomeConverged
}

// AttemptSummary records the candidate of one attempt
type AttemptSummary struct {
	Attempt     int           `json:"attempt"`
	Generations int           `json:"generations"`
	BestFitness float64       `json:"best_fitness"`
	Penalty     float64       `json:"penalty"`
	Valid       bool          `json:"valid"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
	History     []float64     `json:"history,omitempty"`
}

// Config represents the main configuration
type Config struct {
	Domain    DomainConfig        `yaml:"domain" json:"domain"`
	Inventory []inventory.Variety `yaml:"inventory" json:"inventory"`
	Evolution EvolutionConfig     `yaml:"evolution" json:"evolution"`
	Fitness   FitnessConfig       `yaml:"fitness" json:"fitness"`
	Output    OutputConfig        `yaml:"output" json:"output"`
}

// DomainConfig names a registered domain type and its parameters
type DomainConfig struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params" json:"params"`
}

// EvolutionConfig drives the generational loop
type EvolutionConfig struct {
	GenomeSize           int     `yaml:"genome_size" json:"genome_size"`
	PopulationSize       int     `yaml:"population_size" json:"population_size"`
	Generations          int     `yaml:"generations" json:"generations"`
	MaxAttempts          int     `yaml:"max_attempts" json:"max_attempts"`
	CrossoverProbability float64 `yaml:"crossover_probability" json:"crossover_probability"`
	MutationProbability  float64 `yaml:"mutation_probability" json:"mutation_probability"`
	EliteCount           int     `yaml:"elite_count" json:"elite_count"`
	Selection            string  `yaml:"selection" json:"selection"`
	TournamentSize       int     `yaml:"tournament_size" json:"tournament_size"`
	Seed                 int64   `yaml:"seed" json:"seed"`
	TimeoutSeconds       int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	Workers              int     `yaml:"workers" json:"workers"`
	Verbose              bool    `yaml:"verbose" json:"verbose"`
}

// FitnessConfig weights the penalty terms
type FitnessConfig struct {
	BaseScore     float64 `yaml:"base_score" json:"base_score"`
	DomainWeight  float64 `yaml:"domain_weight" json:"domain_weight"`
	OverlapWeight float64 `yaml:"overlap_weight" json:"overlap_weight"`
}

// OutputConfig controls export and persistence of results
type OutputConfig struct {
	Dir       string   `yaml:"dir" json:"dir"`
	Formats   []string `yaml:"formats" json:"formats"`
	Store     string   `yaml:"store" json:"store"`
	StorePath string   `yaml:"store_path" json:"store_path"`
}
