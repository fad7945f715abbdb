package controller

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/evaluator"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
	"github.com/ishanwen-byte/plantevolve-go/pkg/inventory"
	"github.com/ishanwen-byte/plantevolve-go/pkg/operators"
)

type recordingListener struct {
	starts  int
	failed  []int
	maxSeen []int
	success []int
}

func (r *recordingListener) OnStart(string, types.EvolutionConfig) { r.starts++ }

func (r *recordingListener) OnAttemptFailed(attempt, maxAttempts int, _ float64, report evaluator.GateReport) {
	r.failed = append(r.failed, attempt)
	r.maxSeen = append(r.maxSeen, maxAttempts)
}

func (r *recordingListener) OnSuccess(attempt int, _ float64) { r.success = append(r.success, attempt) }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// roomyConfig places a few small plants in a large garden
func roomyConfig() types.Config {
	return types.Config{
		Domain: types.DomainConfig{Type: "rectangle", Params: map[string]float64{"width": 100, "height": 100}},
		Inventory: []inventory.Variety{
			{PlantType: genome.PlantShrub, VarietyID: 1, VarietyName: "boxwood", Radius: 1, Weight: 1},
		},
		Evolution: types.EvolutionConfig{
			GenomeSize:           5,
			PopulationSize:       20,
			Generations:          50,
			MaxAttempts:          3,
			CrossoverProbability: 0.8,
			MutationProbability:  0.1,
			EliteCount:           1,
			Selection:            "tournament",
			TournamentSize:       3,
			Seed:                 7,
			Workers:              2,
		},
		Fitness: types.FitnessConfig{BaseScore: 1000, DomainWeight: 100, OverlapWeight: 10},
	}
}

// crampedConfig cannot be solved: twenty plants of radius 1.5 in a circle
// of radius 2
func crampedConfig() types.Config {
	cfg := roomyConfig()
	cfg.Domain = types.DomainConfig{Type: "circle", Params: map[string]float64{"radius": 2}}
	cfg.Inventory[0].Radius = 1.5
	cfg.Evolution.GenomeSize = 20
	cfg.Evolution.PopulationSize = 10
	cfg.Evolution.Generations = 15
	cfg.Evolution.MaxAttempts = 1
	return cfg
}

func newController(t *testing.T, cfg types.Config) *Controller {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	c.SetLogger(quietLogger())
	return c
}

func TestRunConverges(t *testing.T) {
	c := newController(t, roomyConfig())
	rec := &recordingListener{}
	c.AddListener(rec)
	assert.Equal(t, StateIdle, c.State())

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeConverged, result.Outcome)
	assert.True(t, result.Converged())
	assert.Equal(t, StateConverged, c.State())
	assert.Equal(t, 5, result.Best.Len())
	assert.Equal(t, 0.0, result.Penalty)
	assert.Equal(t, 1000.0, result.Fitness)
	assert.GreaterOrEqual(t, result.Attempt, 1)
	assert.Equal(t, 3, result.MaxAttempts)
	assert.Equal(t, int64(7), result.Seed)
	assert.Equal(t, "rectangle", result.Domain.Type)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, []int{result.Attempt}, rec.success)
	assert.Len(t, rec.failed, result.Attempt-1)

	// the returned layout re-evaluates to zero penalty
	d, err := domain.Build("rectangle", map[string]float64{"width": 100, "height": 100})
	require.NoError(t, err)
	e, err := evaluator.New(roomyConfig().Fitness, d, 1)
	require.NoError(t, err)
	score := e.Evaluate(result.Best)
	assert.True(t, score.Valid())
	assert.Equal(t, 0.0, score.Penalty())

	for k := 0; k < result.Best.Len(); k++ {
		g := result.Best.Gene(k)
		assert.Equal(t, 1.0, g.Radius)
		assert.Equal(t, genome.PlantShrub, g.PlantType)
		assert.Equal(t, "boxwood", g.VarietyName)
	}
}

func TestRunReportsExhaustion(t *testing.T) {
	c := newController(t, crampedConfig())
	rec := &recordingListener{}
	c.AddListener(rec)

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeExhausted, result.Outcome)
	assert.False(t, result.Converged())
	assert.Equal(t, StateExhausted, c.State())
	assert.Equal(t, 1, result.Attempt)
	require.Len(t, result.Attempts, 1)
	assert.False(t, result.Attempts[0].Valid)
	assert.Equal(t, evaluator.StageOverlap, result.Attempts[0].FailedStage)
	assert.Equal(t, 15, result.Attempts[0].Generations)
	assert.Equal(t, 20, result.Best.Len())
	assert.Greater(t, result.Penalty, 0.0)

	// the reported penalty is the full penalty of the returned layout
	cfg := crampedConfig()
	d, err := domain.Build(cfg.Domain.Type, cfg.Domain.Params)
	require.NoError(t, err)
	e, err := evaluator.New(cfg.Fitness, d, 1)
	require.NoError(t, err)
	score := e.Evaluate(result.Best)
	assert.Equal(t, score.Penalty(), result.Penalty)
	assert.Equal(t, score.Fitness, result.Fitness)
	assert.Equal(t, score.Penalty(), result.Attempts[0].Penalty)

	assert.Equal(t, []int{1}, rec.failed)
	assert.Equal(t, []int{1}, rec.maxSeen)
	assert.Empty(t, rec.success)
}

func TestRunRetriesUpToMaxAttempts(t *testing.T) {
	cfg := crampedConfig()
	cfg.Evolution.MaxAttempts = 3
	cfg.Evolution.Generations = 3
	c := newController(t, cfg)
	rec := &recordingListener{}
	c.AddListener(rec)

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeExhausted, result.Outcome)
	assert.Equal(t, []int{1, 2, 3}, rec.failed)
	assert.Equal(t, []int{3, 3, 3}, rec.maxSeen)
	require.Len(t, result.Attempts, 3)

	// the best effort candidate is the fittest across attempts
	for i, a := range result.Attempts {
		assert.Equal(t, i+1, a.Attempt)
		assert.LessOrEqual(t, a.BestFitness, result.Fitness)
	}
	assert.Equal(t, result.Attempts[result.Attempt-1].BestFitness, result.Fitness)
}

func TestElitismKeepsBestFitnessNonDecreasing(t *testing.T) {
	cfg := crampedConfig()
	cfg.Evolution.Generations = 40
	cfg.Evolution.MaxAttempts = 2
	cfg.Evolution.MutationProbability = 0.3

	for _, selection := range operators.SelectorNames() {
		t.Run(selection, func(t *testing.T) {
			cfg.Evolution.Selection = selection
			result, err := newController(t, cfg).Run(context.Background())
			require.NoError(t, err)

			for _, a := range result.Attempts {
				require.Len(t, a.History, a.Generations+1)
				for g := 1; g < len(a.History); g++ {
					assert.GreaterOrEqual(t, a.History[g], a.History[g-1],
						"attempt %d generation %d", a.Attempt, g)
				}
			}
		})
	}
}

func TestRunStopsWhenContextDone(t *testing.T) {
	cfg := crampedConfig()
	cfg.Evolution.MaxAttempts = 5
	c := newController(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := c.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeTimedOut, result.Outcome)
	assert.Equal(t, StateTimedOut, c.State())
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, 0, result.Attempts[0].Generations)
	assert.Equal(t, 20, result.Best.Len())
}

func TestRunStopsAtTimeout(t *testing.T) {
	cfg := crampedConfig()
	cfg.Evolution.TimeoutSeconds = 1
	cfg.Evolution.Generations = 1_000_000_000
	cfg.Evolution.MaxAttempts = 1000
	c := newController(t, cfg)
	rec := &recordingListener{}
	c.AddListener(rec)

	start := time.Now()
	result, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 30*time.Second)

	assert.Equal(t, types.OutcomeTimedOut, result.Outcome)
	assert.Equal(t, StateTimedOut, c.State())
	assert.False(t, result.Converged())
	assert.Equal(t, 20, result.Best.Len())
	assert.GreaterOrEqual(t, result.Elapsed, time.Second)
	require.NotEmpty(t, result.Attempts)
	last := result.Attempts[len(result.Attempts)-1]
	assert.Less(t, last.Generations, cfg.Evolution.Generations)
	assert.Len(t, rec.failed, len(result.Attempts))
	assert.Empty(t, rec.success)
}

func TestRunThinFrame(t *testing.T) {
	cfg := roomyConfig()
	cfg.Domain = types.DomainConfig{Type: "frame", Params: map[string]float64{
		"inner_width": 999.99999, "inner_height": 999.99999, "outer_width": 1000, "outer_height": 1000,
	}}
	c := newController(t, cfg)

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, StateIdle, c.State())
	require.Equal(t, 5, result.Best.Len())

	d, err := domain.Build(cfg.Domain.Type, cfg.Domain.Params)
	require.NoError(t, err)
	assert.Equal(t, 0, domain.CountOutside(d, result.Best))
}

func TestBestIndexPrefersValidOnTies(t *testing.T) {
	scores := []evaluator.Score{
		{Fitness: 990, OverlappingPairs: 1},
		{Fitness: 1000, OverlappingPairs: 1},
		{Fitness: 1000},
		{Fitness: 1000, DomainViolations: 1},
	}
	assert.Equal(t, 2, bestIndex(scores))
	assert.Equal(t, 1, bestIndex(scores[:2]))
	assert.Equal(t, 0, bestIndex([]evaluator.Score{{Fitness: 5}, {Fitness: 5}}))
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	cfg := crampedConfig()
	cfg.Evolution.Workers = 4

	first, err := newController(t, cfg).Run(context.Background())
	require.NoError(t, err)
	second, err := newController(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Best.Equal(second.Best))
	assert.Equal(t, first.Fitness, second.Fitness)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestNewDerivesGenomeSizeFromQuantities(t *testing.T) {
	cfg := roomyConfig()
	cfg.Evolution.GenomeSize = 0
	cfg.Inventory = []inventory.Variety{
		{PlantType: genome.PlantTree, VarietyID: 1, VarietyName: "oak", Radius: 3, Quantity: 2},
		{PlantType: genome.PlantHerb, VarietyID: 2, VarietyName: "basil", Radius: 0.5, Quantity: 4},
	}

	c := newController(t, cfg)
	assert.Equal(t, 6, c.GenomeSize())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, result.Best.Len())
	assert.Equal(t, "oak", result.Best.Gene(0).VarietyName)
	assert.Equal(t, "oak", result.Best.Gene(1).VarietyName)
	for k := 2; k < 6; k++ {
		assert.Equal(t, "basil", result.Best.Gene(k).VarietyName)
		assert.Equal(t, 0.5, result.Best.Gene(k).Radius)
	}
}

func TestNewPicksSeedWhenUnset(t *testing.T) {
	cfg := roomyConfig()
	cfg.Evolution.Seed = 0
	c := newController(t, cfg)

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.Seed(), result.Seed)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *types.Config)
		target error
	}{
		{"negative genome size", func(cfg *types.Config) { cfg.Evolution.GenomeSize = -1 }, nil},
		{"zero genome size without quantities", func(cfg *types.Config) { cfg.Evolution.GenomeSize = 0 }, nil},
		{"crossover above one", func(cfg *types.Config) { cfg.Evolution.CrossoverProbability = 1.5 }, operators.ErrInvalidProbability},
		{"negative mutation", func(cfg *types.Config) { cfg.Evolution.MutationProbability = -0.1 }, operators.ErrInvalidProbability},
		{"zero population", func(cfg *types.Config) { cfg.Evolution.PopulationSize = 0 }, nil},
		{"zero generations", func(cfg *types.Config) { cfg.Evolution.Generations = 0 }, nil},
		{"zero attempts", func(cfg *types.Config) { cfg.Evolution.MaxAttempts = 0 }, nil},
		{"elite above population", func(cfg *types.Config) { cfg.Evolution.EliteCount = 21 }, nil},
		{"negative timeout", func(cfg *types.Config) { cfg.Evolution.TimeoutSeconds = -1 }, nil},
		{"unknown selection", func(cfg *types.Config) { cfg.Evolution.Selection = "lottery" }, operators.ErrUnknownSelector},
		{"unknown domain", func(cfg *types.Config) { cfg.Domain.Type = "hexagon" }, domain.ErrUnknownDomainType},
		{"missing parameter", func(cfg *types.Config) { delete(cfg.Domain.Params, "height") }, domain.ErrMissingParameter},
		{"non-positive dimension", func(cfg *types.Config) { cfg.Domain.Params["width"] = 0 }, domain.ErrInvalidDimension},
		{"inverted annulus", func(cfg *types.Config) {
			cfg.Domain = types.DomainConfig{Type: "annulus", Params: map[string]float64{"inner_radius": 5, "outer_radius": 3}}
		}, domain.ErrInvalidRelation},
		{"empty inventory", func(cfg *types.Config) { cfg.Inventory = nil }, inventory.ErrEmptyInventory},
		{"quantity mismatch", func(cfg *types.Config) { cfg.Inventory[0].Quantity = 3 }, inventory.ErrQuantityMismatch},
		{"negative weights", func(cfg *types.Config) { cfg.Fitness.OverlapWeight = -1 }, nil},
		{"zero domain weight", func(cfg *types.Config) { cfg.Fitness.DomainWeight = 0 }, nil},
		{"zero overlap weight", func(cfg *types.Config) { cfg.Fitness.OverlapWeight = 0 }, nil},
		{"unknown plant type", func(cfg *types.Config) { cfg.Inventory[0].PlantType = "cactus" }, genome.ErrUnknownPlantType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := roomyConfig()
			tt.mutate(&cfg)
			c, err := New(cfg)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestAttemptResultStats(t *testing.T) {
	ar := &AttemptResult{
		Attempt:     2,
		Generations: 3,
		History:     []float64{10, 20, 20, 35},
		// containment failed, so the gate never reached the overlap stage
		Score:       evaluator.Score{Fitness: 800, DomainViolations: 1, OverlapPenalty: 2, OverlappingPairs: 1},
		Report:      evaluator.GateReport{Valid: false, FailedStage: evaluator.StageContainment, DomainViolations: 1, Penalty: 1},
		Interrupted: true,
	}

	stats := ar.GetAttemptStats()
	assert.Equal(t, 2, stats["attempt"])
	assert.Equal(t, 25.0, stats["fitness_gain"])
	assert.Equal(t, true, stats["interrupted"])
	assert.Equal(t, 1, stats["overlapping_pairs"])

	summary := ar.Summary()
	assert.Equal(t, 3.0, summary.Penalty)
	assert.Equal(t, ar.Score.Penalty(), summary.Penalty)
	assert.Equal(t, evaluator.StageContainment, summary.FailedStage)
	summary.History[0] = -1
	assert.Equal(t, 10.0, ar.History[0])
}

func TestAttemptCompletedLogCarriesStats(t *testing.T) {
	c := newController(t, roomyConfig())
	logger, hook := test.NewNullLogger()
	c.SetLogger(logger)

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	var completed *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Attempt completed" {
			completed = e
		}
	}
	require.NotNil(t, completed)
	for _, key := range []string{"attempt", "generations", "duration_ms", "best_fitness", "valid"} {
		assert.Contains(t, completed.Data, key)
	}
	assert.Equal(t, true, completed.Data["valid"])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "State(42)", State(42).String())
}
