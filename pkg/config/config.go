package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/controller"
	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
	"github.com/ishanwen-byte/plantevolve-go/pkg/inventory"
)

// Environment variables read by Load
const (
	EnvSeed        = "PLANTEVOLVE_SEED"
	EnvMaxAttempts = "PLANTEVOLVE_MAX_ATTEMPTS"
	EnvGenerations = "PLANTEVOLVE_GENERATIONS"
	EnvPopulation  = "PLANTEVOLVE_POPULATION"
	EnvOutputDir   = "PLANTEVOLVE_OUTPUT_DIR"
	EnvWorkers     = "PLANTEVOLVE_WORKERS"
	EnvVerbose     = "PLANTEVOLVE_VERBOSE"
)

// Manager handles configuration loading and validation
type Manager struct {
	config *types.Config
	path   string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	m := &Manager{
		config: getDefaultConfig(),
	}
	// fills derived paths; the defaults always validate
	_ = m.validate(m.config)
	return m
}

// Load loads configuration from a file
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := getDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate configuration
	if err := m.validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	m.path = path
	return nil
}

// Save saves configuration to a file
func (m *Manager) Save(path string) error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *types.Config {
	return m.config
}

// SetConfig updates the configuration
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetPath returns the configuration file path
func (m *Manager) GetPath() string {
	return m.path
}

// Validate checks the current configuration and fills derived defaults
func (m *Manager) Validate() error {
	return m.validate(m.config)
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (m *Manager) applyEnvOverrides(config *types.Config) error {
	if seed := os.Getenv(EnvSeed); seed != "" {
		var n int64
		if _, err := fmt.Sscanf(seed, "%d", &n); err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		config.Evolution.Seed = n
	}

	ints := []struct {
		name   string
		target *int
	}{
		{EnvMaxAttempts, &config.Evolution.MaxAttempts},
		{EnvGenerations, &config.Evolution.Generations},
		{EnvPopulation, &config.Evolution.PopulationSize},
		{EnvWorkers, &config.Evolution.Workers},
	}
	for _, o := range ints {
		value := os.Getenv(o.name)
		if value == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
			return fmt.Errorf("%s: %w", o.name, err)
		}
		*o.target = n
	}

	if outputDir := os.Getenv(EnvOutputDir); outputDir != "" {
		config.Output.Dir = outputDir
	}
	if verbose := os.Getenv(EnvVerbose); verbose != "" {
		config.Evolution.Verbose = strings.ToLower(verbose) == "true" || verbose == "1"
	}

	return nil
}

// validate validates the configuration
func (m *Manager) validate(config *types.Config) error {
	// Validate domain
	dt, err := domain.Lookup(config.Domain.Type)
	if err != nil {
		return err
	}
	config.Domain.Type = dt.Name
	config.Domain.Params = pruneParams(dt, config.Domain.Params)
	if _, err := dt.New(config.Domain.Params); err != nil {
		return err
	}

	// Validate evolution parameters
	if err := controller.ValidateEvolution(config.Evolution); err != nil {
		return err
	}

	// Validate inventory against the genome size
	inv, err := inventory.New(config.Inventory)
	if err != nil {
		return err
	}
	if _, err := inv.GenomeSize(config.Evolution.GenomeSize); err != nil {
		return err
	}

	// Validate fitness weights
	if !(config.Fitness.DomainWeight > 0) || !(config.Fitness.OverlapWeight > 0) {
		return fmt.Errorf("fitness weights must be positive")
	}

	// Validate output
	if len(config.Output.Formats) == 0 {
		config.Output.Formats = []string{constants.FormatJSON}
	}
	for i, f := range config.Output.Formats {
		f = strings.ToLower(f)
		switch f {
		case constants.FormatJSON, constants.FormatCSV, constants.FormatXLSX:
			config.Output.Formats[i] = f
		default:
			return fmt.Errorf("unknown output format: %s", f)
		}
	}
	if config.Output.Dir == "" {
		config.Output.Dir = constants.OutputDir
	}
	switch config.Output.Store {
	case "":
		config.Output.Store = constants.StoreNone
	case constants.StoreNone, constants.StoreMemory:
	case constants.StoreFile, constants.StoreSQLite, constants.StoreBadger:
		if config.Output.StorePath == "" {
			config.Output.StorePath = DefaultStorePath(config.Output)
		}
	default:
		return fmt.Errorf("unknown store: %s", config.Output.Store)
	}

	return nil
}

// DefaultStorePath is the store location derived from the output directory
// when store_path is not set. Stores without a location return "".
func DefaultStorePath(out types.OutputConfig) string {
	switch out.Store {
	case constants.StoreFile:
		return filepath.Join(out.Dir, constants.RunsDir)
	case constants.StoreSQLite:
		return filepath.Join(out.Dir, constants.SQLiteFile)
	case constants.StoreBadger:
		return filepath.Join(out.Dir, constants.BadgerDir)
	}
	return ""
}

// pruneParams drops parameters the domain type does not use, which appear
// when a file switches the type away from the default one
func pruneParams(dt domain.DomainType, params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(dt.Params))
	for _, name := range dt.Params {
		if v, ok := params[name]; ok {
			out[name] = v
		}
	}
	return out
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *types.Config {
	return &types.Config{
		Domain: types.DomainConfig{
			Type: constants.DefaultDomainType,
			Params: map[string]float64{
				domain.ParamWidth:  constants.DefaultDomainWidth,
				domain.ParamHeight: constants.DefaultDomainHeight,
			},
		},
		Inventory: []inventory.Variety{
			{PlantType: genome.PlantTree, VarietyID: 1, VarietyName: "Apple", Radius: 1.5, Quantity: 2},
			{PlantType: genome.PlantShrub, VarietyID: 2, VarietyName: "Lavender", Radius: 0.8, Quantity: 4},
			{PlantType: genome.PlantVegetable, VarietyID: 3, VarietyName: "Tomato", Radius: 0.5, Quantity: 6},
			{PlantType: genome.PlantHerb, VarietyID: 4, VarietyName: "Basil", Radius: 0.3, Quantity: 8},
		},
		Evolution: types.EvolutionConfig{
			GenomeSize:           0,
			PopulationSize:       constants.DefaultPopulationSize,
			Generations:          constants.DefaultGenerations,
			MaxAttempts:          constants.DefaultMaxAttempts,
			CrossoverProbability: constants.DefaultCrossoverProbability,
			MutationProbability:  constants.DefaultMutationProbability,
			EliteCount:           constants.DefaultEliteCount,
			Selection:            constants.SelectionTournament,
			TournamentSize:       constants.DefaultTournamentSize,
			Seed:                 42,
			TimeoutSeconds:       constants.DefaultTimeout,
			Workers:              constants.DefaultWorkers,
			Verbose:              false,
		},
		Fitness: types.FitnessConfig{
			BaseScore:     constants.DefaultBaseScore,
			DomainWeight:  constants.DefaultDomainWeight,
			OverlapWeight: constants.DefaultOverlapWeight,
		},
		Output: types.OutputConfig{
			Dir:     constants.OutputDir,
			Formats: []string{constants.FormatJSON, constants.FormatCSV},
			Store:   constants.StoreFile,
		},
	}
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig(path string) error {
	manager := NewManager()
	return manager.Save(path)
}

// DomainHelp lists the registered domain types and their parameters
func DomainHelp() string {
	var b strings.Builder
	for _, dt := range domain.Types() {
		fmt.Fprintf(&b, "  %-15s %s (%s)\n", dt.Name, dt.Label, strings.Join(dt.Params, ", "))
	}
	return b.String()
}
