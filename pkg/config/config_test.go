package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/controller"
	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/inventory"
)

var envVars = []string{EnvSeed, EnvMaxAttempts, EnvGenerations, EnvPopulation, EnvOutputDir, EnvWorkers, EnvVerbose}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	assert.NotNil(t, manager)
	assert.NotNil(t, manager.config)
	assert.Empty(t, manager.path)
	assert.NoError(t, manager.Validate())
}

func TestLoadAndSave(t *testing.T) {
	clearEnv(t)

	// Create temporary directory
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "config.yaml")

	// Test saving default config
	manager := NewManager()
	err = manager.Save(configPath)
	require.NoError(t, err)

	// Verify file was created
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	// Test loading config
	newManager := NewManager()
	err = newManager.Load(configPath)
	require.NoError(t, err)

	// Compare configs
	assert.Equal(t, manager.config, newManager.config)
	assert.Equal(t, configPath, newManager.path)
}

func TestLoadNonExistentFile(t *testing.T) {
	manager := NewManager()
	err := manager.Load("/non/existent/file.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestInvalidConfig(t *testing.T) {
	configPath := writeConfig(t, "invalid: yaml: content: [")

	manager := NewManager()
	err := manager.Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `
domain:
  type: Annulus
  params:
    inner_radius: 2
    outer_radius: 8
evolution:
  genome_size: 12
  mutation_probability: 0.2
inventory:
  - plant_type: flower
    variety_id: 9
    variety_name: Tulip
    radius: 0.4
    weight: 1
output:
  store: sqlite
  formats: [XLSX, csv]
`)

	manager := NewManager()
	require.NoError(t, manager.Load(configPath))
	cfg := manager.GetConfig()

	assert.Equal(t, "annulus", cfg.Domain.Type)
	// width and height from the default rectangle are dropped
	assert.Equal(t, map[string]float64{"inner_radius": 2, "outer_radius": 8}, cfg.Domain.Params)
	assert.Equal(t, 12, cfg.Evolution.GenomeSize)
	assert.Equal(t, 0.2, cfg.Evolution.MutationProbability)
	assert.Equal(t, constants.DefaultPopulationSize, cfg.Evolution.PopulationSize)
	assert.Equal(t, constants.DefaultCrossoverProbability, cfg.Evolution.CrossoverProbability)
	require.Len(t, cfg.Inventory, 1)
	assert.Equal(t, "Tulip", cfg.Inventory[0].VarietyName)
	assert.Equal(t, []string{"xlsx", "csv"}, cfg.Output.Formats)
	assert.Equal(t, constants.StoreSQLite, cfg.Output.Store)
	assert.Equal(t, filepath.Join(constants.OutputDir, constants.SQLiteFile), cfg.Output.StorePath)

	_, err := controller.New(*cfg)
	assert.NoError(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		contains string
		target   error
	}{
		{
			name:   "unknown domain",
			yaml:   "domain:\n  type: hexagon\n",
			target: domain.ErrUnknownDomainType,
		},
		{
			name:   "missing parameter",
			yaml:   "domain:\n  type: ellipse\n  params:\n    semi_axis_x: 3\n",
			target: domain.ErrMissingParameter,
		},
		{
			name:   "inverted annulus",
			yaml:   "domain:\n  type: annulus\n  params:\n    inner_radius: 5\n    outer_radius: 5\n",
			target: domain.ErrInvalidRelation,
		},
		{
			name:   "probability out of range",
			yaml:   "evolution:\n  crossover_probability: 1.2\n",
			target: controller.ErrInvalidConfig,
		},
		{
			name:   "negative genome size",
			yaml:   "evolution:\n  genome_size: -3\n",
			target: controller.ErrInvalidConfig,
		},
		{
			name:   "quantity mismatch",
			yaml:   "evolution:\n  genome_size: 7\n",
			target: inventory.ErrQuantityMismatch,
		},
		{
			name:   "empty inventory",
			yaml:   "inventory: []\n",
			target: inventory.ErrEmptyInventory,
		},
		{
			name:     "negative weight",
			yaml:     "fitness:\n  overlap_weight: -1\n",
			contains: "fitness weights must be positive",
		},
		{
			name:     "zero domain weight",
			yaml:     "fitness:\n  domain_weight: 0\n",
			contains: "fitness weights must be positive",
		},
		{
			name:     "zero overlap weight",
			yaml:     "fitness:\n  overlap_weight: 0\n",
			contains: "fitness weights must be positive",
		},
		{
			name:     "unknown format",
			yaml:     "output:\n  formats: [pdf]\n",
			contains: "unknown output format",
		},
		{
			name:     "unknown store",
			yaml:     "output:\n  store: redis\n",
			contains: "unknown store",
		},
	}

	clearEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager()
			err := manager.Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
			// a failed load leaves the previous configuration in place
			assert.NoError(t, manager.Validate())
		})
	}
}

func TestStorePathDerivation(t *testing.T) {
	tests := []struct {
		yaml string
		want string
	}{
		{"output:\n  store: file\n", filepath.Join(constants.OutputDir, constants.RunsDir)},
		{"output:\n  store: sqlite\n  dir: out\n", filepath.Join("out", constants.SQLiteFile)},
		{"output:\n  store: badger\n", filepath.Join(constants.OutputDir, constants.BadgerDir)},
		{"output:\n  store: badger\n  store_path: /var/lib/kv\n", "/var/lib/kv"},
		{"output:\n  store: memory\n", ""},
	}

	clearEnv(t)
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			manager := NewManager()
			require.NoError(t, manager.Load(writeConfig(t, tt.yaml)))
			assert.Equal(t, tt.want, manager.GetConfig().Output.StorePath)
		})
	}

	assert.Equal(t, filepath.Join("out", constants.RunsDir),
		DefaultStorePath(types.OutputConfig{Dir: "out", Store: constants.StoreFile}))
	assert.Empty(t, DefaultStorePath(types.OutputConfig{Dir: "out", Store: constants.StoreNone}))
}

func TestEnvOverrides(t *testing.T) {
	manager := NewManager()
	config := getDefaultConfig()

	t.Setenv(EnvSeed, "123")
	t.Setenv(EnvMaxAttempts, "9")
	t.Setenv(EnvGenerations, "500")
	t.Setenv(EnvPopulation, "64")
	t.Setenv(EnvOutputDir, "custom-output")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvVerbose, "true")

	err := manager.applyEnvOverrides(config)
	require.NoError(t, err)

	assert.Equal(t, int64(123), config.Evolution.Seed)
	assert.Equal(t, 9, config.Evolution.MaxAttempts)
	assert.Equal(t, 500, config.Evolution.Generations)
	assert.Equal(t, 64, config.Evolution.PopulationSize)
	assert.Equal(t, "custom-output", config.Output.Dir)
	assert.Equal(t, 2, config.Evolution.Workers)
	assert.True(t, config.Evolution.Verbose)
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGenerations, "many")

	err := NewManager().applyEnvOverrides(getDefaultConfig())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvGenerations)
}

func TestGetSetConfig(t *testing.T) {
	manager := NewManager()

	config := manager.GetConfig()
	assert.NotNil(t, config)

	newConfig := getDefaultConfig()
	newConfig.Evolution.MaxAttempts = 999
	manager.SetConfig(newConfig)

	updatedConfig := manager.GetConfig()
	assert.Equal(t, 999, updatedConfig.Evolution.MaxAttempts)
}

func TestCreateDefaultConfig(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "nested", "default_config.yaml")

	err := CreateDefaultConfig(configPath)
	require.NoError(t, err)

	manager := NewManager()
	err = manager.Load(configPath)
	require.NoError(t, err)

	config := manager.GetConfig()
	assert.Equal(t, constants.DefaultDomainType, config.Domain.Type)
	assert.Equal(t, constants.DefaultMaxAttempts, config.Evolution.MaxAttempts)
	assert.Len(t, config.Inventory, 4)

	// the default garden is solvable as configured
	_, err = controller.New(*config)
	assert.NoError(t, err)
}

func TestDomainHelp(t *testing.T) {
	help := DomainHelp()
	for _, name := range domain.Names() {
		assert.Contains(t, help, name)
	}
	assert.Contains(t, help, "inner_radius, outer_radius")
}
