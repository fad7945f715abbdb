package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/pkg/config"
	"github.com/ishanwen-byte/plantevolve-go/pkg/store"
)

const roomyGarden = `domain:
  type: rectangle
  params:
    width: 100
    height: 100
inventory:
  - plant_type: shrub
    variety_id: 1
    variety_name: boxwood
    radius: 1
    quantity: 5
evolution:
  population_size: 20
  generations: 50
  max_attempts: 3
  seed: 7
  workers: 2
`

const crampedGarden = `domain:
  type: circle
  params:
    radius: 2
inventory:
  - plant_type: tree
    variety_id: 1
    variety_name: oak
    radius: 1.5
    quantity: 20
evolution:
  population_size: 10
  generations: 10
  max_attempts: 1
  seed: 7
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunConverges(t *testing.T) {
	outdir := filepath.Join(t.TempDir(), "out")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{
		"-config", writeFile(t, roomyGarden),
		"-outdir", outdir,
		"-format", "json, csv",
		"-store", "sqlite",
	}, &stdout, &stderr)
	require.Equal(t, constants.ExitSuccess, code, stderr.String())

	assert.Contains(t, stdout.String(), "outcome:  converged")
	assert.Contains(t, stdout.String(), "plants:   5")
	assert.NotContains(t, stdout.String(), "warning")

	for _, name := range []string{"layout.json", "layout.csv"} {
		_, err := os.Stat(filepath.Join(outdir, name))
		assert.NoError(t, err, name)
	}

	s, err := store.NewSQLiteStore(filepath.Join(outdir, constants.SQLiteFile))
	require.NoError(t, err)
	defer s.Close()
	infos, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 5, infos[0].Genes)
}

func TestRunOutdirKeepsExplicitStorePath(t *testing.T) {
	storeDir := filepath.Join(t.TempDir(), "archive")
	outdir := filepath.Join(t.TempDir(), "out")
	garden := roomyGarden + "output:\n  store: file\n  store_path: " + storeDir + "\n"
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{
		"-config", writeFile(t, garden),
		"-outdir", outdir,
	}, &stdout, &stderr)
	require.Equal(t, constants.ExitSuccess, code, stderr.String())

	s, err := store.NewFileStore(storeDir)
	require.NoError(t, err)
	infos, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	_, err = os.Stat(filepath.Join(outdir, constants.RunsDir))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(outdir, "layout.json"))
	assert.NoError(t, err)
}

func TestRunOutdirMovesDerivedStorePath(t *testing.T) {
	outdir := filepath.Join(t.TempDir(), "out")
	garden := roomyGarden + "output:\n  store: file\n"
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{
		"-config", writeFile(t, garden),
		"-outdir", outdir,
	}, &stdout, &stderr)
	require.Equal(t, constants.ExitSuccess, code, stderr.String())

	s, err := store.NewFileStore(filepath.Join(outdir, constants.RunsDir))
	require.NoError(t, err)
	infos, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestRunBestEffort(t *testing.T) {
	outdir := t.TempDir()
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{
		"-config", writeFile(t, crampedGarden),
		"-outdir", outdir,
		"-store", "none",
	}, &stdout, &stderr)
	assert.Equal(t, constants.ExitBestEffort, code, stderr.String())
	assert.Contains(t, stdout.String(), "outcome:  exhausted")
	assert.Contains(t, stdout.String(), "warning")

	// the best effort layout is still exported
	_, err := os.Stat(filepath.Join(outdir, "layout.json"))
	assert.NoError(t, err)
}

func TestRunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer

	code := run(ctx, []string{
		"-config", writeFile(t, crampedGarden),
		"-outdir", t.TempDir(),
		"-store", "file",
	}, &stdout, &stderr)
	assert.Equal(t, constants.ExitInterrupt, code, stderr.String())
	assert.Contains(t, stdout.String(), "outcome:  timed_out")
}

func TestRunInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plantevolve.yaml")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-init-config", path}, &stdout, &stderr)
	require.Equal(t, constants.ExitSuccess, code, stderr.String())

	m := config.NewManager()
	require.NoError(t, m.Load(path))
	assert.Equal(t, "rectangle", m.GetConfig().Domain.Type)
}

func TestRunListDomains(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-list-domains"}, &stdout, &stderr)
	assert.Equal(t, constants.ExitSuccess, code)
	assert.Equal(t, config.DomainHelp(), stdout.String())
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"bad format", []string{"-format", "pdf"}},
		{"bad selection", []string{"-selection", "lottery"}},
		{"zero attempts", []string{"-attempts", "0"}},
		{"bad store", []string{"-store", "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, constants.ExitError, code)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"json", "csv"}, splitList(" json,,csv "))
	assert.Nil(t, splitList(""))
}
