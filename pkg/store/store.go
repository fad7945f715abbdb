// Package store persists evolution results. Backends share the Store
// interface: an in-process map, one JSON file per run, a SQLite database or
// an embedded badger key-value store.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
)

// ErrNotFound is returned when no run has the requested ID
var ErrNotFound = errors.New("store: run not found")

// ErrInvalidID is returned by the file store for IDs that are not UUIDs
var ErrInvalidID = errors.New("store: invalid run id")

// Store saves and retrieves evolution results by run ID
type Store interface {
	// Save persists result and returns its ID. A result without a RunID
	// gets a new one. Saving an existing ID replaces it.
	Save(ctx context.Context, result types.EvolutionResult) (string, error)
	Get(ctx context.Context, id string) (types.EvolutionResult, error)
	// List returns summaries, most recent first
	List(ctx context.Context) ([]RunInfo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// RunInfo is the listing form of a stored run
type RunInfo struct {
	ID         string        `json:"id"`
	Outcome    types.Outcome `json:"outcome"`
	Fitness    float64       `json:"fitness"`
	Penalty    float64       `json:"penalty"`
	Attempt    int           `json:"attempt"`
	Genes      int           `json:"genes"`
	DomainType string        `json:"domain_type"`
	StartedAt  time.Time     `json:"started_at"`
}

// Open creates the backend named by kind. path is a directory for the file
// and badger stores and a database file for SQLite; it is ignored for the
// memory store.
func Open(kind, path string) (Store, error) {
	switch kind {
	case constants.StoreMemory:
		return NewMemoryStore(), nil
	case constants.StoreFile:
		return NewFileStore(path)
	case constants.StoreSQLite:
		return NewSQLiteStore(path)
	case constants.StoreBadger:
		return NewBadgerStore(path)
	}
	return nil, fmt.Errorf("unknown store: %q", kind)
}

func infoOf(r types.EvolutionResult) RunInfo {
	return RunInfo{
		ID:         r.RunID,
		Outcome:    r.Outcome,
		Fitness:    r.Fitness,
		Penalty:    r.Penalty,
		Attempt:    r.Attempt,
		Genes:      r.Best.Len(),
		DomainType: r.Domain.Type,
		StartedAt:  r.StartedAt,
	}
}

// prepare assigns an ID when missing and returns a copy that shares no
// memory with the caller's result
func prepare(r types.EvolutionResult) types.EvolutionResult {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	return cloneResult(r)
}

func cloneResult(r types.EvolutionResult) types.EvolutionResult {
	r.Best = r.Best.Clone()
	if r.Domain.Params != nil {
		params := make(map[string]float64, len(r.Domain.Params))
		for k, v := range r.Domain.Params {
			params[k] = v
		}
		r.Domain.Params = params
	}
	if r.Attempts != nil {
		attempts := make([]types.AttemptSummary, len(r.Attempts))
		for i, a := range r.Attempts {
			a.History = append([]float64(nil), a.History...)
			attempts[i] = a
		}
		r.Attempts = attempts
	}
	return r
}

func sortInfos(infos []RunInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].StartedAt.After(infos[j].StartedAt)
		}
		return infos[i].ID < infos[j].ID
	})
}
