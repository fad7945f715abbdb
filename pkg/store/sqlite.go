package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	outcome       TEXT NOT NULL,
	fitness       REAL NOT NULL,
	penalty       REAL NOT NULL,
	attempt       INTEGER NOT NULL,
	max_attempts  INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	elapsed_ns    INTEGER NOT NULL,
	started_at    TEXT NOT NULL,
	domain_type   TEXT NOT NULL,
	domain_params TEXT NOT NULL,
	attempts      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS genes (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx          INTEGER NOT NULL,
	x            REAL NOT NULL,
	y            REAL NOT NULL,
	radius       REAL NOT NULL,
	plant_type   TEXT NOT NULL,
	variety_id   INTEGER NOT NULL,
	variety_name TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);`

// SQLiteStore keeps runs in a SQLite database: one row per run in runs and
// one row per gene of the best layout in genes
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	if !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes
	// writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logrus.New()}, nil
}

// SetLogger replaces the store's logger
func (s *SQLiteStore) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *SQLiteStore) Save(ctx context.Context, result types.EvolutionResult) (string, error) {
	r := prepare(result)

	params, err := json.Marshal(r.Domain.Params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain params: %w", err)
	}
	attempts, err := json.Marshal(r.Attempts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal attempts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM genes WHERE run_id = ?`, r.RunID); err != nil {
		return "", fmt.Errorf("failed to clear genes: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(id, outcome, fitness, penalty, attempt, max_attempts, seed, elapsed_ns, started_at, domain_type, domain_params, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, string(r.Outcome), r.Fitness, r.Penalty, r.Attempt, r.MaxAttempts, r.Seed,
		int64(r.Elapsed), r.StartedAt.UTC().Format(time.RFC3339Nano), r.Domain.Type, string(params), string(attempts))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO genes
		(run_id, idx, x, y, radius, plant_type, variety_id, variety_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare gene insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range r.Best.Genes() {
		if _, err := stmt.ExecContext(ctx, r.RunID, i, g.X, g.Y, g.Radius, string(g.PlantType), g.VarietyID, g.VarietyName); err != nil {
			return "", fmt.Errorf("failed to insert gene %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": r.RunID,
		"genes":  r.Best.Len(),
	}).Info("Saved result")

	return r.RunID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.EvolutionResult, error) {
	var (
		r                  types.EvolutionResult
		outcome, startedAt string
		params, attempts   string
		elapsed            int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, outcome, fitness, penalty, attempt, max_attempts, seed,
		elapsed_ns, started_at, domain_type, domain_params, attempts FROM runs WHERE id = ?`, id).
		Scan(&r.RunID, &outcome, &r.Fitness, &r.Penalty, &r.Attempt, &r.MaxAttempts, &r.Seed,
			&elapsed, &startedAt, &r.Domain.Type, &params, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return types.EvolutionResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to query run: %w", err)
	}

	r.Outcome = types.Outcome(outcome)
	r.Elapsed = time.Duration(elapsed)
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &r.Domain.Params); err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to unmarshal domain params: %w", err)
	}
	if err := json.Unmarshal([]byte(attempts), &r.Attempts); err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to unmarshal attempts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT x, y, radius, plant_type, variety_id, variety_name
		FROM genes WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to query genes: %w", err)
	}
	defer rows.Close()

	var genes []genome.Point
	for rows.Next() {
		var g genome.Point
		var plantType string
		if err := rows.Scan(&g.X, &g.Y, &g.Radius, &plantType, &g.VarietyID, &g.VarietyName); err != nil {
			return types.EvolutionResult{}, fmt.Errorf("failed to scan gene: %w", err)
		}
		g.PlantType = genome.PlantType(plantType)
		genes = append(genes, g)
	}
	if err := rows.Err(); err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to read genes: %w", err)
	}
	r.Best = genome.NewIndividual(genes)

	return r, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.id, r.outcome, r.fitness, r.penalty, r.attempt, r.domain_type,
		r.started_at, (SELECT COUNT(*) FROM genes g WHERE g.run_id = r.id)
		FROM runs r`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		var outcome, startedAt string
		if err := rows.Scan(&info.ID, &outcome, &info.Fitness, &info.Penalty, &info.Attempt,
			&info.DomainType, &startedAt, &info.Genes); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		info.Outcome = types.Outcome(outcome)
		if info.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	sortInfos(infos)
	return infos, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM genes WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete genes: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
