package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
)

const runPrefix = "run:"

// BadgerStore keeps each run as a JSON value under run:<id> in an embedded
// badger key-value database
type BadgerStore struct {
	db     *badger.DB
	logger *logrus.Logger
}

// NewBadgerStore opens (and creates if needed) the database directory at
// path. ":memory:" keeps everything in memory.
func NewBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger store: path is required")
	}

	var opts badger.Options
	if path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}

	// badger reports table loading at info level on every open
	dbLogger := logrus.New()
	dbLogger.SetLevel(logrus.WarnLevel)
	opts = opts.WithLogger(dbLogger.WithField("component", "badger"))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db, logger: logrus.New()}, nil
}

// SetLogger replaces the store's logger
func (s *BadgerStore) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *BadgerStore) Save(_ context.Context, result types.EvolutionResult) (string, error) {
	r := prepare(result)
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(r.RunID), data)
	}); err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.WithField("run_id", r.RunID).Info("Saved result")
	return r.RunID, nil
}

func (s *BadgerStore) Get(_ context.Context, id string) (types.EvolutionResult, error) {
	var r types.EvolutionResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.EvolutionResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to load run: %w", err)
	}
	return r, nil
}

func (s *BadgerStore) List(_ context.Context) ([]RunInfo, error) {
	infos := make([]RunInfo, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var r types.EvolutionResult
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				s.logger.WithError(err).WithField("key", string(item.Key())).Warn("Skipping unreadable result")
				continue
			}
			infos = append(infos, infoOf(r))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	sortInfos(infos)
	return infos, nil
}

func (s *BadgerStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := runKey(id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func runKey(id string) []byte {
	return []byte(runPrefix + id)
}
