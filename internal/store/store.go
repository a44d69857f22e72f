// Package store assembles the segment manager, index, and compactor behind
// a single lock and implements the mutator protocol: Get, Set, and Remove.
// This is the engine's facade; pkg/ember wraps it with the public API.
package store

import (
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/emberkv/ember/internal/compaction"
	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/segman"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/options"
)

// ErrKeyNotFound is returned by Get and Remove when the key has no current
// value. Callers distinguish it from other errors with errors.Is.
var ErrKeyNotFound = errors.ErrKeyNotFound

// Config configures a Store.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// Store is the engine facade: the mutator protocol plus the recovery and
// lifecycle logic that assembles the segment manager, index, and compactor
// behind one shared lock.
type Store struct {
	mu sync.Mutex

	log       *zap.SugaredLogger
	segman    *segman.Manager
	idx       *index.Index
	compactor *compaction.Compactor
}

// Open builds a Store: opens the segment manager (which in turn opens the
// catalog and every live segment), builds an empty index and recovers it by
// replaying every live segment in ascending ID order, then starts the
// background compactor. On any failure, everything opened so far is closed
// before the error is returned.
func Open(cfg Config) (*Store, error) {
	opts := cfg.Options
	log := cfg.Logger

	segDir := filepath.Join(opts.DataDir, opts.SegmentOptions.Directory)
	sm, err := segman.Open(segDir, opts.SegmentOptions.SizeThreshold, log)
	if err != nil {
		return nil, err
	}

	idx, err := index.New(&index.Config{Logger: log})
	if err != nil {
		sm.Close()
		return nil, err
	}

	s := &Store{
		log:    log,
		segman: sm,
		idx:    idx,
	}

	if err := s.recover(); err != nil {
		multierr.AppendInto(&err, idx.Close())
		multierr.AppendInto(&err, sm.Close())
		return nil, err
	}

	s.compactor = compaction.New(compaction.Config{
		Lock:                  &s.mu,
		Segman:                sm,
		Index:                 idx,
		Logger:                log,
		CheckInterval:         opts.CompactionOptions.CheckInterval,
		LiveFractionThreshold: opts.CompactionOptions.LiveFractionThreshold,
	})
	s.compactor.Start()

	log.Infow("store opened", "dataDir", opts.DataDir)
	return s, nil
}

// recover replays every live segment in ascending ID order, applying each
// decoded record to the index exactly as it would have been applied at
// append time. Recovery does not take s.mu: it runs before the compactor
// starts and before Open returns a usable Store to any caller.
func (s *Store) recover() error {
	return s.segman.IterateAll(func(id uint64, cmd record.Command, offset int64) error {
		return s.idx.Load(cmd, index.Location{SegmentID: id, Offset: offset})
	})
}

// Get returns the current value of key, or ErrKeyNotFound if it has none.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok, err := s.idx.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NewKeyNotFoundError(key, "Get")
	}

	cmd, err := s.segman.Read(loc)
	if err != nil {
		return "", err
	}
	if cmd.Kind != record.KindSet {
		return "", errors.NewInvariantViolationError("Get", "index points at a non-Set record")
	}

	return cmd.Value, nil
}

// Set appends a Set record for key → value to the active segment, then
// updates the index to point at the new record. The append happens first so
// that a crash between the two steps leaves the on-disk log, not the index,
// as the source of truth: recovery will reconstruct the same mapping.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := record.Encode(record.Set(key, value))
	if err != nil {
		return err
	}

	loc, err := s.segman.AppendActive(frame)
	if err != nil {
		return err
	}

	return s.idx.Set(key, loc)
}

// Remove deletes key's current value. It first checks the index and fails
// fast with ErrKeyNotFound, without writing anything, if the key is already
// absent — matching the mutator protocol's rule that a tombstone is only
// ever written for a key that exists. Otherwise it appends a Remove record
// and clears the index entry.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.idx.Get(key); err != nil {
		return err
	} else if !ok {
		return errors.NewKeyNotFoundError(key, "Remove")
	}

	frame, err := record.Encode(record.Remove(key))
	if err != nil {
		return err
	}

	if _, err := s.segman.AppendActive(frame); err != nil {
		return err
	}

	if _, err := s.idx.Remove(key); err != nil {
		return err
	}
	return nil
}

// Close stops the compactor and closes the index and segment manager,
// joining any errors encountered rather than stopping at the first one.
func (s *Store) Close() error {
	s.compactor.Stop()

	var err error
	multierr.AppendInto(&err, s.idx.Close())
	multierr.AppendInto(&err, s.segman.Close())

	s.log.Infow("store closed")
	return err
}
