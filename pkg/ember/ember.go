// Package ember is the public embedded API: an append-only, log-structured
// key-value store with an in-memory index and background compaction. It
// wraps internal/store behind the functional-options configuration pattern.
package ember

import (
	"github.com/emberkv/ember/internal/store"
	"github.com/emberkv/ember/pkg/logger"
	"github.com/emberkv/ember/pkg/options"
)

// ErrKeyNotFound is returned by Get and Remove when the key has no current
// value. Check it with errors.Is.
var ErrKeyNotFound = store.ErrKeyNotFound

// DB is an open instance of the store, backed by a data directory on disk.
type DB struct {
	store   *store.Store
	options *options.Options
}

// Open opens (creating if absent) a store rooted at the configured data
// directory, replaying any existing log to recover its index before
// returning, and starts the background compactor.
func Open(service string, opts ...options.OptionFunc) (*DB, error) {
	log := logger.New(service)

	cfg := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	s, err := store.Open(store.Config{Options: &cfg, Logger: log})
	if err != nil {
		return nil, err
	}

	return &DB{store: s, options: &cfg}, nil
}

// Get returns the current value of key, or ErrKeyNotFound if it has none.
func (db *DB) Get(key string) (string, error) {
	return db.store.Get(key)
}

// Set stores value under key, overwriting any current value.
func (db *DB) Set(key, value string) error {
	return db.store.Set(key, value)
}

// Remove deletes key's current value, returning ErrKeyNotFound if it
// already has none.
func (db *DB) Remove(key string) error {
	return db.store.Remove(key)
}

// Close stops the background compactor and releases every open file
// handle. The DB must not be used afterward.
func (db *DB) Close() error {
	return db.store.Close()
}
