// Package index provides the in-memory key → Location map plus the
// per-segment total/dead counters compaction uses to pick victims. All
// access is expected to happen under the store's shared lock (internal/store);
// the RWMutex here exists so the index is also safe to exercise directly in
// tests and so Statistics snapshots never race a concurrent Set/Remove.
package index

import (
	stdErrors "errors"

	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/pkg/errors"
)

var ErrClosed = stdErrors.New("operation failed: index is closed")

// New creates an empty Index.
func New(config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required")
	}

	return &Index{
		log:      config.Logger,
		entries:  make(map[string]Location, 1024),
		segments: make(map[uint64]*segmentCounters),
	}, nil
}

// Set records key → loc. If key was already mapped to a location, the old
// location's segment dead counter is incremented (the old record
// is now superseded) before the new location's segment total counter is
// incremented.
func (idx *Index) Set(key string, loc Location) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed.Load() {
		return ErrClosed
	}

	if old, ok := idx.entries[key]; ok {
		idx.counters(old.SegmentID).dead++
	}
	idx.entries[key] = loc
	idx.counters(loc.SegmentID).total++
	return nil
}

// Get returns the location mapped to key, if any.
func (idx *Index) Get(key string) (Location, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed.Load() {
		return Location{}, false, ErrClosed
	}

	loc, ok := idx.entries[key]
	return loc, ok, nil
}

// Remove deletes key's mapping if present, incrementing the old location's
// segment dead counter, and reports whether a mapping existed.
func (idx *Index) Remove(key string) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed.Load() {
		return false, ErrClosed
	}

	old, ok := idx.entries[key]
	if !ok {
		return false, nil
	}

	idx.counters(old.SegmentID).dead++
	delete(idx.entries, key)
	return true, nil
}

// Statistics returns a snapshot of every segment with at least one
// recorded reference, in unspecified order.
func (idx *Index) Statistics() []SegmentStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := make([]SegmentStats, 0, len(idx.segments))
	for id, c := range idx.segments {
		stats = append(stats, SegmentStats{SegmentID: id, Total: c.total, Dead: c.dead})
	}
	return stats
}

// Load applies a record read from disk during recovery as if it had just
// been appended at loc: Set populates or overwrites (dead accounting
// applies exactly as in Set), Remove clears the mapping, and Get is
// ignored since it is never persisted and should never appear on disk.
func (idx *Index) Load(cmd record.Command, loc Location) error {
	switch cmd.Kind {
	case record.KindSet:
		return idx.Set(cmd.Key, loc)
	case record.KindRemove:
		_, err := idx.Remove(cmd.Key)
		return err
	case record.KindGet:
		idx.log.Warnw("ignoring persisted Get record during recovery", "key", cmd.Key)
		return nil
	default:
		return errors.NewRecordCorruptedError(loc.SegmentID, loc.Offset, nil)
	}
}

// Close releases the index's memory. It must not be used afterward.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.log.Infow("closing index", "entries", len(idx.entries))
	clear(idx.entries)
	clear(idx.segments)
	return nil
}

// counters returns (creating if absent) the counters for segment id.
// Caller must hold idx.mu for writing.
func (idx *Index) counters(id uint64) *segmentCounters {
	c, ok := idx.segments[id]
	if !ok {
		c = &segmentCounters{}
		idx.segments[id] = c
	}
	return c
}
