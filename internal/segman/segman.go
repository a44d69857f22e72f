// Package segman implements the segment manager: it owns the catalog and
// every open segment handle, routes appends to the active segment, rolls a
// new active segment at the configured size threshold, and serves reads by
// location on behalf of the index.
package segman

import (
	"sort"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/emberkv/ember/internal/catalog"
	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/segment"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/filesys"
)

// Manager owns the catalog, every live segment's open handle, the current
// active ID, and the size threshold that triggers a roll.
type Manager struct {
	mu        sync.Mutex
	dir       string
	threshold uint64
	log       *zap.SugaredLogger

	catalog  *catalog.Catalog
	segments map[uint64]*segment.Segment
	activeID uint64
}

// Open opens the catalog (allocating a first segment if the store is new),
// opens every live segment, unlinks any numeric-named file the catalog does
// not list as live (other files are left alone), and selects the greatest
// live ID as active.
func Open(dir string, threshold uint64, log *zap.SugaredLogger) (*Manager, error) {
	if err := filesys.CreateDir(dir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, dir)
	}

	cat, err := catalog.Open(dir, log)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		dir:       dir,
		threshold: threshold,
		log:       log,
		catalog:   cat,
		segments:  make(map[uint64]*segment.Segment),
	}

	liveIDs := cat.LiveIDs()
	if len(liveIDs) == 0 {
		id, err := cat.Allocate()
		if err != nil {
			cat.Close()
			return nil, err
		}
		liveIDs = []uint64{id}
	}

	for _, id := range liveIDs {
		seg, err := segment.Open(cat.PathOf(id), id, log)
		if err != nil {
			m.closeAllLocked()
			return nil, err
		}
		m.segments[id] = seg
	}

	m.activeID = liveIDs[len(liveIDs)-1]
	for _, id := range liveIDs[:len(liveIDs)-1] {
		if err := m.segments[id].Seal(); err != nil {
			m.closeAllLocked()
			return nil, err
		}
	}

	if err := m.removeOrphans(liveIDs); err != nil {
		log.Warnw("failed to remove orphan segment files", "error", err)
	}

	log.Infow("segment manager opened", "dir", dir, "active", m.activeID, "segments", len(m.segments))
	return m, nil
}

// removeOrphans unlinks numeric-named files in the data directory that the
// catalog does not list as live. Per spec this is permitted on open and is
// best-effort: a failure here does not abort Open.
func (m *Manager) removeOrphans(liveIDs []uint64) error {
	live := make(map[uint64]struct{}, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = struct{}{}
	}

	entries, err := filesys.ReadDir(m.dir + "/*")
	if err != nil {
		return err
	}

	var errs error
	for _, path := range entries {
		name := path[len(m.dir)+1:]
		if name == catalog.FileName {
			continue
		}
		id, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			continue
		}
		if _, ok := live[id]; ok {
			continue
		}
		if err := filesys.DeleteDir(path); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// AppendActive appends frame to the active segment and returns its
// Location. If the post-append end position exceeds the size threshold,
// the active segment is sealed and a new active segment is allocated.
func (m *Manager) AppendActive(frame []byte) (index.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.segments[m.activeID]
	offset, err := active.Append(frame)
	if err != nil {
		return index.Location{}, err
	}
	loc := index.Location{SegmentID: m.activeID, Offset: offset}

	if uint64(active.Size()) > m.threshold {
		if err := m.rollLocked(); err != nil {
			return loc, err
		}
	}

	return loc, nil
}

func (m *Manager) rollLocked() error {
	sealedID := m.activeID
	if err := m.segments[sealedID].Seal(); err != nil {
		return err
	}

	newID, err := m.catalog.Allocate()
	if err != nil {
		return err
	}

	seg, err := segment.Open(m.catalog.PathOf(newID), newID, m.log)
	if err != nil {
		return err
	}

	m.segments[newID] = seg
	m.activeID = newID
	m.log.Infow("rolled active segment", "sealed", sealedID, "active", newID)
	return nil
}

// Read resolves loc's segment and reads the record at its offset. It fails
// with an UnknownSegment error if the segment ID is not live.
func (m *Manager) Read(loc index.Location) (record.Command, error) {
	m.mu.Lock()
	seg, ok := m.segments[loc.SegmentID]
	m.mu.Unlock()

	if !ok {
		return record.Command{}, errors.NewUnknownSegmentError(loc.SegmentID, "", "Read")
	}

	cmd, _, err := seg.Read(loc.Offset)
	return cmd, err
}

// IterateAll iterates every live segment in ascending ID order, invoking fn
// with each record and its location. Used by recovery.
func (m *Manager) IterateAll(fn func(id uint64, cmd record.Command, offset int64) error) error {
	m.mu.Lock()
	ids := make([]uint64, 0, len(m.segments))
	for id := range m.segments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	segs := make([]*segment.Segment, len(ids))
	for i, id := range ids {
		segs[i] = m.segments[id]
	}
	m.mu.Unlock()

	for i, id := range ids {
		it := segs[i].Iterate()
		for {
			cmd, offset, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if err := fn(id, cmd, offset); err != nil {
				return err
			}
		}
	}
	return nil
}

// IterateOne iterates a single live segment's records in order, invoking
// fn with each record and its offset. Used by the compactor to scan a
// single victim segment.
func (m *Manager) IterateOne(id uint64, fn func(cmd record.Command, offset int64) error) error {
	m.mu.Lock()
	seg, ok := m.segments[id]
	m.mu.Unlock()
	if !ok {
		return errors.NewUnknownSegmentError(id, "", "IterateOne")
	}

	it := seg.Iterate()
	for {
		cmd, offset, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(cmd, offset); err != nil {
			return err
		}
	}
}

// Delete closes and unlinks a sealed segment and retires its catalog
// entry. id must not be the active segment.
func (m *Manager) Delete(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == m.activeID {
		return errors.NewInvariantViolationError("Delete", "attempted to delete the active segment")
	}

	seg, ok := m.segments[id]
	if !ok {
		return errors.NewUnknownSegmentError(id, "", "Delete")
	}

	if err := seg.Unlink(); err != nil {
		return err
	}
	if err := m.catalog.Retire(id); err != nil {
		return err
	}
	delete(m.segments, id)
	m.log.Infow("segment retired", "id", id)
	return nil
}

// IsSealed reports whether id refers to a live, sealed segment.
func (m *Manager) IsSealed(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, live := m.segments[id]
	return live && id != m.activeID
}

// ActiveID returns the currently active segment's ID.
func (m *Manager) ActiveID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// LiveIDs returns a snapshot of every live segment ID, including active.
func (m *Manager) LiveIDs() []uint64 {
	return m.catalog.LiveIDs()
}

// Close closes every open segment handle and the catalog file, joining any
// errors encountered rather than stopping at the first one.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.closeAllLocked()
	return err
}

func (m *Manager) closeAllLocked() error {
	var errs error
	for _, seg := range m.segments {
		if err := seg.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if err := m.catalog.Close(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
