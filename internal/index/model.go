package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Location identifies a record's position on disk: the segment it lives in
// and the byte offset, within that segment, of the record's length prefix.
type Location struct {
	SegmentID uint64
	Offset    int64
}

// segmentCounters tracks how many index entries have ever pointed into a
// segment (Total) and how many of those have since been superseded or
// removed (Dead). Live fraction is 1 - Dead/Total.
type segmentCounters struct {
	total uint64
	dead  uint64
}

// SegmentStats is the exported snapshot form of segmentCounters returned by
// Statistics.
type SegmentStats struct {
	SegmentID uint64
	Total     uint64
	Dead      uint64
}

// LiveFraction returns 1 - Dead/Total, or 1.0 for a segment with no
// recorded references.
func (s SegmentStats) LiveFraction() float64 {
	if s.Total == 0 {
		return 1
	}
	return 1 - float64(s.Dead)/float64(s.Total)
}

// Index is the in-memory mapping from key to Location, plus per-segment
// liveness counters used to drive compaction victim selection.
type Index struct {
	log      *zap.SugaredLogger
	mu       sync.RWMutex
	entries  map[string]Location
	segments map[uint64]*segmentCounters
	closed   atomic.Bool
}

// Config configures a new Index.
type Config struct {
	Logger *zap.SugaredLogger
}
