package options

import "time"

const (
	// Specifies the default base directory where ember will store its data files.
	// If no other directory is specified during initialization, this path will be used.
	DefaultDataDir = "/var/lib/emberdb"

	// Defines the default time between compactor ticks. Each tick scans live
	// segments for ones worth reclaiming; most ticks do no work at all.
	DefaultCompactionCheckInterval = 5 * time.Second

	// Represents the minimum allowed size for a segment file in bytes (512MB).
	MinSegmentSize uint64 = 512 * 1024 * 1024

	// Represents the maximum allowed size for a segment file in bytes (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// Specifies the default threshold, in bytes, past which the active
	// segment is sealed and a new one opened (1GB).
	DefaultSegmentSizeThreshold uint64 = 1 * 1024 * 1024 * 1024

	// Specifies the default subdirectory within the main data directory
	// where segment files will be stored.
	DefaultSegmentDirectory = "segments"

	// DefaultCompactionLiveFractionThreshold is the fraction of live records
	// (index references not yet superseded or removed) below which a sealed
	// segment becomes a compaction candidate. A segment with less than half
	// its records still live is worth reclaiming.
	DefaultCompactionLiveFractionThreshold = 0.5
)

// NewDefaultOptions returns a fresh Options value with the package
// defaults. Each call allocates new SegmentOptions/CompactionOptions so
// callers can freely mutate the result without affecting other callers.
func NewDefaultOptions() Options {
	return Options{
		DataDir: DefaultDataDir,
		SegmentOptions: &segmentOptions{
			SizeThreshold: DefaultSegmentSizeThreshold,
			Directory:     DefaultSegmentDirectory,
		},
		CompactionOptions: &compactionOptions{
			CheckInterval:         DefaultCompactionCheckInterval,
			LiveFractionThreshold: DefaultCompactionLiveFractionThreshold,
		},
	}
}
