// Package options provides data structures and functions for configuring
// an ember store. It defines the parameters that control segment rotation,
// compaction cadence, and the data directory layout, following the same
// functional-options pattern used throughout the rest of the module.
package options

import (
	"strings"
	"time"
)

// Defines configurable parameters for segment storage.
type segmentOptions struct {
	// SizeThreshold is the post-append size, in bytes, past which the
	// active segment is sealed and a new one is opened. A single append
	// may push a segment past this threshold by up to one record's size;
	// the threshold bounds growth, it does not cap it exactly.
	//
	//  - Default: 1GB
	//  - Minimum: 512MB
	//  - Maximum: 4GB
	SizeThreshold uint64 `json:"segmentSizeThreshold"`

	// Directory is the subdirectory, relative to DataDir, where segment and
	// catalog files are stored.
	//
	// Default: "segments"
	Directory string `json:"directory"`
}

// Defines configurable parameters for the background compactor.
type compactionOptions struct {
	// CheckInterval is how often the compactor wakes up to look for
	// sealed segments worth reclaiming.
	//
	// Default: 5s
	CheckInterval time.Duration `json:"checkInterval"`

	// LiveFractionThreshold is the live-record fraction below which a sealed
	// segment is selected as a compaction victim.
	//
	// Default: 0.5
	LiveFractionThreshold float64 `json:"liveFractionThreshold"`
}

// Defines the configuration parameters for an ember store.
type Options struct {
	// DataDir is the base path under which segment and catalog files live.
	//
	// Default: "/var/lib/emberdb"
	DataDir string `json:"dataDir"`

	// SegmentOptions configures segment rotation and on-disk layout.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// CompactionOptions configures the background compactor's cadence and
	// victim-selection threshold.
	CompactionOptions *compactionOptions `json:"compactionOptions"`
}

// OptionFunc is a function type that modifies an ember store's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.CompactionOptions = opts.CompactionOptions
	}
}

// Sets the primary data directory for the store.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the directory, relative to DataDir, for storing segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the post-append size threshold past which the active segment is sealed.
func WithSegmentSizeThreshold(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinSegmentSize && size <= MaxSegmentSize {
			o.SegmentOptions.SizeThreshold = size
		}
	}
}

// Sets how often the compactor checks for reclaimable segments.
func WithCompactionCheckInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactionOptions.CheckInterval = interval
		}
	}
}

// Sets the live-fraction threshold below which a sealed segment becomes a
// compaction victim.
func WithCompactionLiveFractionThreshold(fraction float64) OptionFunc {
	return func(o *Options) {
		if fraction > 0 && fraction < 1 {
			o.CompactionOptions.LiveFractionThreshold = fraction
		}
	}
}
