// Package compaction implements the background task that reclaims space
// from low-utilization sealed segments. It runs on a ticker with a
// stop-channel shutdown, the same worker shape shake-karrot-lightkafka's
// internal/retention.RetentionCleaner uses for its own background sweep.
package compaction

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/segman"
)

// Config configures a Compactor. Lock must be the same mutex the store
// uses to guard the segment manager and index, so a victim's migrate-then-
// delete step is atomic with respect to foreground mutators.
type Config struct {
	Lock                  *sync.Mutex
	Segman                *segman.Manager
	Index                 *index.Index
	Logger                *zap.SugaredLogger
	CheckInterval         time.Duration
	LiveFractionThreshold float64
}

// Compactor periodically selects sealed segments whose live fraction has
// fallen below a threshold, rewrites their still-live records into the
// active segment, and retires the source segments.
type Compactor struct {
	lock                  *sync.Mutex
	segman                *segman.Manager
	idx                   *index.Index
	log                   *zap.SugaredLogger
	interval              time.Duration
	liveFractionThreshold float64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Compactor. Call Start to begin its background loop.
func New(cfg Config) *Compactor {
	return &Compactor{
		lock:                  cfg.Lock,
		segman:                cfg.Segman,
		idx:                   cfg.Index,
		log:                   cfg.Logger,
		interval:              cfg.CheckInterval,
		liveFractionThreshold: cfg.LiveFractionThreshold,
		stopCh:                make(chan struct{}),
	}
}

// Start launches the compactor's background loop.
func (c *Compactor) Start() {
	c.wg.Add(1)
	go c.run()
}

// Stop signals the background loop to exit and waits for it to finish. Any
// victim currently being migrated completes its migrate-then-delete step
// first, since that step holds the shared lock.
func (c *Compactor) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Compactor) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-c.stopCh:
			return
		}
	}
}

// tick snapshots segment statistics and the sealed set, selects victims
// whose live fraction is below the threshold, and migrates each one
// oldest-first so dependencies are processed in order.
func (c *Compactor) tick() {
	c.lock.Lock()
	stats := c.idx.Statistics()
	sealed := make(map[uint64]bool)
	for _, id := range c.segman.LiveIDs() {
		if c.segman.IsSealed(id) {
			sealed[id] = true
		}
	}
	c.lock.Unlock()

	var victims []uint64
	for _, s := range stats {
		if sealed[s.SegmentID] && s.LiveFraction() < c.liveFractionThreshold {
			victims = append(victims, s.SegmentID)
		}
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i] < victims[j] })

	for _, victim := range victims {
		select {
		case <-c.stopCh:
			return
		default:
		}

		if err := c.migrateAndDelete(victim); err != nil {
			c.log.Errorw("compaction failed for segment", "segment", victim, "error", err)
		}
	}
}

// migrateAndDelete performs one victim's migrate-then-delete step under
// the shared lock, so no concurrent mutator can overwrite the very index
// entry being migrated.
func (c *Compactor) migrateAndDelete(victim uint64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.segman.IsSealed(victim) {
		// Raced with a prior tick, or the segment is gone; nothing to do.
		return nil
	}

	err := c.segman.IterateOne(victim, func(cmd record.Command, offset int64) error {
		if cmd.Kind != record.KindSet {
			return nil
		}

		loc, ok, err := c.idx.Get(cmd.Key)
		if err != nil {
			return err
		}
		if !ok || loc.SegmentID != victim || loc.Offset != offset {
			// Superseded by a later write, or already removed.
			return nil
		}

		frame, err := record.Encode(cmd)
		if err != nil {
			return err
		}
		newLoc, err := c.segman.AppendActive(frame)
		if err != nil {
			return err
		}
		return c.idx.Set(cmd.Key, newLoc)
	})
	if err != nil {
		return err
	}

	if err := c.segman.Delete(victim); err != nil {
		return err
	}

	c.log.Infow("compacted segment", "segment", victim)
	return nil
}
