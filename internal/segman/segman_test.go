package segman_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/segman"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/logger"
)

func TestOpenAllocatesFirstSegmentOnEmptyDir(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	require.Equal(t, []uint64{1}, sm.LiveIDs())
	require.Equal(t, uint64(1), sm.ActiveID())
}

// TestAppendActiveRollsAtThreshold exercises the roll path: once the active
// segment's size exceeds the configured threshold, the next append lands in
// a freshly allocated segment and the old one becomes sealed.
func TestAppendActiveRollsAtThreshold(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 64, logger.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	firstActive := sm.ActiveID()

	var lastLoc index.Location
	for i := 0; i < 10; i++ {
		frame, err := record.Encode(record.Set("key", "a-fairly-long-value-to-force-a-roll"))
		require.NoError(t, err)
		loc, err := sm.AppendActive(frame)
		require.NoError(t, err)
		lastLoc = loc
	}

	require.Greater(t, sm.ActiveID(), firstActive)
	require.True(t, sm.IsSealed(firstActive))
	require.False(t, sm.IsSealed(sm.ActiveID()))

	cmd, err := sm.Read(lastLoc)
	require.NoError(t, err)
	require.Equal(t, "key", cmd.Key)
}

// TestOpenRemovesOrphanFiles covers spec's "opening a directory that
// contains files not mentioned in the catalog is permitted; such orphan
// files are unlinked lazily" behavior: a numeric-named file the catalog
// never allocated must be gone after Open.
func TestOpenRemovesOrphanFiles(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, sm.Close())

	orphanPath := filepath.Join(dir, "999")
	require.NoError(t, os.WriteFile(orphanPath, []byte("not a real segment"), 0644))
	require.FileExists(t, orphanPath)

	sm2, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	defer sm2.Close()

	require.NoFileExists(t, orphanPath)
	require.Equal(t, []uint64{1}, sm2.LiveIDs())
}

// TestOpenLeavesNonNumericAndCatalogFilesAlone confirms removeOrphans only
// ever targets numeric-named files that aren't the catalog's own log.
func TestOpenLeavesNonNumericAndCatalogFilesAlone(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, sm.Close())

	strayPath := filepath.Join(dir, "not-a-segment.txt")
	require.NoError(t, os.WriteFile(strayPath, []byte("stray"), 0644))

	sm2, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	defer sm2.Close()

	require.FileExists(t, strayPath)
}

// TestDeleteRefusesActiveSegment covers spec's invariant that the active
// segment can never be removed by the compactor or anything else.
func TestDeleteRefusesActiveSegment(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	err = sm.Delete(sm.ActiveID())
	require.Error(t, err)

	engErr, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeInvariantViolation, engErr.Code())
}

// TestDeleteSealedSegmentRetiresIt covers the happy path: deleting a sealed,
// non-active segment unlinks its file and drops it from the live set.
func TestDeleteSealedSegmentRetiresIt(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 64, logger.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	sealedID := sm.ActiveID()
	for i := 0; i < 10; i++ {
		frame, err := record.Encode(record.Set("key", "a-fairly-long-value-to-force-a-roll"))
		require.NoError(t, err)
		_, err = sm.AppendActive(frame)
		require.NoError(t, err)
	}
	require.NotEqual(t, sealedID, sm.ActiveID())

	sealedPath := filepath.Join(dir, "1")
	require.FileExists(t, sealedPath)

	require.NoError(t, sm.Delete(sealedID))
	require.NoFileExists(t, sealedPath)
	require.NotContains(t, sm.LiveIDs(), sealedID)
}

// TestUnknownSegmentErrors covers the three operations spec documents as
// returning UnknownSegmentError for a segment ID the manager never opened.
func TestUnknownSegmentErrors(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 1024*1024, logger.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	const bogusID = uint64(9999)

	_, err = sm.Read(index.Location{SegmentID: bogusID, Offset: 0})
	require.Error(t, err)
	engErr, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeUnknownSegment, engErr.Code())

	err = sm.IterateOne(bogusID, func(record.Command, int64) error { return nil })
	require.Error(t, err)
	engErr, ok = errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeUnknownSegment, engErr.Code())

	err = sm.Delete(bogusID)
	require.Error(t, err)
	engErr, ok = errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeUnknownSegment, engErr.Code())
}

// TestReopenAfterRollPreservesSealedSegments confirms a reopen after
// several rolls re-seals every non-active segment and keeps the active one
// appendable.
func TestReopenAfterRollPreservesSealedSegments(t *testing.T) {
	dir := t.TempDir()

	sm, err := segman.Open(dir, 64, logger.NewNop())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		frame, err := record.Encode(record.Set("key", "a-fairly-long-value-to-force-a-roll"))
		require.NoError(t, err)
		_, err = sm.AppendActive(frame)
		require.NoError(t, err)
	}
	activeBeforeClose := sm.ActiveID()
	require.NoError(t, sm.Close())

	sm2, err := segman.Open(dir, 64, logger.NewNop())
	require.NoError(t, err)
	defer sm2.Close()

	require.Equal(t, activeBeforeClose, sm2.ActiveID())
	for _, id := range sm2.LiveIDs() {
		if id != sm2.ActiveID() {
			require.True(t, sm2.IsSealed(id))
		}
	}
}
