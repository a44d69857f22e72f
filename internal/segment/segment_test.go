package segment_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/segment"
	"github.com/emberkv/ember/pkg/logger"
)

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	seg, err := segment.Open(filepath.Join(dir, "1"), 1, logger.NewNop())
	require.NoError(t, err)
	defer seg.Close()

	f1, err := record.Encode(record.Set("a", "1"))
	require.NoError(t, err)
	off1, err := seg.Append(f1)
	require.NoError(t, err)
	require.Equal(t, int64(0), off1)

	f2, err := record.Encode(record.Set("b", "2"))
	require.NoError(t, err)
	off2, err := seg.Append(f2)
	require.NoError(t, err)
	require.Equal(t, int64(len(f1)), off2)

	cmd1, n1, err := seg.Read(off1)
	require.NoError(t, err)
	require.Equal(t, record.Set("a", "1"), cmd1)
	require.Equal(t, int64(len(f1)), n1)

	cmd2, _, err := seg.Read(off2)
	require.NoError(t, err)
	require.Equal(t, record.Set("b", "2"), cmd2)
}

func TestIterate(t *testing.T) {
	dir := t.TempDir()
	seg, err := segment.Open(filepath.Join(dir, "1"), 1, logger.NewNop())
	require.NoError(t, err)
	defer seg.Close()

	cmds := []record.Command{
		record.Set("a", "1"),
		record.Set("b", "2"),
		record.Remove("a"),
	}
	for _, cmd := range cmds {
		f, err := record.Encode(cmd)
		require.NoError(t, err)
		_, err = seg.Append(f)
		require.NoError(t, err)
	}

	it := seg.Iterate()
	var got []record.Command
	for {
		cmd, _, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, cmd)
	}
	require.Equal(t, cmds, got)
}

func TestSealThenReadThroughMmap(t *testing.T) {
	dir := t.TempDir()
	seg, err := segment.Open(filepath.Join(dir, "1"), 1, logger.NewNop())
	require.NoError(t, err)
	defer seg.Close()

	f, err := record.Encode(record.Set("k", "v"))
	require.NoError(t, err)
	off, err := seg.Append(f)
	require.NoError(t, err)

	require.NoError(t, seg.Seal())
	require.True(t, seg.Sealed())

	cmd, _, err := seg.Read(off)
	require.NoError(t, err)
	require.Equal(t, record.Set("k", "v"), cmd)

	_, err = seg.Append(f)
	require.Error(t, err)
}

func TestUnlinkRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1")
	seg, err := segment.Open(path, 1, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, seg.Unlink())

	matches, statErr := filepath.Glob(path)
	require.NoError(t, statErr)
	require.Empty(t, matches)
}

func TestReopenPicksUpExistingSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1")

	seg, err := segment.Open(path, 1, logger.NewNop())
	require.NoError(t, err)
	f, err := record.Encode(record.Set("a", "1"))
	require.NoError(t, err)
	_, err = seg.Append(f)
	require.NoError(t, err)
	require.NoError(t, seg.Close())

	reopened, err := segment.Open(path, 1, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, int64(len(f)), reopened.Size())
}
