// Package catalog implements the store's meta-log: the authoritative,
// append-only record of which segment IDs are currently live. It is
// structurally the same framing as internal/record (an 8-byte big-endian
// length prefix followed by a JSON body) applied to a much smaller
// two-command alphabet, grounded on the original implementation's
// observation that the meta-log is just another append-only file reusing
// the data file's write/read primitives.
package catalog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	engerr "github.com/emberkv/ember/pkg/errors"
)

// FileName is the catalog's fixed file name within a store's data directory.
const FileName = "meta.db"

// StartID is the first segment ID ever allocated by an empty catalog.
const StartID uint64 = 1

type opKind string

const (
	opInsert opKind = "insert"
	opDelete opKind = "delete"
)

type metaCommand struct {
	Op opKind `json:"op"`
	ID uint64 `json:"id"`
}

var errTruncated = errors.New("catalog: truncated frame")

// Catalog is the authoritative set of live segment IDs, persisted as an
// append-only log of Insert/Delete commands and replayed on open.
type Catalog struct {
	mu      sync.Mutex
	dir     string
	path    string
	file    *os.File
	log     *zap.SugaredLogger
	size    int64
	liveIDs map[uint64]struct{}
	maxID   uint64
}

// Open opens (creating if absent) the catalog file in dir, replays it, and
// materializes the live-ID set and the maximum observed ID.
func Open(dir string, log *zap.SugaredLogger) (*Catalog, error) {
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, engerr.ClassifyFileOpenError(err, path, FileName)
	}

	c := &Catalog{
		dir:     dir,
		path:    path,
		file:    file,
		log:     log,
		liveIDs: make(map[uint64]struct{}),
	}

	if err := c.replay(); err != nil {
		file.Close()
		return nil, err
	}

	log.Infow("catalog opened", "path", path, "live", len(c.liveIDs), "maxID", c.maxID)
	return c, nil
}

func (c *Catalog) replay() error {
	info, err := c.file.Stat()
	if err != nil {
		return engerr.NewStorageError(err, engerr.ErrorCodeIO, "failed to stat catalog file").WithPath(c.path)
	}

	var offset int64
	for offset < info.Size() {
		cmd, n, err := readMetaFrame(c.file, offset)
		if err != nil {
			if errors.Is(err, errTruncated) {
				c.log.Warnw("catalog log ends in a truncated frame, discarding tail", "offset", offset)
				break
			}
			return engerr.NewCatalogCorruptedError("undecodable meta command", err)
		}

		switch cmd.Op {
		case opInsert:
			c.liveIDs[cmd.ID] = struct{}{}
			if cmd.ID > c.maxID {
				c.maxID = cmd.ID
			}
		case opDelete:
			if _, ok := c.liveIDs[cmd.ID]; !ok {
				return engerr.NewCatalogCorruptedError("delete of id never inserted", nil)
			}
			delete(c.liveIDs, cmd.ID)
		default:
			return engerr.NewCatalogCorruptedError("unknown meta command op", nil)
		}

		offset += n
	}

	c.size = offset
	return nil
}

// Allocate returns max+1 (or StartID when the catalog is empty), appends
// Insert(id) durably, updates the in-memory live set, and returns the new ID.
func (c *Catalog) Allocate() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := StartID
	if c.maxID != 0 {
		id = c.maxID + 1
	}

	if err := c.append(opInsert, id); err != nil {
		return 0, err
	}

	c.liveIDs[id] = struct{}{}
	c.maxID = id
	return id, nil
}

// Retire appends Delete(id) durably and removes id from the live set. It
// does not touch the segment file itself; that is the segment manager's job.
func (c *Catalog) Retire(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.append(opDelete, id); err != nil {
		return err
	}
	delete(c.liveIDs, id)
	return nil
}

// LiveIDs returns a snapshot of the currently live segment IDs.
func (c *Catalog) LiveIDs() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uint64, 0, len(c.liveIDs))
	for id := range c.liveIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MaxID returns the largest ID ever allocated and whether any ID has been
// allocated at all.
func (c *Catalog) MaxID() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxID, c.maxID != 0
}

// PathOf returns the filesystem path for segment id.
func (c *Catalog) PathOf(id uint64) string {
	return filepath.Join(c.dir, strconv.FormatUint(id, 10))
}

// Close releases the catalog's file handle.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file.Close()
}

func (c *Catalog) append(op opKind, id uint64) error {
	frame, err := encodeMetaFrame(metaCommand{Op: op, ID: id})
	if err != nil {
		return engerr.NewCatalogCorruptedError("failed to encode meta command", err)
	}

	n, err := c.file.Write(frame)
	if err != nil {
		return engerr.NewStorageError(err, engerr.ErrorCodeIO, "failed to append catalog entry").
			WithPath(c.path).WithOffset(int(c.size))
	}
	if err := c.file.Sync(); err != nil {
		return engerr.ClassifySyncError(err, FileName, c.path, int(c.size))
	}

	c.size += int64(n)
	return nil
}

func encodeMetaFrame(cmd metaCommand) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 8+len(body))
	binary.BigEndian.PutUint64(frame[:8], uint64(len(body)))
	copy(frame[8:], body)
	return frame, nil
}

func readMetaFrame(r io.ReaderAt, offset int64) (metaCommand, int64, error) {
	header := make([]byte, 8)
	if _, err := readFullAt(r, header, offset); err != nil {
		return metaCommand{}, 0, errTruncated
	}

	bodyLen := binary.BigEndian.Uint64(header)
	body := make([]byte, bodyLen)
	if _, err := readFullAt(r, body, offset+8); err != nil {
		return metaCommand{}, 0, errTruncated
	}

	var cmd metaCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		return metaCommand{}, 0, err
	}
	return cmd, 8 + int64(bodyLen), nil
}

func readFullAt(r io.ReaderAt, buf []byte, off int64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return n, nil
	}
	if err == nil || err == io.EOF {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}
