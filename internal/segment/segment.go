// Package segment implements the append-only segment file: the unit the
// segment manager rotates, the index points into, and the compactor
// rewrites. A segment is active (appendable, buffered I/O) or sealed
// (read-only, memory-mapped for fast positional reads) but never both.
package segment

import (
	"io"
	"os"
	"sync"

	"github.com/tysonmote/gommap"
	"go.uber.org/zap"

	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/pkg/errors"
)

// Segment is a single append-only log file identified by a numeric ID.
// While active it is appended to under buffered *os.File I/O; once sealed
// its bytes are memory-mapped for read-only access, matching the access
// pattern gommap's fixed-size-mapping model expects.
type Segment struct {
	id   uint64
	path string
	log  *zap.SugaredLogger

	mu     sync.RWMutex
	file   *os.File
	size   int64
	sealed bool
	mmap   gommap.MMap
}

// Open opens (creating if absent) the segment file at path for append and
// random read, positioning its logical end at the current file length.
func Open(path string, id uint64, log *zap.SugaredLogger) (*Segment, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, filenameOf(path))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment file").
			WithPath(path).WithFileName(filenameOf(path))
	}

	return &Segment{
		id:   id,
		path: path,
		log:  log,
		file: file,
		size: info.Size(),
	}, nil
}

// ID returns the segment's numeric identifier.
func (s *Segment) ID() uint64 { return s.id }

// Path returns the segment's filesystem path.
func (s *Segment) Path() string { return s.path }

// Size returns the segment's current logical length in bytes.
func (s *Segment) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Sealed reports whether the segment has been sealed.
func (s *Segment) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// Append writes an already-encoded frame to the end of the segment,
// flushes it to stable storage, and returns the offset at which the
// frame's length prefix begins. The returned offset is monotonically
// increasing across calls on the same segment.
func (s *Segment) Append(frame []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return 0, errors.NewInvariantViolationError("Append", "append to a sealed segment")
	}

	offset := s.size
	n, err := s.file.Write(frame)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record").
			WithPath(s.path).WithFileName(filenameOf(s.path)).WithOffset(int(offset))
	}

	if err := s.file.Sync(); err != nil {
		return 0, errors.ClassifySyncError(err, filenameOf(s.path), s.path, int(offset))
	}

	s.size += int64(n)
	return offset, nil
}

// Read decodes the record whose length prefix begins at offset. It uses
// positional I/O (the mapped bytes, or ReadAt against the file handle) so
// concurrent readers never disturb each other's position.
func (s *Segment) Read(offset int64) (record.Command, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cmd, n, err := record.ReadFrame(s.readerAtLocked(), offset)
	if err != nil {
		return record.Command{}, 0, err
	}
	return cmd, n, nil
}

// readerAtLocked returns the io.ReaderAt backing reads: the mmap when
// sealed, the file handle otherwise. Caller must hold s.mu.
func (s *Segment) readerAtLocked() io.ReaderAt {
	if s.sealed {
		return mmapReaderAt(s.mmap)
	}
	return s.file
}

// Seal marks the segment read-only and memory-maps its bytes for fast
// subsequent reads. Seal must only be called once, after the segment
// manager has rolled a new active segment in its place.
func (s *Segment) Seal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return nil
	}

	if s.size > 0 {
		mapping, err := gommap.Map(s.file.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
		if err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to map sealed segment").
				WithPath(s.path).WithFileName(filenameOf(s.path))
		}
		s.mmap = mapping
	}

	s.sealed = true
	s.log.Infow("segment sealed", "id", s.id, "size", s.size)
	return nil
}

// Close releases the segment's handles without removing its file.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mmap != nil {
		if err := s.mmap.UnsafeUnmap(); err != nil {
			return err
		}
		s.mmap = nil
	}
	return s.file.Close()
}

// Unlink removes the underlying file, consuming the handle. The segment
// must not be used after Unlink returns.
func (s *Segment) Unlink() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mmap != nil {
		_ = s.mmap.UnsafeUnmap()
		s.mmap = nil
	}
	if err := s.file.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to unlink segment").
			WithPath(s.path).WithFileName(filenameOf(s.path))
	}
	return nil
}

// mmapReaderAt adapts a gommap.MMap (a plain []byte) to io.ReaderAt
// semantics, including the short-read-at-EOF behavior record.ReadFrame
// relies on.
type mmapReaderAt []byte

func (m mmapReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m)) {
		return 0, io.EOF
	}
	n := copy(p, m[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func filenameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
