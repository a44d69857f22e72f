package segment

import (
	"github.com/emberkv/ember/internal/record"
)

// Iterator yields a segment's frames in order starting at offset 0. It is
// finite and not restartable; call Iterate again for a fresh pass.
type Iterator struct {
	seg    *Segment
	offset int64
	done   bool
}

// Iterate returns a new iterator over the segment's records, starting at
// offset 0.
func (s *Segment) Iterate() *Iterator {
	return &Iterator{seg: s}
}

// Next decodes the next frame. It returns ok=false once the segment is
// exhausted (end-of-stream or a short/truncated trailing frame, per
// record.ErrTruncated) with a nil error — both are ordinary termination,
// not failure. A non-nil error indicates a genuinely malformed record.
func (it *Iterator) Next() (cmd record.Command, offset int64, ok bool, err error) {
	if it.done {
		return record.Command{}, 0, false, nil
	}

	offset = it.offset
	cmd, n, readErr := it.seg.Read(offset)
	if readErr != nil {
		it.done = true
		if readErr == record.ErrTruncated {
			return record.Command{}, 0, false, nil
		}
		return record.Command{}, 0, false, readErr
	}

	it.offset += n
	return cmd, offset, true, nil
}
