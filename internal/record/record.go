// Package record implements the wire format for a single log entry: an
// 8-byte big-endian length prefix followed by a JSON-encoded command body.
// Segments are a concatenation of such frames with no other header or
// footer, so this package is the one place that knows how to tell a
// complete frame from a crash-truncated tail.
package record

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
)

// LengthPrefixSize is the fixed width, in bytes, of a frame's length prefix.
const LengthPrefixSize = 8

// Kind identifies which of the three command variants a record carries.
type Kind string

const (
	KindSet    Kind = "set"
	KindRemove Kind = "remove"
	KindGet    Kind = "get"
)

// Command is the decoded form of a single record. Get is never persisted;
// it exists here only because the same type doubles as the network
// boundary's request payload (internal/wire).
type Command struct {
	Kind  Kind   `json:"kind"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Set builds a command asserting key → value.
func Set(key, value string) Command {
	return Command{Kind: KindSet, Key: key, Value: value}
}

// Remove builds a command asserting key has no value.
func Remove(key string) Command {
	return Command{Kind: KindRemove, Key: key}
}

// Get builds a command requesting the value of key. Never appended to a
// segment; used only by internal/wire.
func Get(key string) Command {
	return Command{Kind: KindGet, Key: key}
}

var (
	// ErrTruncated indicates the bytes available to decode a frame end
	// before a complete record could be read. During recovery this marks
	// the end of a segment, not corruption — it is the ordinary signature
	// of a crash that interrupted an append mid-write.
	ErrTruncated = errors.New("record: truncated frame")

	// ErrMalformed indicates a frame that is long enough to be complete
	// but whose body fails to decode. Unlike ErrTruncated, this points at
	// genuine on-disk corruption.
	ErrMalformed = errors.New("record: malformed body")
)

// Encode produces the 8-byte big-endian length prefix followed by the
// command's JSON body.
func Encode(cmd Command) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, LengthPrefixSize+len(body))
	binary.BigEndian.PutUint64(frame[:LengthPrefixSize], uint64(len(body)))
	copy(frame[LengthPrefixSize:], body)
	return frame, nil
}

// Size returns the total on-disk size, in bytes, that encoding cmd would
// occupy, without performing the encode.
func Size(cmd Command) (int64, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return 0, err
	}
	return int64(LengthPrefixSize + len(body)), nil
}

// ReadFrame decodes a single frame starting at offset in r, using
// positional reads so concurrent readers never interfere with each
// other's cursor. It returns the decoded command and the total number of
// bytes the frame occupied (length prefix + body), or ErrTruncated if
// fewer bytes are available than the frame claims, or ErrMalformed if the
// body cannot be decoded despite being fully present.
func ReadFrame(r io.ReaderAt, offset int64) (Command, int64, error) {
	header := make([]byte, LengthPrefixSize)
	if _, err := readFullAt(r, header, offset); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Command{}, 0, ErrTruncated
		}
		return Command{}, 0, err
	}

	bodyLen := binary.BigEndian.Uint64(header)
	body := make([]byte, bodyLen)
	if _, err := readFullAt(r, body, offset+LengthPrefixSize); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Command{}, 0, ErrTruncated
		}
		return Command{}, 0, err
	}

	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		return Command{}, 0, ErrMalformed
	}

	return cmd, LengthPrefixSize + int64(bodyLen), nil
}

// readFullAt fills buf entirely from r starting at off, treating a short
// read at the end of the underlying data as io.EOF the way io.ReadFull
// does for an io.Reader.
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
