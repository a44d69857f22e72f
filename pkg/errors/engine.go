package errors

// EngineError provides specialized error handling for the core store's
// mutator protocol and recovery path. This structure extends the base
// error system with the context a caller needs to distinguish "key does
// not exist" from "the on-disk state is inconsistent" without parsing
// messages.
type EngineError struct {
	// Embed the base error to inherit all standard error functionality
	// including error chaining, structured details, and error codes.
	*baseError

	// Identifies which key was being processed when the error occurred.
	key string

	// Identifies which segment was involved, if applicable.
	segmentID uint64

	// Describes what store operation was being performed (e.g.
	// "Get", "Set", "Remove", "Recover").
	operation string
}

// NewEngineError creates a new engine-specific error with the provided context.
func NewEngineError(err error, code ErrorCode, msg string) *EngineError {
	return &EngineError{
		baseError: NewBaseError(err, code, msg),
	}
}

// WithDetail adds contextual information while maintaining the EngineError type.
func (ee *EngineError) WithDetail(key string, value any) *EngineError {
	ee.baseError.WithDetail(key, value)
	return ee
}

// WithKey records which key was being processed when the error occurred.
func (ee *EngineError) WithKey(key string) *EngineError {
	ee.key = key
	return ee
}

// WithSegmentID captures which segment was involved in the error.
func (ee *EngineError) WithSegmentID(segmentID uint64) *EngineError {
	ee.segmentID = segmentID
	return ee
}

// WithOperation records what store operation was being performed.
func (ee *EngineError) WithOperation(operation string) *EngineError {
	ee.operation = operation
	return ee
}

// Key returns the key that was being processed when the error occurred.
func (ee *EngineError) Key() string {
	return ee.key
}

// SegmentID returns the segment identifier associated with the error.
func (ee *EngineError) SegmentID() uint64 {
	return ee.segmentID
}

// Operation returns the name of the operation that was being performed.
func (ee *EngineError) Operation() string {
	return ee.operation
}

// ErrKeyNotFound is the sentinel a caller checks with errors.Is to decide
// whether a Get or Remove found nothing, without unwrapping an EngineError.
// NewKeyNotFoundError wraps this sentinel as the EngineError's cause so both
// errors.Is(err, ErrKeyNotFound) and errors.As with a *EngineError target
// (see AsEngineError) work.
var ErrKeyNotFound = NewBaseError(nil, ErrorCodeKeyNotFound, "key not found")

// NewKeyNotFoundError creates the error returned by Get/Remove for a key
// absent from the index.
func NewKeyNotFoundError(key, operation string) *EngineError {
	return NewEngineError(ErrKeyNotFound, ErrorCodeKeyNotFound, "key not found").
		WithKey(key).
		WithOperation(operation)
}

// NewUnknownSegmentError creates the error returned when the index points at
// a segment ID the catalog does not list as live — a mutation-ordering or
// recovery bug, not an operational failure.
func NewUnknownSegmentError(segmentID uint64, key, operation string) *EngineError {
	return NewEngineError(nil, ErrorCodeUnknownSegment, "index points at unknown segment").
		WithSegmentID(segmentID).
		WithKey(key).
		WithOperation(operation)
}

// NewRecordTruncatedError creates an error describing a record whose bytes
// run past the end of the file. Segment iteration itself does not build it:
// it ends cleanly on record.ErrTruncated, treating the partial frame as the
// tail of an interrupted append, not corruption.
func NewRecordTruncatedError(segmentID uint64, offset int64) *EngineError {
	return NewEngineError(nil, ErrorCodeRecordTruncated, "record truncated at end of segment").
		WithSegmentID(segmentID).
		WithDetail("offset", offset)
}

// NewRecordCorruptedError creates the error for a record whose length prefix
// or body could not be decoded despite enough bytes being present.
func NewRecordCorruptedError(segmentID uint64, offset int64, cause error) *EngineError {
	return NewEngineError(cause, ErrorCodeRecordCorrupted, "record could not be decoded").
		WithSegmentID(segmentID).
		WithDetail("offset", offset)
}

// NewCatalogCorruptedError creates the error for a catalog log entry that
// cannot be decoded, or that retires a segment ID never inserted.
func NewCatalogCorruptedError(detail string, cause error) *EngineError {
	return NewEngineError(cause, ErrorCodeCatalogCorrupted, "catalog log is inconsistent").
		WithOperation("Recover").
		WithDetail("detail", detail)
}

// NewInvariantViolationError marks a condition the design guarantees should
// never occur.
func NewInvariantViolationError(operation, detail string) *EngineError {
	return NewEngineError(nil, ErrorCodeInvariantViolation, "internal invariant violated").
		WithOperation(operation).
		WithDetail("detail", detail)
}
