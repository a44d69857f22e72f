package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodeSegmentCorrupted indicates that a segment file's data has been
	// damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a segment file. Headers contain critical metadata about the
	// segment's structure, so header read failures prevent access to the
	// entire segment and all data it contains.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content from segment files after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// segment structure is intact but specific data regions are inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Engine-specific error codes cover the failure modes of the store's mutator
// protocol and recovery path: missing keys, dangling index pointers into
// segments the catalog no longer knows about, and the two ways an on-disk
// record can fail to decode (a clean truncated tail from a crash mid-append,
// versus a corrupted record in the middle of a segment).
const (
	// ErrorCodeKeyNotFound indicates a Get or Remove was issued against a key
	// with no live record in the index.
	ErrorCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrorCodeUnknownSegment indicates the index holds a location pointing
	// at a segment ID the catalog does not list as live. This should never
	// happen outside of a bug in mutation ordering or recovery.
	ErrorCodeUnknownSegment ErrorCode = "UNKNOWN_SEGMENT"

	// ErrorCodeRecordTruncated indicates a record could not be fully read
	// because the file ends mid-record. During recovery this is treated as
	// the tail of an interrupted write and is not an error; the truncated
	// bytes are discarded rather than surfaced.
	ErrorCodeRecordTruncated ErrorCode = "RECORD_TRUNCATED"

	// ErrorCodeRecordCorrupted indicates a record's length prefix or body
	// could not be decoded even though enough bytes were present, which
	// points at on-disk corruption rather than an interrupted write.
	ErrorCodeRecordCorrupted ErrorCode = "RECORD_CORRUPTED"

	// ErrorCodeCatalogCorrupted indicates the catalog log contains a command
	// that cannot be decoded or that retires a segment ID never inserted.
	ErrorCodeCatalogCorrupted ErrorCode = "CATALOG_CORRUPTED"

	// ErrorCodeInvariantViolation marks a condition the engine's own design
	// guarantees should never occur (for example, a compaction migration
	// racing the mutator lock). Surfacing it as a distinct code keeps these
	// separate from ordinary operational failures in logs and metrics.
	ErrorCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)
