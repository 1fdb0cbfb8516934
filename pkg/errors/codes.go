package errors

// ErrorCode categorizes failures so that handlers, logs, and monitoring can
// branch on failure class without parsing message text.
type ErrorCode string

// Base error codes cover the fundamental failure categories shared by every
// subsystem.
const (
	// ErrorCodeIO represents failures crossing a system boundary: shard file
	// reads and writes, directory enumeration, socket sends.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the request
	// does not meet the protocol's requirements. These map to the numeric
	// wire codes of the error envelope rather than to server faults.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected failures that don't fit any
	// other category: bugs, assertion failures, impossible states.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base taxonomy for the append-only
// shard layer.
const (
	// ErrorCodeShardCorrupted indicates a record header that violates the
	// frame invariants (non-positive sample or tag counts). Readers stop the
	// affected shard and continue with the next one.
	ErrorCodeShardCorrupted ErrorCode = "SHARD_CORRUPTED"

	// ErrorCodeShardTruncated indicates a frame cut off mid-record, usually a
	// torn final write raced by a reader. Treated like corruption: the shard
	// is abandoned cleanly at the last complete record.
	ErrorCodeShardTruncated ErrorCode = "SHARD_TRUNCATED"

	// ErrorCodePermissionDenied indicates insufficient permissions on the
	// data or logs directory. Distinct from generic IO errors because it has
	// a specific resolution path for the operator.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem is mounted
	// read-only and appends cannot proceed.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Query and evaluation error codes.
const (
	// ErrorCodeMemoryLimit indicates the evaluate path exceeded its resident
	// sample-buffer cap. The query is aborted and surfaced to the client; the
	// process keeps serving other connections.
	ErrorCodeMemoryLimit ErrorCode = "EVALUATE_MEMORY_LIMIT"

	// ErrorCodeClientGone indicates a send to the client failed, typically
	// because the peer closed the socket mid-stream. The request terminates;
	// nothing else is affected.
	ErrorCodeClientGone ErrorCode = "CLIENT_GONE"
)
