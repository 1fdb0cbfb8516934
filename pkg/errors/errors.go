// Package errors provides the structured error types used throughout
// TicTacDB.
//
// The system is built around a hierarchical structure: a foundational
// baseError carrying cause, message, code, and a structured detail bag,
// extended by domain-specific types. A StorageError knows which shard file
// and byte offset were involved; a RequestError knows the numeric wire code
// that must go into the protocol's error envelope and which request field was
// at fault.
//
// Two properties drive the design. First, per-request faults must never
// terminate the process: everything a worker can hit — bad JSON, a corrupt
// shard frame, a client that hung up mid-stream — is expressed as a
// recoverable value that bubbles to the request handler, which converts it to
// an envelope reply or a log line and moves on. Second, errors are built with
// their context at the point of failure through fluent With* builders, so the
// zap logs see shard paths, offsets, and offending request values without any
// string parsing.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsRequestError checks whether err is, or wraps, a RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return stdErrors.As(err, &re)
}

// IsStorageError checks whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// AsRequestError extracts a RequestError from an error chain, giving the
// server handler access to the numeric wire code and offending field.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if stdErrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// AsStorageError extracts a StorageError from an error chain, giving
// recovery code access to the shard path and offset involved.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsShardCorruption reports whether err marks a shard whose remaining frames
// cannot be trusted. Scanners abandon the shard and continue with the next
// one; the process keeps running.
func IsShardCorruption(err error) bool {
	if se, ok := AsStorageError(err); ok {
		return se.Code() == ErrorCodeShardCorrupted || se.Code() == ErrorCodeShardTruncated
	}
	return false
}

// GetErrorCode extracts the failure-class code from any error in the chain
// that carries one, or ErrorCodeInternal for plain errors. Gives logs and
// metrics a consistent failure class.
func GetErrorCode(err error) ErrorCode {
	var coded interface{ Code() ErrorCode }
	if stdErrors.As(err, &coded) {
		return coded.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error in the chain
// that carries them, returning an empty map otherwise.
func GetErrorDetails(err error) map[string]any {
	var detailed interface{ Details() map[string]any }
	if stdErrors.As(err, &detailed) {
		if details := detailed.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes a directory creation failure and
// returns a StorageError whose code tells the operator what actually went
// wrong.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied,
			"Insufficient permissions to create data directory",
		).WithPath(path).WithDetail("operation", "directory_creation")
	}

	if errno, ok := errnoOf(err); ok {
		switch errno {
		case syscall.ENOSPC:
			return NewStorageError(
				err, ErrorCodeDiskFull,
				"Insufficient disk space to create data directory",
			).WithPath(path).WithDetail("operation", "directory_creation")
		case syscall.EROFS:
			return NewStorageError(
				err, ErrorCodeFilesystemReadonly,
				"Cannot create directory on read-only filesystem",
			).WithPath(path).WithDetail("operation", "directory_creation")
		}
	}

	return NewStorageError(
		err, ErrorCodeIO, "Failed to create data directory",
	).WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyAppendError analyzes a shard append failure and returns a
// StorageError with the appropriate code and location context.
func ClassifyAppendError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied,
			"Insufficient permissions to append to shard",
		).WithPath(path).WithDetail("operation", "shard_append")
	}

	if errno, ok := errnoOf(err); ok {
		switch errno {
		case syscall.ENOSPC:
			return NewStorageError(
				err, ErrorCodeDiskFull,
				"Cannot append to shard: insufficient disk space",
			).WithPath(path).WithDetail("operation", "shard_append")
		case syscall.EROFS:
			return NewStorageError(
				err, ErrorCodeFilesystemReadonly,
				"Cannot append to shard: filesystem is read-only",
			).WithPath(path).WithDetail("operation", "shard_append")
		}
	}

	return NewStorageError(
		err, ErrorCodeIO, "Failed to append to shard",
	).WithPath(path).WithDetail("operation", "shard_append")
}

// errnoOf digs the syscall.Errno out of an *os.PathError chain.
func errnoOf(err error) (syscall.Errno, bool) {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			return errno, true
		}
	}
	var errno syscall.Errno
	if stdErrors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}
