package errors

// StorageError is a specialized error type for the shard layer. It embeds
// baseError for the standard chaining and detail machinery, then adds the
// location context a shard failure needs: which file, which tag, how far in.
type StorageError struct {
	*baseError
	tag      string // Tag partition being accessed when the error occurred.
	offset   int64  // Byte offset within the shard where the problem happened.
	fileName string // Shard file name (tag-YYYYMMDD.db).
	path     string // Full path of the shard or directory involved.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while keeping the StorageError type.
func (se *StorageError) WithDetail(key string, value any) *StorageError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithTag records which tag partition was involved.
func (se *StorageError) WithTag(tag string) *StorageError {
	se.tag = tag
	return se
}

// WithOffset records the byte position within the shard where the error
// occurred. Combined with the path this pinpoints the damaged frame.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithFileName captures the shard file name being processed.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures the full path being processed.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Tag returns the tag partition involved in the failure.
func (se *StorageError) Tag() string {
	return se.tag
}

// Offset returns the byte offset within the shard.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// FileName returns the shard file name.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the full path involved in the failure.
func (se *StorageError) Path() string {
	return se.path
}
