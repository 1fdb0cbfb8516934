package index

// Entry is the metadata kept in memory for one pushed record. The structure
// is intentionally minimal: the index exists to answer "has this UID been
// assigned, and when" without touching disk.
type Entry struct {
	// EpochMS is the server-assigned ingest timestamp of the record.
	EpochMS int64

	// Offset is the byte position of the record within its shard. Reserved:
	// the push path always stores 0 today, and nothing reads it back. It is
	// the hook for a future direct-by-UID lookup against the on-disk
	// index.dat companion file.
	Offset int64
}
