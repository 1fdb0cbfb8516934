// Package index provides the in-memory UID index: a mapping from record
// identifier to its ingest epoch and reserved shard offset.
//
// The index is populated on every successful push and consulted rarely, so
// a single exclusive mutex over a plain map is the whole concurrency story —
// there is no reader/writer split because lookups are off the hot read path.
// The index lives for the process lifetime only; it is not persisted and not
// rebuilt from disk on restart.
package index

import (
	stdErrors "errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")
)

// Index is the process-wide UID registry. Mutation and lookup serialise
// through one exclusive lock.
type Index struct {
	log     *zap.SugaredLogger
	mu      sync.Mutex
	entries map[string]Entry
	closed  atomic.Bool
}

// Config encapsulates the parameters required to initialize an Index.
type Config struct {
	Logger *zap.SugaredLogger
}

// New creates an Index ready for concurrent use.
func New(config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, stdErrors.New("index configuration is required")
	}

	return &Index{
		log:     config.Logger,
		entries: make(map[string]Entry, 2048),
	}, nil
}

// Add registers a freshly pushed UID. The offset field is reserved and
// always 0 in this core.
func (idx *Index) Add(uid string, epochMS, offset int64) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}

	idx.mu.Lock()
	idx.entries[uid] = Entry{EpochMS: epochMS, Offset: offset}
	idx.mu.Unlock()
	return nil
}

// Find returns the entry for uid and whether it exists.
func (idx *Index) Find(uid string) (Entry, bool) {
	if idx.closed.Load() {
		return Entry{}, false
	}

	idx.mu.Lock()
	entry, ok := idx.entries[uid]
	idx.mu.Unlock()
	return entry, ok
}

// Len returns the number of registered UIDs.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.entries)
}

// Close shuts the index down and releases its memory. Subsequent operations
// fail with ErrIndexClosed.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.log.Infow("Closing UID index", "entries", len(idx.entries))
	clear(idx.entries)
	idx.entries = nil
	return nil
}
