package options

import "github.com/docker/go-units"

const (
	// DefaultPort is the TCP port the server binds on all interfaces.
	DefaultPort = 8832

	// DefaultDataDir is the directory holding the per-tag daily shard files,
	// relative to the working directory unless overridden.
	DefaultDataDir = "data"

	// DefaultLogsDir is the directory holding the daily request audit logs.
	DefaultLogsDir = "logs"

	// RequestBufferSize is the maximum request size in bytes. The protocol
	// assumes one JSON object per request fitting in a single read.
	RequestBufferSize = 1024

	// UIDSize is the on-disk size of a record identifier: 12 base-62
	// characters plus a terminating NUL.
	UIDSize = 13

	// SearchChunkRecords is the number of records accumulated before a search
	// response array is flushed to the client. Also reported as "limit" in
	// every evaluate reply.
	SearchChunkRecords = 100

	// EvaluateBatchSamples is the number of samples collected before a batch
	// is handed to the statistics workers.
	EvaluateBatchSamples = 1000

	// DefaultEvaluateMemoryLimit caps the resident sample memory of a single
	// evaluate query: the buffer being filled plus every batch still queued
	// or in flight. Exceeding it aborts the query, not the process.
	DefaultEvaluateMemoryLimit int64 = 100 * units.MiB

	// DefaultStatsWorkers is the number of statistics compute workers
	// draining the batch queue.
	DefaultStatsWorkers = 4

	// DefaultStatsQueueDepth bounds the batch queue. A full queue blocks the
	// submitting query worker, which is the backpressure.
	DefaultStatsQueueDepth = 16
)

// Holds the default configuration for a TicTacDB instance.
var defaultOptions = Options{
	Port:                DefaultPort,
	DataDir:             DefaultDataDir,
	LogsDir:             DefaultLogsDir,
	EvaluateMemoryLimit: DefaultEvaluateMemoryLimit,
	StatsWorkers:        DefaultStatsWorkers,
	StatsQueueDepth:     DefaultStatsQueueDepth,
}

func NewDefaultOptions() Options {
	return defaultOptions
}
