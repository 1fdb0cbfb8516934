// Package options provides the configuration surface of TicTacDB. It defines
// the parameters that control where shards and audit logs live, which port
// the server binds, and the resource limits of the evaluate path, together
// with functional options for overriding the defaults.
package options

import "strings"

// Options defines the configuration parameters for a TicTacDB instance.
// The protocol constants (request buffer size, chunk sizes, UID width) are
// compile-time and live in defaults.go; everything here is tunable at
// construction.
type Options struct {
	// Port is the TCP port the server listens on, bound on all interfaces.
	//
	// Default: 8832
	Port int `json:"port"`

	// DataDir is the base path for the per-tag daily shard files
	// (<tag>-<YYYYMMDD>.db) and the reserved index.dat.
	//
	// Default: "data"
	DataDir string `json:"dataDir"`

	// LogsDir is the base path for the daily request audit logs
	// (<YYYYMMDD>.log).
	//
	// Default: "logs"
	LogsDir string `json:"logsDir"`

	// EvaluateMemoryLimit caps the resident sample memory of one evaluate
	// query in bytes. Over-limit aborts that query with a surfaced error.
	//
	// Default: 100 MiB
	EvaluateMemoryLimit int64 `json:"evaluateMemoryLimit"`

	// StatsWorkers is the number of compute workers shared by all evaluate
	// queries.
	//
	// Default: 4
	StatsWorkers int `json:"statsWorkers"`

	// StatsQueueDepth bounds the queue of sample batches awaiting
	// computation; submissions block when it is full.
	//
	// Default: 16
	StatsQueueDepth int `json:"statsQueueDepth"`
}

// OptionFunc modifies the instance configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies the predefined default configuration.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithPort sets the TCP listen port.
func WithPort(port int) OptionFunc {
	return func(o *Options) {
		if port > 0 && port <= 65535 {
			o.Port = port
		}
	}
}

// WithDataDir sets the shard data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithLogsDir sets the audit log directory.
func WithLogsDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.LogsDir = directory
		}
	}
}

// WithEvaluateMemoryLimit sets the per-query resident sample cap in bytes.
func WithEvaluateMemoryLimit(limit int64) OptionFunc {
	return func(o *Options) {
		if limit > 0 {
			o.EvaluateMemoryLimit = limit
		}
	}
}

// WithStatsWorkers sets the number of statistics compute workers.
func WithStatsWorkers(workers int) OptionFunc {
	return func(o *Options) {
		if workers > 0 {
			o.StatsWorkers = workers
		}
	}
}

// WithStatsQueueDepth sets the capacity of the statistics batch queue.
func WithStatsQueueDepth(depth int) OptionFunc {
	return func(o *Options) {
		if depth > 0 {
			o.StatsQueueDepth = depth
		}
	}
}
