package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	opts := NewDefaultOptions()

	assert.Equal(t, 8832, opts.Port)
	assert.Equal(t, "data", opts.DataDir)
	assert.Equal(t, "logs", opts.LogsDir)
	assert.Equal(t, int64(100*1024*1024), opts.EvaluateMemoryLimit)
	assert.Equal(t, 4, opts.StatsWorkers)
	assert.Equal(t, 16, opts.StatsQueueDepth)
}

func TestOptionFuncs(t *testing.T) {
	opts := NewDefaultOptions()

	for _, apply := range []OptionFunc{
		WithPort(9000),
		WithDataDir("/srv/ttdb/data"),
		WithLogsDir("/srv/ttdb/logs"),
		WithEvaluateMemoryLimit(1 << 20),
		WithStatsWorkers(8),
		WithStatsQueueDepth(32),
	} {
		apply(&opts)
	}

	assert.Equal(t, 9000, opts.Port)
	assert.Equal(t, "/srv/ttdb/data", opts.DataDir)
	assert.Equal(t, "/srv/ttdb/logs", opts.LogsDir)
	assert.Equal(t, int64(1<<20), opts.EvaluateMemoryLimit)
	assert.Equal(t, 8, opts.StatsWorkers)
	assert.Equal(t, 32, opts.StatsQueueDepth)
}

func TestOptionFuncsIgnoreInvalidValues(t *testing.T) {
	opts := NewDefaultOptions()

	WithPort(-1)(&opts)
	WithDataDir("   ")(&opts)
	WithEvaluateMemoryLimit(0)(&opts)
	WithStatsWorkers(0)(&opts)

	assert.Equal(t, NewDefaultOptions(), opts)
}

func TestWithDefaultOptionsResets(t *testing.T) {
	opts := NewDefaultOptions()
	WithPort(9999)(&opts)

	WithDefaultOptions()(&opts)
	assert.Equal(t, NewDefaultOptions(), opts)
}
