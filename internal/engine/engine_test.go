package engine

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dc5v/tictacdb/internal/query"
	"github.com/dc5v/tictacdb/pkg/logger"
	"github.com/dc5v/tictacdb/pkg/options"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = filepath.Join(t.TempDir(), "data")
	opts.LogsDir = filepath.Join(t.TempDir(), "logs")
	opts.StatsWorkers = 1
	opts.StatsQueueDepth = 2

	eng, err := New(&Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	return eng
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Logger: logger.NewNop()})
	assert.Error(t, err)
}

// The engine wires a working query path without the TCP front.
func TestEmbeddedQueryPath(t *testing.T) {
	eng := newTestEngine(t)
	defer eng.Close()

	uid, epochMS, err := eng.Query().Push([]string{"fan"}, []float64{1, 2, 3})
	require.NoError(t, err)

	var out bytes.Buffer
	err = eng.Query().Search(&out, &query.Params{
		Tags:      []string{"fan"},
		StartTime: &epochMS,
		EndTime:   &epochMS,
	})
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, uid, records[0]["uid"])
}

func TestCloseIsIdempotentlyRejected(t *testing.T) {
	eng := newTestEngine(t)

	require.NoError(t, eng.Close())
	assert.ErrorIs(t, eng.Close(), ErrEngineClosed)
	assert.ErrorIs(t, eng.Serve(), ErrEngineClosed)
}
