package stats

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dc5v/tictacdb/pkg/logger"
	"github.com/dc5v/tictacdb/pkg/options"
)

// syncBuffer lets pool workers write while the test reads afterwards.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

func newTestPool(t *testing.T) *Pool {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.StatsWorkers = 2
	opts.StatsQueueDepth = 4

	pool, err := NewPool(&PoolConfig{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestPoolComputesAndWrites(t *testing.T) {
	pool := newTestPool(t)

	var out syncBuffer
	var writeMu sync.Mutex
	var done sync.WaitGroup

	done.Add(1)
	require.NoError(t, pool.Submit(Batch{
		Samples: []float64{1, 2, 3, 4, 5},
		Writer:  &out,
		WriteMu: &writeMu,
		Release: done.Done,
	}))
	done.Wait()

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, float64(5), decoded["length"])
	assert.Equal(t, 3.0, decoded["mean"])
}

func TestPoolStreamsOneObjectPerBatch(t *testing.T) {
	pool := newTestPool(t)

	var out syncBuffer
	var writeMu sync.Mutex
	var done sync.WaitGroup

	for i := 0; i < 3; i++ {
		done.Add(1)
		require.NoError(t, pool.Submit(Batch{
			Samples: []float64{float64(i), float64(i + 1)},
			Writer:  &out,
			WriteMu: &writeMu,
			Release: done.Done,
		}))
	}
	done.Wait()

	// Concatenated objects, decodable in sequence.
	decoder := json.NewDecoder(bytes.NewReader(out.Bytes()))
	count := 0
	for decoder.More() {
		var decoded map[string]any
		require.NoError(t, decoder.Decode(&decoded))
		assert.Equal(t, float64(2), decoded["length"])
		count++
	}
	assert.Equal(t, 3, count)
}

func TestPoolRejectsAfterClose(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.StatsWorkers = 1
	opts.StatsQueueDepth = 1

	pool, err := NewPool(&PoolConfig{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.ErrorIs(t, pool.Submit(Batch{}), ErrPoolClosed)
	assert.ErrorIs(t, pool.Close(), ErrPoolClosed)
}
