package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dc5v/tictacdb/pkg/epochtime"
	"github.com/dc5v/tictacdb/pkg/logger"
	"github.com/dc5v/tictacdb/pkg/options"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = filepath.Join(t.TempDir(), "data")

	store, err := New(&Config{Options: &opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	return store
}

func TestNewBootstrapsDataDir(t *testing.T) {
	store := newTestStore(t)

	stat, err := os.Stat(store.DataDir())
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
	assert.Equal(t, os.FileMode(0o700), stat.Mode().Perm())
}

func TestShardPath(t *testing.T) {
	store := newTestStore(t)

	epochMS := epochtime.NowMS()
	path, err := store.ShardPath("fan", epochMS)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(store.DataDir(), "fan-"+epochtime.FormatDay(epochMS)+ShardExt), path)
}

func TestIndexPathIsReserved(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, filepath.Join(store.DataDir(), "index.dat"), store.IndexPath())

	// Nothing creates it.
	_, err := os.Stat(store.IndexPath())
	assert.True(t, os.IsNotExist(err))
}

func TestAppendScanRoundTrip(t *testing.T) {
	store := newTestStore(t)

	epochMS := epochtime.NowMS()
	records := []*Record{
		{UID: "00000000000a", EpochMS: epochMS, Samples: []float64{1, 2, 3}, Tags: []string{"fan"}},
		{UID: "00000000000b", EpochMS: epochMS + 1, Samples: []float64{4}, Tags: []string{"fan", "aux"}},
	}

	path, err := store.ShardPath("fan", epochMS)
	require.NoError(t, err)
	for _, record := range records {
		require.NoError(t, store.Append(path, EncodeRecord(record)))
	}

	var got []*Record
	require.NoError(t, store.ScanShard(path, func(record *Record) error {
		got = append(got, record)
		return nil
	}))
	assert.Equal(t, records, got)
}

func TestScanMissingShardIsEmpty(t *testing.T) {
	store := newTestStore(t)

	called := false
	require.NoError(t, store.ScanShard(filepath.Join(store.DataDir(), "nope-20231114.db"), func(*Record) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

// A torn final frame — the state a reader can observe while racing an
// appender — ends the scan cleanly after the last complete record.
func TestScanStopsCleanlyOnTornTail(t *testing.T) {
	store := newTestStore(t)

	epochMS := epochtime.NowMS()
	complete := &Record{UID: "00000000000a", EpochMS: epochMS, Samples: []float64{7}, Tags: []string{"fan"}}
	torn := EncodeRecord(&Record{UID: "00000000000b", EpochMS: epochMS, Samples: []float64{8, 9}, Tags: []string{"fan"}})

	path, err := store.ShardPath("fan", epochMS)
	require.NoError(t, err)
	require.NoError(t, store.Append(path, EncodeRecord(complete)))
	require.NoError(t, store.Append(path, torn[:len(torn)-6]))

	var got []*Record
	require.NoError(t, store.ScanShard(path, func(record *Record) error {
		got = append(got, record)
		return nil
	}))

	require.Len(t, got, 1)
	assert.Equal(t, complete, got[0])
}

func TestScanPropagatesCallbackError(t *testing.T) {
	store := newTestStore(t)

	epochMS := epochtime.NowMS()
	path, err := store.ShardPath("fan", epochMS)
	require.NoError(t, err)
	record := &Record{UID: "00000000000a", EpochMS: epochMS, Samples: []float64{7}, Tags: []string{"fan"}}
	require.NoError(t, store.Append(path, EncodeRecord(record)))

	sentinel := assert.AnError
	err = store.ScanShard(path, func(*Record) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}
