package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dc5v/tictacdb/pkg/errors"
	"github.com/dc5v/tictacdb/pkg/options"
)

func sampleRecord() *Record {
	return &Record{
		UID:     "000abc123xyz",
		EpochMS: 1_700_000_000_000,
		Samples: []float64{1.0, 2.5, -3.0},
		Tags:    []string{"fan", "rack-7"},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame := EncodeRecord(sampleRecord())

	decoded, err := ReadRecord(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), decoded)
}

func TestEncodeUIDFieldIsNULTerminated(t *testing.T) {
	frame := EncodeRecord(sampleRecord())
	assert.Equal(t, byte(0), frame[options.UIDSize-1])
	assert.Equal(t, "000abc123xyz", string(frame[:options.UIDSize-1]))
}

func TestDecodeMultipleFrames(t *testing.T) {
	first := sampleRecord()
	second := &Record{UID: "00000000000b", EpochMS: 42, Samples: []float64{9}, Tags: []string{"b"}}

	var buf bytes.Buffer
	buf.Write(EncodeRecord(first))
	buf.Write(EncodeRecord(second))

	r := bytes.NewReader(buf.Bytes())

	got1, err := ReadRecord(r)
	require.NoError(t, err)
	got2, err := ReadRecord(r)
	require.NoError(t, err)
	_, err = ReadRecord(r)
	assert.Equal(t, io.EOF, err)

	assert.Equal(t, first, got1)
	assert.Equal(t, second, got2)
}

func TestDecodeEmptyReaderIsEOF(t *testing.T) {
	_, err := ReadRecord(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestDecodeRejectsInvalidHeader(t *testing.T) {
	t.Run("zero sample count", func(t *testing.T) {
		frame := EncodeRecord(sampleRecord())
		// dataLength sits right after the uid field.
		for i := 0; i < 4; i++ {
			frame[options.UIDSize+i] = 0
		}

		_, err := ReadRecord(bytes.NewReader(frame))
		require.Error(t, err)
		assert.True(t, errors.IsShardCorruption(err))
		assert.Equal(t, errors.ErrorCodeShardCorrupted, errors.GetErrorCode(err))
	})

	t.Run("zero tag count", func(t *testing.T) {
		frame := EncodeRecord(sampleRecord())
		for i := 0; i < 4; i++ {
			frame[options.UIDSize+4+i] = 0
		}

		_, err := ReadRecord(bytes.NewReader(frame))
		require.Error(t, err)
		assert.Equal(t, errors.ErrorCodeShardCorrupted, errors.GetErrorCode(err))
	})
}

func TestDecodeTruncatedFrame(t *testing.T) {
	frame := EncodeRecord(sampleRecord())

	cuts := []struct {
		name string
		keep int
	}{
		{name: "inside header", keep: headerSize / 2},
		{name: "inside samples", keep: headerSize + 4},
		{name: "inside tags", keep: len(frame) - 2},
	}

	for _, tt := range cuts {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecord(bytes.NewReader(frame[:tt.keep]))
			require.Error(t, err)
			assert.True(t, errors.IsShardCorruption(err))
			assert.Equal(t, errors.ErrorCodeShardTruncated, errors.GetErrorCode(err))
		})
	}
}
