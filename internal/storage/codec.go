package storage

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/dc5v/tictacdb/pkg/errors"
	"github.com/dc5v/tictacdb/pkg/options"
)

// Binary frame of one record, all integers little-endian:
//
//	uid        : 13 bytes, 12 base-62 characters + NUL
//	dataLength : int32, number of samples (N >= 1)
//	tagCount   : int32, number of tags (M >= 1)
//	epochMS    : int64
//	samples    : N x float64 (IEEE-754 bits)
//	tags       : M x { tagLen uint32 (length incl. trailing NUL), tagLen bytes }
//
// The layout is fixed and self-contained; no in-memory pointers are ever
// written. A header whose dataLength or tagCount is not positive marks the
// shard as corrupt from that point on: the scanner stops the shard and the
// process keeps running. A frame cut off mid-record — the torn final write a
// reader can race into — is treated the same way.

const headerSize = options.UIDSize + 4 + 4 + 8

// Sanity bounds on header fields. A value beyond these cannot come from a
// well-formed frame and would otherwise turn one flipped bit into a
// multi-gigabyte allocation.
const (
	maxSamplesPerRecord = 1 << 26
	maxTagsPerRecord    = 1 << 16
	maxTagBytes         = 1 << 16
)

// EncodeRecord serialises a record into its binary frame.
func EncodeRecord(record *Record) []byte {
	size := headerSize + 8*len(record.Samples)
	for _, tag := range record.Tags {
		size += 4 + len(tag) + 1
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))

	var uidField [options.UIDSize]byte
	copy(uidField[:], record.UID)
	buf.Write(uidField[:])

	binary.Write(buf, binary.LittleEndian, int32(len(record.Samples)))
	binary.Write(buf, binary.LittleEndian, int32(len(record.Tags)))
	binary.Write(buf, binary.LittleEndian, record.EpochMS)

	for _, sample := range record.Samples {
		binary.Write(buf, binary.LittleEndian, math.Float64bits(sample))
	}

	for _, tag := range record.Tags {
		binary.Write(buf, binary.LittleEndian, uint32(len(tag)+1))
		buf.WriteString(tag)
		buf.WriteByte(0)
	}

	return buf.Bytes()
}

// ReadRecord decodes the next frame from r. It returns io.EOF when the
// reader is positioned at a clean record boundary with nothing left. Any
// other failure is a StorageError: ErrorCodeShardCorrupted for a header that
// violates the frame invariants, ErrorCodeShardTruncated for a frame cut off
// mid-record.
func ReadRecord(r io.Reader) (*Record, error) {
	var header [headerSize]byte

	if _, err := io.ReadFull(r, header[:1]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, truncated(err, "header")
	}
	if _, err := io.ReadFull(r, header[1:]); err != nil {
		return nil, truncated(err, "header")
	}

	uidField := header[:options.UIDSize]
	uidEnd := bytes.IndexByte(uidField, 0)
	if uidEnd < 0 {
		uidEnd = options.UIDSize
	}

	dataLength := int32(binary.LittleEndian.Uint32(header[options.UIDSize:]))
	tagCount := int32(binary.LittleEndian.Uint32(header[options.UIDSize+4:]))
	epochMS := int64(binary.LittleEndian.Uint64(header[options.UIDSize+8:]))

	if dataLength <= 0 || tagCount <= 0 || dataLength > maxSamplesPerRecord || tagCount > maxTagsPerRecord {
		return nil, errors.NewStorageError(
			nil, errors.ErrorCodeShardCorrupted, "Record header violates frame invariants",
		).WithDetail("dataLength", dataLength).WithDetail("tagCount", tagCount)
	}

	record := &Record{
		UID:     string(uidField[:uidEnd]),
		EpochMS: epochMS,
		Samples: make([]float64, dataLength),
	}

	sampleBytes := make([]byte, 8*int(dataLength))
	if _, err := io.ReadFull(r, sampleBytes); err != nil {
		return nil, truncated(err, "samples")
	}
	for i := range record.Samples {
		record.Samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(sampleBytes[8*i:]))
	}

	record.Tags = make([]string, 0, tagCount)
	for i := int32(0); i < tagCount; i++ {
		var lenField [4]byte
		if _, err := io.ReadFull(r, lenField[:]); err != nil {
			return nil, truncated(err, "tag length")
		}

		tagLen := binary.LittleEndian.Uint32(lenField[:])
		if tagLen == 0 || tagLen > maxTagBytes {
			return nil, errors.NewStorageError(
				nil, errors.ErrorCodeShardCorrupted, "Tag length violates frame invariants",
			).WithDetail("tagLen", tagLen)
		}

		tagBytes := make([]byte, tagLen)
		if _, err := io.ReadFull(r, tagBytes); err != nil {
			return nil, truncated(err, "tag bytes")
		}

		// Drop the trailing NUL.
		record.Tags = append(record.Tags, string(tagBytes[:tagLen-1]))
	}

	return record, nil
}

func truncated(err error, section string) error {
	return errors.NewStorageError(
		err, errors.ErrorCodeShardTruncated, "Record frame cut off mid-record",
	).WithDetail("section", section)
}
